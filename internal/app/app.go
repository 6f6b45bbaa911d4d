// Package app wires configuration into the storage, search and library
// components shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"legalqa/internal/blob"
	"legalqa/internal/collection"
	"legalqa/internal/config"
	"legalqa/internal/legal"
	"legalqa/internal/metrics"
	"legalqa/internal/providers"
	"legalqa/internal/storage"
	"legalqa/internal/vector"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

type Runtime struct {
	Cfg        config.Config
	Log        zerolog.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	DB         *storage.DB
	Signer     *blob.Signer
	Store      blob.Storage
	Collection *collection.Collection
	Providers  *providers.Manager
	Passages   legal.PassageSearcher
	Library    *legal.Library
	// Index is set when running without Postgres.
	Index *vector.MemoryIndex
}

// Open connects to Postgres unless PostgresURL is empty, applies the schema,
// and builds the library for the configured collection.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Runtime, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt := &Runtime{
		Cfg:      cfg,
		Log:      log,
		Registry: reg,
		Metrics:  metrics.New(reg),
		Signer:   blob.NewSigner(cfg.PublicBaseURL, cfg.URLSigningSecret),
	}

	if strings.TrimSpace(cfg.PostgresURL) != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		db, err := storage.NewDB(dialCtx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(dialCtx, cfg.EmbedDim); err != nil {
			db.Close()
			return nil, err
		}
		rt.DB = db
	}

	store, err := openStore(cfg, rt.DB, rt.Signer)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = blob.NewRetrying(store, blob.DefaultRetryPolicy(time.Duration(cfg.BlobRetrySeconds)*time.Second), rt.Metrics, log)
	rt.Collection = collection.New(cfg.CollectionID, rt.Store)

	pm, err := providers.NewManager(cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Providers = pm

	var (
		searcher vector.ChunkSearcher
		convos   legal.ConversationStore
	)
	if rt.DB != nil {
		searcher = vector.NewSearcher(rt.DB.Pool)
		convos = storage.NewConversationRepo(rt.DB)
	} else {
		rt.Index = vector.NewMemoryIndex()
		n, err := rt.LoadIndex(ctx)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if n == 0 {
			log.Warn().Str("collection", cfg.CollectionID).Msg("no indexed chunks found; run the indexer before asking questions")
		}
		searcher = rt.Index
		convos = storage.NewMemoryConversations()
	}
	rt.Passages = vector.NewRetriever(cfg.CollectionID, pm, searcher, cfg.EmbedVersion, log)

	rt.Library = legal.NewLibrary(cfg.CollectionID, legal.Deps{
		Documents:     rt.Collection,
		Passages:      rt.Passages,
		Conversations: convos,
		LLM:           pm,
		Metrics:       rt.Metrics,
		Logger:        log,
	}, LibraryOptions(cfg))
	return rt, nil
}

// LoadIndex fills the memory index from the vector index files of every
// document in the catalog. Documents not yet indexed are skipped.
func (r *Runtime) LoadIndex(ctx context.Context) (int, error) {
	if r.Index == nil {
		return 0, nil
	}
	docs, err := r.Collection.Catalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("load memory index: %w", err)
	}
	total := 0
	for _, doc := range docs {
		data, err := r.Collection.ReadIndexFile(ctx, vector.MemoryIndexer, vector.IndexFileName(doc.ID))
		if errors.Is(err, blob.ErrNotFound) {
			continue
		}
		if err != nil {
			return total, fmt.Errorf("load memory index %s: %w", doc.ID, err)
		}
		f, err := vector.DecodeIndexFile(data)
		if err != nil {
			return total, fmt.Errorf("load memory index %s: %w", doc.ID, err)
		}
		total += r.Index.Load(r.Collection.ID(), f)
	}
	r.Log.Info().Str("collection", r.Collection.ID()).Int("docs", len(docs)).Int("chunks", total).Msg("memory index loaded")
	return total, nil
}

func LibraryOptions(cfg config.Config) legal.Options {
	opts := legal.DefaultOptions()
	if cfg.ActCacheTTLSecs > 0 {
		opts.CacheTTL = time.Duration(cfg.ActCacheTTLSecs) * time.Second
	}
	if cfg.ActCacheCapacity > 0 {
		opts.CacheCapacity = cfg.ActCacheCapacity
	}
	if cfg.RetrievalTopK > 0 {
		opts.RetrievalK = cfg.RetrievalTopK
	}
	if cfg.DistinctFileLimit > 0 {
		opts.DistinctFileLimit = cfg.DistinctFileLimit
	}
	return opts
}

func openStore(cfg config.Config, db *storage.DB, signer *blob.Signer) (blob.Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.BlobBackend)) {
	case "", "local":
		return blob.NewLocalStorage(cfg.BlobRoot, signer)
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("blob backend postgres requires a postgres url")
		}
		return blob.NewPostgresStorage(db.Pool, signer), nil
	case "memory":
		return blob.NewMemoryStorage(signer), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func (r *Runtime) Close() {
	if r != nil && r.DB != nil {
		r.DB.Close()
	}
}
