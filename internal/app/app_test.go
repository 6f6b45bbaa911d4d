package app

import (
	"context"
	"testing"
	"time"

	"legalqa/internal/activities"
	"legalqa/internal/blob"
	"legalqa/internal/collection"
	"legalqa/internal/config"
	"legalqa/internal/legal"
	"legalqa/internal/vector"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	cfg := config.Defaults()
	cfg.PostgresURL = ""
	cfg.BlobBackend = "memory"
	cfg.EmbedDim = 8
	return cfg
}

func TestOpenWithoutPostgres(t *testing.T) {
	ctx := context.Background()
	rt, err := Open(ctx, memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer rt.Close()
	require.Nil(t, rt.DB)
	require.NotNil(t, rt.Index)

	require.NoError(t, rt.Collection.WriteMetadata(ctx, legal.DocumentMetadata{
		ID:    "mv-act",
		Title: "Motor Vehicles Act",
		Legal: legal.LegalFields{ActNo: "59", ActYear: "1988", Jurisdiction: "center"},
	}))
	catalog, err := rt.Library.ActCatalog(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, catalog.Len())
}

// indexLocally runs the chunk, embed and upsert activities without a database
// against the local blob root of cfg.
func indexLocally(t *testing.T, cfg config.Config, docID, fileName string, texts ...string) {
	t.Helper()
	ctx := context.Background()
	store, err := blob.NewLocalStorage(cfg.BlobRoot, blob.NewSigner(cfg.PublicBaseURL, cfg.URLSigningSecret))
	require.NoError(t, err)
	a, err := activities.New(cfg, nil, store, nil, zerolog.Nop())
	require.NoError(t, err)

	chunks := make([]activities.ChunkItem, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, activities.ChunkItem{
			ChunkID:      docID + "-" + string(rune('a'+i)),
			DocumentID:   docID,
			CollectionID: cfg.CollectionID,
			ChunkIndex:   i,
			FileName:     fileName,
			Text:         text,
		})
	}
	embedded, err := a.EmbedChunksActivity(ctx, activities.EmbedChunksInput{Operation: "embed", Input: chunks})
	require.NoError(t, err)
	require.NoError(t, a.UpsertChunksActivity(ctx, activities.UpsertChunksInput{
		DocumentID:       docID,
		CollectionID:     cfg.CollectionID,
		Chunks:           chunks,
		Vectors:          embedded.Vectors,
		EmbeddingVersion: cfg.EmbedVersion,
	}))
}

func TestOpenLoadsIndexedChunksWithoutPostgres(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	cfg.BlobBackend = "local"
	cfg.BlobRoot = t.TempDir()
	cfg.CollectionID = "acts"

	store, err := blob.NewLocalStorage(cfg.BlobRoot, nil)
	require.NoError(t, err)
	coll := collection.New("acts", store)
	require.NoError(t, coll.WriteMetadata(ctx, legal.DocumentMetadata{ID: "mv-act", Title: "Motor Vehicles Act", OriginalFileName: "mv_act.pdf"}))
	require.NoError(t, coll.WriteMetadata(ctx, legal.DocumentMetadata{ID: "ipc", Title: "Indian Penal Code", OriginalFileName: "ipc.pdf"}))

	licence := "3. Necessity for driving licence. No person shall drive a motor vehicle in any public place unless he holds an effective driving licence."
	indexLocally(t, cfg, "mv-act", "mv_act.pdf",
		licence,
		"4. Age limit in connection with driving of motor vehicles. No person under the age of eighteen years shall drive a motor vehicle in any public place.",
	)

	rt, err := Open(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	defer rt.Close()
	require.Equal(t, 2, rt.Index.Len("acts"))

	passages, err := rt.Passages.SearchPassages(ctx, licence, 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	require.Equal(t, "mv_act.pdf", passages[0].FileName)
	require.Equal(t, licence, passages[0].Text)
	require.InDelta(t, 1.0, passages[0].Score, 1e-6)
}

func TestOpenFailsOnCorruptIndexFile(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	cfg.BlobBackend = "local"
	cfg.BlobRoot = t.TempDir()
	cfg.CollectionID = "acts"

	store, err := blob.NewLocalStorage(cfg.BlobRoot, nil)
	require.NoError(t, err)
	coll := collection.New("acts", store)
	require.NoError(t, coll.WriteMetadata(ctx, legal.DocumentMetadata{ID: "mv-act", Title: "Motor Vehicles Act"}))
	require.NoError(t, coll.WriteIndexFile(ctx, vector.MemoryIndexer, vector.IndexFileName("mv-act"), []byte("{")))

	_, err = Open(ctx, cfg, zerolog.Nop())
	require.ErrorContains(t, err, "load memory index mv-act")
}

func TestOpenRejectsPostgresBlobsWithoutDatabase(t *testing.T) {
	cfg := memoryConfig()
	cfg.BlobBackend = "postgres"
	_, err := Open(context.Background(), cfg, zerolog.Nop())
	require.ErrorContains(t, err, "requires a postgres url")

	cfg.BlobBackend = "s3"
	_, err = Open(context.Background(), cfg, zerolog.Nop())
	require.ErrorContains(t, err, "unknown blob backend")
}

func TestLibraryOptionsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.ActCacheTTLSecs = 60
	cfg.RetrievalTopK = 4
	opts := LibraryOptions(cfg)
	require.Equal(t, time.Minute, opts.CacheTTL)
	require.Equal(t, 2, opts.CacheCapacity)
	require.Equal(t, 4, opts.RetrievalK)
	require.Equal(t, 5, opts.DistinctFileLimit)
}
