package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"legalqa/internal/blob"
	"legalqa/internal/collection"
	"legalqa/internal/config"
	"legalqa/internal/legal"
	"legalqa/internal/metrics"
	"legalqa/internal/models"
	"legalqa/internal/providers"
	"legalqa/internal/storage"
	"legalqa/internal/util"
	"legalqa/internal/vector"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

// ManifestIndexer names the index artifact directory written by the pipeline.
const ManifestIndexer = "pgvector"

// Activities run the indexing pipeline. Without a database the Postgres
// bookkeeping is skipped and chunk vectors reach only the index files.
type Activities struct {
	cfg          config.Config
	store        blob.Storage
	documentRepo *storage.DocumentRepo
	chunkRepo    *storage.ChunkRepo
	indexRunRepo *storage.IndexRunRepo
	llmAuditRepo *storage.LLMAuditRepo
	providers    *providers.Manager
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

func New(cfg config.Config, db *storage.DB, store blob.Storage, m *metrics.Metrics, log zerolog.Logger) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	a := &Activities{
		cfg:       cfg,
		store:     store,
		providers: pm,
		metrics:   m,
		log:       log.With().Str("component", "activities").Logger(),
	}
	if db != nil {
		a.documentRepo = storage.NewDocumentRepo(db)
		a.chunkRepo = storage.NewChunkRepo(db)
		a.indexRunRepo = storage.NewIndexRunRepo(db)
		a.llmAuditRepo = storage.NewLLMAuditRepo(db)
	}
	return a, nil
}

func (a *Activities) collection(id string) *collection.Collection {
	if id == "" {
		id = a.cfg.CollectionID
	}
	return collection.New(id, a.store)
}

func (a *Activities) ListSourceFilesActivity(ctx context.Context, in ListSourceFilesInput) (ListSourceFilesOutput, error) {
	files, err := a.collection(in.CollectionID).ListFiles(ctx)
	if err != nil {
		return ListSourceFilesOutput{}, err
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if strings.Contains(f, "/") {
			continue
		}
		out = append(out, f)
	}
	return ListSourceFilesOutput{Files: out}, nil
}

// ComputeDocumentIDActivity reuses the id of existing metadata for the file and
// otherwise derives one from the file content.
func (a *Activities) ComputeDocumentIDActivity(ctx context.Context, in ComputeDocumentIDInput) (ComputeDocumentIDOutput, error) {
	coll := a.collection(in.CollectionID)
	doc, ok, err := coll.FindByFileName(ctx, in.FileName)
	if err != nil {
		return ComputeDocumentIDOutput{}, err
	}
	if ok {
		return ComputeDocumentIDOutput{DocumentID: doc.ID}, nil
	}
	data, err := coll.ReadFile(ctx, in.FileName, collection.FormatOriginal)
	if err != nil {
		return ComputeDocumentIDOutput{}, fmt.Errorf("read file for hash: %w", err)
	}
	return ComputeDocumentIDOutput{DocumentID: util.SHA256Hex(data)[:32]}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	data, err := a.collection(in.CollectionID).ReadFile(ctx, in.FileName, collection.FormatOriginal)
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("read source file: %w", err)
	}
	var out ExtractTextOutput
	if strings.EqualFold(path.Ext(in.FileName), ".pdf") {
		out, err = extractPDF(data)
		if err != nil {
			return ExtractTextOutput{}, err
		}
	} else {
		out = ExtractTextOutput{Text: string(data), FirstPage: string(data), Pages: 1}
	}
	out.Text = util.SanitizeText(strings.TrimSpace(out.Text))
	out.FirstPage = util.SanitizeText(out.FirstPage)
	if out.Text == "" {
		return ExtractTextOutput{}, util.ErrNoExtractableText
	}
	return out, nil
}

func extractPDF(data []byte) (ExtractTextOutput, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("open pdf: %w", err)
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return ExtractTextOutput{}, fmt.Errorf("read extracted text: %w", err)
	}
	out := ExtractTextOutput{Text: buf.String(), Pages: r.NumPage()}
	if out.Pages > 0 {
		if p := r.Page(1); !p.V.IsNull() {
			first, err := p.GetPlainText(nil)
			if err == nil {
				out.FirstPage = first
			}
		}
	}
	return out, nil
}

func (a *Activities) WriteTextActivity(ctx context.Context, in WriteTextInput) (WriteTextOutput, error) {
	coll := a.collection(in.CollectionID)
	if err := coll.WriteFile(ctx, in.FileName, collection.FormatText, []byte(in.Text)); err != nil {
		return WriteTextOutput{}, fmt.Errorf("write text: %w", err)
	}
	url, err := coll.PublicURL(ctx, in.FileName, collection.FormatText, blob.LongLived)
	if err != nil {
		a.log.Warn().Err(err).Str("file", in.FileName).Msg("no public url for text file")
		return WriteTextOutput{}, nil
	}
	return WriteTextOutput{TextURL: url}, nil
}

// EnsureDocumentMetadataActivity creates metadata for a file that has none,
// taking the title from the first page. Existing metadata is left untouched.
func (a *Activities) EnsureDocumentMetadataActivity(ctx context.Context, in EnsureDocumentMetadataInput) (EnsureDocumentMetadataOutput, error) {
	coll := a.collection(in.CollectionID)
	doc, err := coll.ReadMetadata(ctx, in.DocumentID)
	if err == nil {
		return EnsureDocumentMetadataOutput{DocumentID: doc.ID, Title: doc.Title}, nil
	}
	if !errors.Is(err, blob.ErrNotFound) {
		return EnsureDocumentMetadataOutput{}, err
	}
	title := legal.ExtractTitle(in.FirstPage)
	if title == "" {
		title = strings.TrimSuffix(in.FileName, path.Ext(in.FileName))
	}
	doc = legal.DocumentMetadata{
		ID:               in.DocumentID,
		Title:            title,
		OriginalFileName: in.FileName,
		OriginalFormat:   strings.TrimPrefix(strings.ToLower(path.Ext(in.FileName)), "."),
	}
	if err := coll.WriteMetadata(ctx, doc); err != nil {
		return EnsureDocumentMetadataOutput{}, err
	}
	return EnsureDocumentMetadataOutput{DocumentID: doc.ID, Title: title, Created: true}, nil
}

func (a *Activities) ChunkTextActivity(ctx context.Context, in ChunkTextInput) (ChunkTextOutput, error) {
	_ = ctx
	if in.ChunkSize <= 0 {
		in.ChunkSize = a.cfg.ChunkSize
	}
	if in.ChunkOverlap < 0 || in.ChunkOverlap >= in.ChunkSize {
		in.ChunkOverlap = a.cfg.ChunkOverlap
	}

	rawChunks := util.ChunkText(in.Text, in.ChunkSize, in.ChunkOverlap)
	chunks := make([]ChunkItem, 0, len(rawChunks))
	for _, part := range rawChunks {
		part = util.SanitizeText(part)
		if part == "" {
			continue
		}
		idx := len(chunks)
		chunkHash := util.SHA256Hex([]byte(part))
		chunkID := util.SHA256Hex([]byte(fmt.Sprintf("%s:%d:%s:%s", in.DocumentID, idx, chunkHash, in.Version)))
		chunks = append(chunks, ChunkItem{
			ChunkID:      chunkID,
			DocumentID:   in.DocumentID,
			CollectionID: in.CollectionID,
			ChunkIndex:   idx,
			FileName:     in.FileName,
			TextURL:      in.TextURL,
			Text:         part,
		})
	}
	return ChunkTextOutput{Chunks: chunks}, nil
}

func (a *Activities) EmbedChunksActivity(ctx context.Context, in EmbedChunksInput) (EmbedChunksOutput, error) {
	inputs := make([]string, 0, len(in.Input))
	for _, c := range in.Input {
		inputs = append(inputs, c.Text)
	}
	provider, _ := a.providers.EmbedProviderByIndex(in.ProviderIndex)
	vectors, info, err := provider.Embed(ctx, providers.EmbedRequest{
		Operation: in.Operation,
		Inputs:    inputs,
		Dimension: a.cfg.EmbedDim,
	})
	a.metrics.ObserveLLMCall(in.Operation, err)
	if err != nil {
		return EmbedChunksOutput{}, err
	}
	if len(vectors) != len(inputs) {
		return EmbedChunksOutput{}, fmt.Errorf("embed provider %s returned %d vectors for %d inputs", info.Name, len(vectors), len(inputs))
	}
	return EmbedChunksOutput{
		Vectors:      vectors,
		ProviderName: info.Name,
		Model:        info.Model,
	}, nil
}

// UpsertChunksActivity writes the document's vector index file and, with a
// database, replaces its chunk rows.
func (a *Activities) UpsertChunksActivity(ctx context.Context, in UpsertChunksInput) error {
	records := make([]storage.ChunkRecord, 0, len(in.Chunks))
	entries := make([]vector.IndexEntry, 0, len(in.Chunks))
	for i, c := range in.Chunks {
		var embedding []float32
		if i < len(in.Vectors) {
			embedding = in.Vectors[i]
		}
		entries = append(entries, vector.IndexEntry{
			ChunkID:          c.ChunkID,
			ChunkIndex:       c.ChunkIndex,
			FileName:         c.FileName,
			Text:             util.SanitizeText(c.Text),
			TextURL:          c.TextURL,
			EmbeddingVersion: in.EmbeddingVersion,
			Vector:           embedding,
		})
		records = append(records, storage.ChunkRecord{
			ChunkID:          c.ChunkID,
			DocumentID:       c.DocumentID,
			CollectionID:     c.CollectionID,
			ChunkIndex:       c.ChunkIndex,
			FileName:         c.FileName,
			Text:             util.SanitizeText(c.Text),
			TextURL:          c.TextURL,
			EmbeddingVersion: in.EmbeddingVersion,
			Embedding:        embedding,
		})
	}
	if in.DocumentID != "" {
		data, err := vector.EncodeIndexFile(vector.IndexFile{DocumentID: in.DocumentID, Entries: entries})
		if err != nil {
			return err
		}
		if err := a.collection(in.CollectionID).WriteIndexFile(ctx, vector.MemoryIndexer, vector.IndexFileName(in.DocumentID), data); err != nil {
			return fmt.Errorf("write vector index file: %w", err)
		}
	}
	if a.chunkRepo == nil {
		return nil
	}
	if err := a.chunkRepo.UpsertChunks(ctx, records); err != nil {
		return err
	}
	if in.DocumentID == "" {
		return nil
	}
	return a.chunkRepo.DeleteStaleChunks(ctx, in.DocumentID, len(records))
}

func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateDocumentStatusInput) error {
	if a.documentRepo == nil {
		if in.Status != storage.DocumentStatusPending {
			a.metrics.DocumentIndexed(in.Status)
		}
		return nil
	}
	if in.Status == storage.DocumentStatusPending {
		return a.documentRepo.UpsertDocument(ctx, models.IndexedDocument{
			DocumentID:   in.DocumentID,
			CollectionID: in.CollectionID,
			FileName:     in.FileName,
			Title:        in.Title,
			Status:       in.Status,
		})
	}
	if err := a.documentRepo.UpdateStatus(ctx, in.DocumentID, in.Status, in.FailReason, in.ChunkCount); err != nil {
		return err
	}
	a.metrics.DocumentIndexed(in.Status)
	return nil
}

func (a *Activities) LogLLMCallActivity(ctx context.Context, in LogLLMCallInput) error {
	if a.llmAuditRepo == nil {
		return nil
	}
	return a.llmAuditRepo.Insert(ctx, storage.LLMCallRecord{
		CallID:       in.CallID,
		Operation:    in.Operation,
		CollectionID: in.CollectionID,
		DocumentID:   in.DocumentID,
		ProviderName: in.ProviderName,
		Model:        in.Model,
		RequestID:    in.RequestID,
		Status:       in.Status,
		ErrorType:    in.ErrorType,
	})
}

func (a *Activities) StartIndexRunActivity(ctx context.Context, in StartIndexRunInput) (StartIndexRunOutput, error) {
	if a.indexRunRepo == nil {
		return StartIndexRunOutput{}, nil
	}
	run, err := a.indexRunRepo.CreateRun(ctx, in.CollectionID, in.WorkflowID, in.Total)
	if err != nil {
		return StartIndexRunOutput{}, err
	}
	return StartIndexRunOutput{RunID: run.RunID}, nil
}

func (a *Activities) FinishIndexRunActivity(ctx context.Context, in FinishIndexRunInput) error {
	if a.indexRunRepo == nil || in.RunID == "" {
		return nil
	}
	return a.indexRunRepo.FinishRun(ctx, in.RunID, in.Done, in.Failed)
}

func (a *Activities) WriteIndexManifestActivity(ctx context.Context, in WriteIndexManifestInput) (WriteIndexManifestOutput, error) {
	data, err := json.MarshalIndent(in.Manifest, "", "  ")
	if err != nil {
		return WriteIndexManifestOutput{}, fmt.Errorf("encode index manifest: %w", err)
	}
	coll := a.collection(in.CollectionID)
	if err := coll.WriteIndexFile(ctx, ManifestIndexer, "manifest.json", data); err != nil {
		return WriteIndexManifestOutput{}, fmt.Errorf("write index manifest: %w", err)
	}
	return WriteIndexManifestOutput{Path: path.Join(coll.ID(), "indexes", ManifestIndexer, "manifest.json")}, nil
}
