package activities

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"legalqa/internal/blob"
	"legalqa/internal/collection"
	"legalqa/internal/config"
	"legalqa/internal/legal"
	"legalqa/internal/util"
	"legalqa/internal/vector"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestActivities(t *testing.T) (*Activities, *collection.Collection) {
	t.Helper()
	cfg := config.Defaults()
	cfg.CollectionID = "acts"
	cfg.EmbedDim = 8
	store := blob.NewMemoryStorage(blob.NewSigner("http://files.test", "secret"))
	a, err := New(cfg, nil, store, nil, zerolog.Nop())
	require.NoError(t, err)
	return a, collection.New("acts", store)
}

func TestListSourceFilesSkipsNested(t *testing.T) {
	ctx := context.Background()
	a, coll := newTestActivities(t)
	require.NoError(t, coll.WriteFile(ctx, "b.txt", collection.FormatOriginal, []byte("b")))
	require.NoError(t, coll.WriteFile(ctx, "a.pdf", collection.FormatOriginal, []byte("a")))
	require.NoError(t, coll.WriteFile(ctx, "drafts/c.txt", collection.FormatOriginal, []byte("c")))

	out, err := a.ListSourceFilesActivity(ctx, ListSourceFilesInput{})
	require.NoError(t, err)
	require.Equal(t, []string{"a.pdf", "b.txt"}, out.Files)
}

func TestComputeDocumentIDPrefersExistingMetadata(t *testing.T) {
	ctx := context.Background()
	a, coll := newTestActivities(t)
	require.NoError(t, coll.WriteFile(ctx, "mv.txt", collection.FormatOriginal, []byte("motor vehicles")))
	require.NoError(t, coll.WriteFile(ctx, "ipc.txt", collection.FormatOriginal, []byte("penal code")))
	require.NoError(t, coll.WriteMetadata(ctx, legal.DocumentMetadata{ID: "mv-act", Title: "Motor Vehicles Act", OriginalFileName: "mv.txt"}))

	out, err := a.ComputeDocumentIDActivity(ctx, ComputeDocumentIDInput{CollectionID: "acts", FileName: "mv.txt"})
	require.NoError(t, err)
	require.Equal(t, "mv-act", out.DocumentID)

	out, err = a.ComputeDocumentIDActivity(ctx, ComputeDocumentIDInput{CollectionID: "acts", FileName: "ipc.txt"})
	require.NoError(t, err)
	require.Equal(t, util.SHA256Hex([]byte("penal code"))[:32], out.DocumentID)
}

func TestExtractTextPlainAndEmpty(t *testing.T) {
	ctx := context.Background()
	a, coll := newTestActivities(t)
	require.NoError(t, coll.WriteFile(ctx, "act.txt", collection.FormatOriginal, []byte("  THE MOTOR VEHICLES ACT\x00, 1988\n\nSection 1 ")))
	require.NoError(t, coll.WriteFile(ctx, "blank.txt", collection.FormatOriginal, []byte(" \n\t ")))

	out, err := a.ExtractTextActivity(ctx, ExtractTextInput{FileName: "act.txt"})
	require.NoError(t, err)
	require.Equal(t, "THE MOTOR VEHICLES ACT, 1988\n\nSection 1", out.Text)
	require.Equal(t, 1, out.Pages)

	_, err = a.ExtractTextActivity(ctx, ExtractTextInput{FileName: "blank.txt"})
	require.ErrorIs(t, err, util.ErrNoExtractableText)

	_, err = a.ExtractTextActivity(ctx, ExtractTextInput{FileName: "missing.txt"})
	require.ErrorIs(t, err, blob.ErrNotFound)
}

func TestExtractTextRejectsBrokenPDF(t *testing.T) {
	ctx := context.Background()
	a, coll := newTestActivities(t)
	require.NoError(t, coll.WriteFile(ctx, "broken.pdf", collection.FormatOriginal, []byte("not a pdf")))
	_, err := a.ExtractTextActivity(ctx, ExtractTextInput{FileName: "broken.pdf"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "open pdf")
}

func TestWriteTextReturnsSignedURL(t *testing.T) {
	ctx := context.Background()
	a, coll := newTestActivities(t)
	out, err := a.WriteTextActivity(ctx, WriteTextInput{FileName: "act.pdf", Text: "body"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out.TextURL, "http://files.test/files/acts/text/act.pdf.txt?"))

	data, err := coll.ReadFile(ctx, "act.pdf", collection.FormatText)
	require.NoError(t, err)
	require.Equal(t, "body", string(data))
}

func TestEnsureDocumentMetadata(t *testing.T) {
	ctx := context.Background()
	a, coll := newTestActivities(t)

	out, err := a.EnsureDocumentMetadataActivity(ctx, EnsureDocumentMetadataInput{
		DocumentID: "doc1",
		FileName:   "mv_act.pdf",
		FirstPage:  "THE MOTOR VEHICLES ACT, 1988\n\nARRANGEMENT OF SECTIONS\nCHAPTER I",
	})
	require.NoError(t, err)
	require.True(t, out.Created)
	require.Equal(t, "THE MOTOR VEHICLES ACT, 1988", out.Title)

	doc, err := coll.ReadMetadata(ctx, "doc1")
	require.NoError(t, err)
	require.Equal(t, "mv_act.pdf", doc.OriginalFileName)
	require.Equal(t, "pdf", doc.OriginalFormat)

	out, err = a.EnsureDocumentMetadataActivity(ctx, EnsureDocumentMetadataInput{DocumentID: "doc1", FileName: "mv_act.pdf", FirstPage: "other"})
	require.NoError(t, err)
	require.False(t, out.Created)
	require.Equal(t, "THE MOTOR VEHICLES ACT, 1988", out.Title)

	out, err = a.EnsureDocumentMetadataActivity(ctx, EnsureDocumentMetadataInput{DocumentID: "doc2", FileName: "rules.txt"})
	require.NoError(t, err)
	require.Equal(t, "rules", out.Title)
}

func TestChunkTextCarriesFileAndURL(t *testing.T) {
	a, _ := newTestActivities(t)
	out, err := a.ChunkTextActivity(context.Background(), ChunkTextInput{
		DocumentID:   "doc1",
		CollectionID: "acts",
		FileName:     "act.pdf",
		TextURL:      "http://files.test/x",
		Text:         strings.Repeat("a", 10) + strings.Repeat(" ", 10) + strings.Repeat("b", 5),
		ChunkSize:    10,
		Version:      "v1",
	})
	require.NoError(t, err)
	require.Len(t, out.Chunks, 2)
	for i, c := range out.Chunks {
		require.Equal(t, i, c.ChunkIndex)
		require.Equal(t, "act.pdf", c.FileName)
		require.Equal(t, "http://files.test/x", c.TextURL)
		require.Len(t, c.ChunkID, 64)
	}
	require.NotEqual(t, out.Chunks[0].ChunkID, out.Chunks[1].ChunkID)
}

func TestEmbedChunksWithMockProvider(t *testing.T) {
	a, _ := newTestActivities(t)
	out, err := a.EmbedChunksActivity(context.Background(), EmbedChunksInput{
		Operation: "embed",
		Input:     []ChunkItem{{Text: "one"}, {Text: "two"}},
	})
	require.NoError(t, err)
	require.Equal(t, "mock", out.ProviderName)
	require.Len(t, out.Vectors, 2)
	require.Len(t, out.Vectors[0], 8)
}

func TestWriteIndexManifest(t *testing.T) {
	ctx := context.Background()
	a, coll := newTestActivities(t)
	out, err := a.WriteIndexManifestActivity(ctx, WriteIndexManifestInput{Manifest: map[string]any{"total": 2}})
	require.NoError(t, err)
	require.Equal(t, "acts/indexes/pgvector/manifest.json", out.Path)

	data, err := coll.ReadIndexFile(ctx, ManifestIndexer, "manifest.json")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.EqualValues(t, 2, got["total"])
}

func TestUpsertChunksWithoutDatabaseWritesIndexFile(t *testing.T) {
	ctx := context.Background()
	a, coll := newTestActivities(t)
	chunks, err := a.ChunkTextActivity(ctx, ChunkTextInput{
		DocumentID:   "mv-act",
		CollectionID: "acts",
		FileName:     "mv_act.pdf",
		Text:         "3. Necessity for driving licence. No person shall drive a motor vehicle in any public place unless he holds an effective driving licence.",
		ChunkSize:    64,
		Version:      "v1",
	})
	require.NoError(t, err)
	require.Greater(t, len(chunks.Chunks), 1)
	embedded, err := a.EmbedChunksActivity(ctx, EmbedChunksInput{Operation: "embed", Input: chunks.Chunks})
	require.NoError(t, err)

	require.NoError(t, a.UpsertChunksActivity(ctx, UpsertChunksInput{
		DocumentID:       "mv-act",
		CollectionID:     "acts",
		Chunks:           chunks.Chunks,
		Vectors:          embedded.Vectors,
		EmbeddingVersion: "v1",
	}))

	data, err := coll.ReadIndexFile(ctx, vector.MemoryIndexer, vector.IndexFileName("mv-act"))
	require.NoError(t, err)
	f, err := vector.DecodeIndexFile(data)
	require.NoError(t, err)
	require.Equal(t, "mv-act", f.DocumentID)
	require.Len(t, f.Entries, len(chunks.Chunks))
	for i, e := range f.Entries {
		require.Equal(t, chunks.Chunks[i].ChunkID, e.ChunkID)
		require.Equal(t, "v1", e.EmbeddingVersion)
		require.Equal(t, embedded.Vectors[i], e.Vector)
	}

	run, err := a.StartIndexRunActivity(ctx, StartIndexRunInput{CollectionID: "acts", Total: 1})
	require.NoError(t, err)
	require.Empty(t, run.RunID)
	require.NoError(t, a.FinishIndexRunActivity(ctx, FinishIndexRunInput{RunID: run.RunID, Done: 1}))
	require.NoError(t, a.UpdateDocumentStatusActivity(ctx, UpdateDocumentStatusInput{DocumentID: "mv-act", Status: "indexed"}))
	require.NoError(t, a.LogLLMCallActivity(ctx, LogLLMCallInput{CallID: "c1", Operation: "embed"}))
}
