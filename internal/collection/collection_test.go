package collection

import (
	"context"
	"testing"

	"legalqa/internal/blob"
	"legalqa/internal/legal"

	"github.com/stretchr/testify/require"
)

func newTestCollection(t *testing.T) (*Collection, *blob.MemoryStorage) {
	t.Helper()
	store := blob.NewMemoryStorage(blob.NewSigner("http://localhost:8080", "k"))
	return New("legal", store), store
}

func TestCatalogOrderedByID(t *testing.T) {
	c, _ := newTestCollection(t)
	ctx := context.Background()
	for _, id := range []string{"doc-b", "doc-a", "doc-c"} {
		require.NoError(t, c.WriteMetadata(ctx, legal.DocumentMetadata{
			ID:               id,
			Title:            "Title " + id,
			OriginalFileName: id + ".pdf",
			Legal:            legal.LegalFields{ActNo: "1", ActYear: "2000", Jurisdiction: "center"},
		}))
	}
	docs, err := c.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, []string{"doc-a", "doc-b", "doc-c"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
	require.Equal(t, "center", docs[0].Legal.Jurisdiction)

	found, ok, err := c.FindByFileName(ctx, "doc-c.pdf")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "doc-c", found.ID)
}

func TestFilesAndFormats(t *testing.T) {
	c, store := newTestCollection(t)
	ctx := context.Background()
	require.NoError(t, store.WriteFile(ctx, "legal/files/mv-act.pdf", []byte("%PDF")))
	require.NoError(t, c.WriteFile(ctx, "mv-act.pdf", FormatText, []byte("Section 5")))

	names, err := c.ListFiles(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"mv-act.pdf"}, names)

	text, err := c.ReadFile(ctx, "mv-act.pdf", FormatText)
	require.NoError(t, err)
	require.Equal(t, "Section 5", string(text))

	ok, err := store.FileExists(ctx, "legal/text/mv-act.pdf.txt")
	require.NoError(t, err)
	require.True(t, ok)

	u, err := c.PublicURL(ctx, "mv-act.pdf", FormatText, blob.LongLived)
	require.NoError(t, err)
	require.Contains(t, u, "/files/legal/text/mv-act.pdf.txt?")
}

func TestSectionIndex(t *testing.T) {
	c, store := newTestCollection(t)
	ctx := context.Background()

	_, err := c.SectionIndex(ctx, "mv-act")
	require.ErrorIs(t, err, blob.ErrNotFound)

	require.NoError(t, store.WriteFile(ctx, "legal/sections/mv-act.json", []byte(`[
  {"Section number": "5", "Full section name": "5. Responsibility of owners", "Section name": "Responsibility of owners", "Start page": 3}
]`)))
	recs, err := c.SectionIndex(ctx, "mv-act")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, 3, recs[0].StartPage)

	require.NoError(t, c.WriteSectionIndex(ctx, "mv-rules", []legal.SectionRecord{{Number: "2", FullName: "2. Definitions", Name: "Definitions", StartPage: 1}}))
	recs, err = c.SectionIndex(ctx, "mv-rules")
	require.NoError(t, err)
	require.Equal(t, "Definitions", recs[0].Name)
}

func TestIndexFiles(t *testing.T) {
	c, _ := newTestCollection(t)
	ctx := context.Background()
	require.NoError(t, c.WriteIndexFile(ctx, "pgvector", "manifest.json", []byte(`{}`)))
	data, err := c.ReadIndexFile(ctx, "pgvector", "manifest.json")
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
}
