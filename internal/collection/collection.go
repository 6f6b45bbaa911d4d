// Package collection lays out one legal document collection inside a blob
// namespace:
//
//	<id>/files/<name>            source files
//	<id>/text/<name>.txt         extracted text
//	<id>/metadata/<docID>.json   document metadata
//	<id>/sections/<docID>.json   section index
//	<id>/indexes/<indexer>/<f>   index artifacts
package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"legalqa/internal/blob"
	"legalqa/internal/legal"
)

type Format string

const (
	FormatOriginal Format = "original"
	FormatText     Format = "text"
)

type Collection struct {
	id    string
	store blob.Storage
}

func New(id string, store blob.Storage) *Collection {
	return &Collection{id: id, store: store}
}

func (c *Collection) ID() string { return c.id }

func (c *Collection) key(parts ...string) string {
	return path.Join(append([]string{c.id}, parts...)...)
}

// FilePath returns the storage key of name in the given format.
func (c *Collection) FilePath(name string, format Format) string {
	if format == FormatText {
		return c.key("text", name+".txt")
	}
	return c.key("files", name)
}

// ListFiles returns the source file names, sorted.
func (c *Collection) ListFiles(ctx context.Context) ([]string, error) {
	names, err := c.store.ListFiles(ctx, c.key("files"))
	if err != nil {
		return nil, fmt.Errorf("list collection files: %w", err)
	}
	return names, nil
}

func (c *Collection) ReadFile(ctx context.Context, name string, format Format) ([]byte, error) {
	return c.store.ReadFile(ctx, c.FilePath(name, format))
}

func (c *Collection) WriteFile(ctx context.Context, name string, format Format, data []byte) error {
	return c.store.WriteFile(ctx, c.FilePath(name, format), data)
}

func (c *Collection) PublicURL(ctx context.Context, name string, format Format, scope blob.URLScope) (string, error) {
	return c.store.PublicURL(ctx, c.FilePath(name, format), scope)
}

// Catalog returns all document metadata ordered by document id.
func (c *Collection) Catalog(ctx context.Context) ([]legal.DocumentMetadata, error) {
	names, err := c.store.ListFiles(ctx, c.key("metadata"))
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	out := make([]legal.DocumentMetadata, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, ".json") || strings.Contains(name, "/") {
			continue
		}
		doc, err := c.ReadMetadata(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Collection) ReadMetadata(ctx context.Context, docID string) (legal.DocumentMetadata, error) {
	data, err := c.store.ReadFile(ctx, c.key("metadata", docID+".json"))
	if err != nil {
		return legal.DocumentMetadata{}, fmt.Errorf("read metadata %s: %w", docID, err)
	}
	var doc legal.DocumentMetadata
	if err := json.Unmarshal(data, &doc); err != nil {
		return legal.DocumentMetadata{}, fmt.Errorf("decode metadata %s: %w", docID, err)
	}
	if doc.ID == "" {
		doc.ID = docID
	}
	return doc, nil
}

func (c *Collection) WriteMetadata(ctx context.Context, doc legal.DocumentMetadata) error {
	if doc.ID == "" {
		return fmt.Errorf("write metadata: empty document id")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata %s: %w", doc.ID, err)
	}
	return c.store.WriteFile(ctx, c.key("metadata", doc.ID+".json"), data)
}

// FindByFileName returns the document whose original file is name.
func (c *Collection) FindByFileName(ctx context.Context, name string) (legal.DocumentMetadata, bool, error) {
	docs, err := c.Catalog(ctx)
	if err != nil {
		return legal.DocumentMetadata{}, false, err
	}
	for _, d := range docs {
		if d.OriginalFileName == name {
			return d, true, nil
		}
	}
	return legal.DocumentMetadata{}, false, nil
}

// SectionIndex reads and decodes sections/<docID>.json. A missing index
// yields an error matching blob.ErrNotFound.
func (c *Collection) SectionIndex(ctx context.Context, docID string) ([]legal.SectionRecord, error) {
	data, err := c.store.ReadFile(ctx, c.key("sections", docID+".json"))
	if err != nil {
		return nil, err
	}
	return legal.DecodeSectionIndex(data)
}

func (c *Collection) WriteSectionIndex(ctx context.Context, docID string, records []legal.SectionRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sections %s: %w", docID, err)
	}
	return c.store.WriteFile(ctx, c.key("sections", docID+".json"), data)
}

func (c *Collection) WriteIndexFile(ctx context.Context, indexer, name string, data []byte) error {
	return c.store.WriteFile(ctx, c.key("indexes", indexer, name), data)
}

func (c *Collection) ReadIndexFile(ctx context.Context, indexer, name string) ([]byte, error) {
	return c.store.ReadFile(ctx, c.key("indexes", indexer, name))
}
