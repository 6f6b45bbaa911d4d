package vector

import (
	"encoding/json"
	"fmt"

	"legalqa/internal/models"
)

// MemoryIndexer names the index artifact directory holding per-document chunk
// vectors. Runtimes without Postgres load their MemoryIndex from it.
const MemoryIndexer = "memory"

type IndexEntry struct {
	ChunkID          string    `json:"chunk_id"`
	ChunkIndex       int       `json:"chunk_index"`
	FileName         string    `json:"file_name"`
	Text             string    `json:"text"`
	TextURL          string    `json:"text_url,omitempty"`
	EmbeddingVersion string    `json:"embedding_version"`
	Vector           []float32 `json:"vector"`
}

// IndexFile holds every embedded chunk of one document.
type IndexFile struct {
	DocumentID string       `json:"document_id"`
	Entries    []IndexEntry `json:"entries"`
}

func IndexFileName(documentID string) string { return documentID + ".json" }

func EncodeIndexFile(f IndexFile) ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode index file %s: %w", f.DocumentID, err)
	}
	return data, nil
}

func DecodeIndexFile(data []byte) (IndexFile, error) {
	var f IndexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return IndexFile{}, fmt.Errorf("decode index file: %w", err)
	}
	return f, nil
}

// Load replaces the chunks of f.DocumentID with the entries of f. Entries
// without a vector are skipped. It returns the number of chunks stored.
func (m *MemoryIndex) Load(collectionID string, f IndexFile) int {
	m.mu.Lock()
	kept := m.chunks[collectionID][:0]
	for _, c := range m.chunks[collectionID] {
		if c.result.DocumentID != f.DocumentID {
			kept = append(kept, c)
		}
	}
	m.chunks[collectionID] = kept
	m.mu.Unlock()

	n := 0
	for _, e := range f.Entries {
		if len(e.Vector) == 0 {
			continue
		}
		m.Add(collectionID, models.Chunk{
			ChunkID:          e.ChunkID,
			DocumentID:       f.DocumentID,
			CollectionID:     collectionID,
			ChunkIndex:       e.ChunkIndex,
			FileName:         e.FileName,
			Text:             e.Text,
			TextURL:          e.TextURL,
			EmbeddingVersion: e.EmbeddingVersion,
		}, e.Vector)
		n++
	}
	return n
}
