package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"legalqa/internal/models"
)

// MemoryIndex is a brute-force cosine index with the same contract as
// Searcher, for local mode and tests.
type MemoryIndex struct {
	mu     sync.RWMutex
	chunks map[string][]memoryChunk
}

type memoryChunk struct {
	result  models.ChunkResult
	version string
	vec     []float32
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{chunks: map[string][]memoryChunk{}}
}

// Add stores a chunk, replacing any chunk with the same id in the collection.
func (m *MemoryIndex) Add(collectionID string, c models.Chunk, vec []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryChunk{
		result: models.ChunkResult{
			DocumentID: c.DocumentID,
			FileName:   c.FileName,
			ChunkID:    c.ChunkID,
			Text:       c.Text,
			TextURL:    c.TextURL,
		},
		version: c.EmbeddingVersion,
		vec:     append([]float32(nil), vec...),
	}
	list := m.chunks[collectionID]
	for i := range list {
		if list[i].result.ChunkID == c.ChunkID {
			list[i] = entry
			return
		}
	}
	m.chunks[collectionID] = append(list, entry)
}

func (m *MemoryIndex) Len(collectionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks[collectionID])
}

func (m *MemoryIndex) SearchChunks(_ context.Context, collectionID string, queryVec []float32, topK int, filters SearchFilters) ([]models.ChunkResult, error) {
	if topK <= 0 {
		topK = 10
	}
	allowed := map[string]bool{}
	for _, id := range filters.DocumentIDs {
		allowed[id] = true
	}
	m.mu.RLock()
	list := m.chunks[collectionID]
	results := make([]models.ChunkResult, 0, len(list))
	for _, c := range list {
		if len(allowed) > 0 && !allowed[c.result.DocumentID] {
			continue
		}
		if filters.EmbeddingVersion != "" && c.version != filters.EmbeddingVersion {
			continue
		}
		r := c.result
		r.Score = Cosine(queryVec, c.vec)
		results = append(results, r)
	}
	m.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is empty
// or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
