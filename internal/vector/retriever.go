package vector

import (
	"context"
	"fmt"

	"legalqa/internal/legal"
	"legalqa/internal/models"
	"legalqa/internal/providers"

	"github.com/rs/zerolog"
)

// ChunkSearcher is satisfied by Searcher and MemoryIndex.
type ChunkSearcher interface {
	SearchChunks(ctx context.Context, collectionID string, queryVec []float32, topK int, filters SearchFilters) ([]models.ChunkResult, error)
}

// Retriever embeds a query and returns the nearest passages of one collection.
type Retriever struct {
	collectionID     string
	embedder         providers.EmbeddingProvider
	searcher         ChunkSearcher
	embeddingVersion string
	log              zerolog.Logger
}

func NewRetriever(collectionID string, embedder providers.EmbeddingProvider, searcher ChunkSearcher, embeddingVersion string, log zerolog.Logger) *Retriever {
	return &Retriever{
		collectionID:     collectionID,
		embedder:         embedder,
		searcher:         searcher,
		embeddingVersion: embeddingVersion,
		log:              log.With().Str("component", "retriever").Logger(),
	}
}

func (r *Retriever) SearchPassages(ctx context.Context, query string, k int) ([]legal.Passage, error) {
	vectors, info, err := r.embedder.Embed(ctx, providers.EmbedRequest{Operation: "query_embed", Inputs: []string{query}})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: expected 1 vector, got %d", len(vectors))
	}
	chunks, err := r.searcher.SearchChunks(ctx, r.collectionID, vectors[0], k, SearchFilters{EmbeddingVersion: r.embeddingVersion})
	if err != nil {
		return nil, err
	}
	r.log.Debug().Str("provider", info.Name).Int("k", k).Int("hits", len(chunks)).Msg("passages retrieved")
	out := make([]legal.Passage, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, legal.Passage{FileName: c.FileName, Text: c.Text, TextURL: c.TextURL, Score: c.Score})
	}
	return out, nil
}
