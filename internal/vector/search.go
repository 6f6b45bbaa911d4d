package vector

import (
	"context"
	"fmt"
	"strings"

	"legalqa/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

type SearchFilters struct {
	DocumentIDs      []string
	EmbeddingVersion string
}

type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// SearchChunks returns the topK chunks of the collection closest to queryVec
// by cosine distance.
func (s *Searcher) SearchChunks(ctx context.Context, collectionID string, queryVec []float32, topK int, filters SearchFilters) ([]models.ChunkResult, error) {
	if topK <= 0 {
		topK = 10
	}
	args := []any{collectionID, pgvector.NewVector(queryVec), topK}

	filterSQL := ""
	if len(filters.DocumentIDs) > 0 {
		args = append(args, filters.DocumentIDs)
		filterSQL += fmt.Sprintf(" AND c.document_id = ANY($%d)", len(args))
	}
	if v := strings.TrimSpace(filters.EmbeddingVersion); v != "" {
		args = append(args, v)
		filterSQL += fmt.Sprintf(" AND c.embedding_version = $%d", len(args))
	}

	query := `
SELECT c.document_id,
       c.file_name,
       c.chunk_id,
       c.text,
       COALESCE(c.text_url, ''),
       1 - (c.embedding <=> $2::vector) AS score
FROM chunks c
WHERE c.collection_id = $1
  AND c.embedding IS NOT NULL` + filterSQL + `
ORDER BY c.embedding <=> $2::vector
LIMIT $3`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vector search: %w", err)
	}
	defer rows.Close()

	results := make([]models.ChunkResult, 0, topK)
	for rows.Next() {
		var r models.ChunkResult
		if err := rows.Scan(&r.DocumentID, &r.FileName, &r.ChunkID, &r.Text, &r.TextURL, &r.Score); err != nil {
			return nil, fmt.Errorf("scan chunk result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}
	return results, nil
}
