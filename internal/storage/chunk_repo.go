package storage

import (
	"context"
	"fmt"

	"legalqa/internal/models"
	"legalqa/internal/util"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

type ChunkRecord struct {
	ChunkID          string
	DocumentID       string
	CollectionID     string
	ChunkIndex       int
	FileName         string
	Text             string
	TextURL          string
	EmbeddingVersion string
	Embedding        []float32
}

type ChunkRepo struct {
	db *DB
}

func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

const upsertChunkSQL = `
INSERT INTO chunks (chunk_id, document_id, collection_id, chunk_index, file_name, text, text_url, embedding_version, embedding)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), $8, $9)
ON CONFLICT (chunk_id)
DO UPDATE SET
  file_name = EXCLUDED.file_name,
  text = EXCLUDED.text,
  text_url = EXCLUDED.text_url,
  embedding_version = EXCLUDED.embedding_version,
  embedding = COALESCE(EXCLUDED.embedding, chunks.embedding)`

// UpsertChunks writes all chunks of a batch in one transaction. A chunk
// without an embedding keeps the vector already stored for it.
func (r *ChunkRepo) UpsertChunks(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range chunks {
			var embedding any
			if len(c.Embedding) > 0 {
				embedding = pgvector.NewVector(c.Embedding)
			}
			batch.Queue(upsertChunkSQL,
				c.ChunkID, c.DocumentID, c.CollectionID, c.ChunkIndex, c.FileName,
				util.SanitizeText(c.Text), c.TextURL, c.EmbeddingVersion, embedding)
		}
		br := tx.SendBatch(ctx, batch)
		for _, c := range chunks {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("upsert chunk %s: %w", c.ChunkID, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close chunk batch: %w", err)
		}
		return nil
	})
}

// DeleteStaleChunks removes chunks of a document beyond keep, left over from
// an earlier indexing pass over a longer text.
func (r *ChunkRepo) DeleteStaleChunks(ctx context.Context, documentID string, keep int) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM chunks WHERE document_id=$1 AND chunk_index >= $2`, documentID, keep)
	if err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}
	return nil
}

func (r *ChunkRepo) ListChunksByDocument(ctx context.Context, collectionID, documentID string) ([]models.Chunk, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT chunk_id, document_id, collection_id, chunk_index, file_name, text, COALESCE(text_url,''), embedding_version, created_at
FROM chunks
WHERE collection_id=$1 AND document_id=$2
ORDER BY chunk_index ASC`, collectionID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list chunks by document: %w", err)
	}
	defer rows.Close()
	out := make([]models.Chunk, 0, 64)
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ChunkID, &c.DocumentID, &c.CollectionID, &c.ChunkIndex, &c.FileName, &c.Text, &c.TextURL, &c.EmbeddingVersion, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk by document: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk by document: %w", err)
	}
	return out, nil
}
