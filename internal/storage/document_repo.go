package storage

import (
	"context"
	"errors"
	"fmt"

	"legalqa/internal/models"

	"github.com/jackc/pgx/v5"
)

const (
	DocumentStatusPending = "PENDING"
	DocumentStatusIndexed = "INDEXED"
	DocumentStatusFailed  = "FAILED"
)

var ErrDocumentNotFound = errors.New("document not found")

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) UpsertDocument(ctx context.Context, d models.IndexedDocument) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents(document_id, collection_id, file_name, title, status)
VALUES ($1, $2, $3, NULLIF($4,''), $5)
ON CONFLICT (document_id)
DO UPDATE SET
  file_name = EXCLUDED.file_name,
  title = COALESCE(EXCLUDED.title, documents.title),
  status = EXCLUDED.status,
  fail_reason = NULL,
  updated_at = NOW()`,
		d.DocumentID, d.CollectionID, d.FileName, d.Title, d.Status)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) UpdateStatus(ctx context.Context, documentID, status, failReason string, chunkCount int) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE documents
SET status=$2, fail_reason=NULLIF($3,''), chunk_count=$4, updated_at=NOW()
WHERE document_id=$1`, documentID, status, failReason, chunkCount)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update document status %s: %w", documentID, ErrDocumentNotFound)
	}
	return nil
}

func (r *DocumentRepo) GetDocument(ctx context.Context, documentID string) (models.IndexedDocument, error) {
	var d models.IndexedDocument
	err := r.db.Pool.QueryRow(ctx, `
SELECT document_id, collection_id, file_name, COALESCE(title,''), status, COALESCE(fail_reason,''), chunk_count, created_at, updated_at
FROM documents WHERE document_id=$1`, documentID).
		Scan(&d.DocumentID, &d.CollectionID, &d.FileName, &d.Title, &d.Status, &d.FailReason, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.IndexedDocument{}, fmt.Errorf("get document %s: %w", documentID, ErrDocumentNotFound)
		}
		return models.IndexedDocument{}, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

func (r *DocumentRepo) ListDocuments(ctx context.Context, collectionID string) ([]models.IndexedDocument, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT document_id, collection_id, file_name, COALESCE(title,''), status, COALESCE(fail_reason,''), chunk_count, created_at, updated_at
FROM documents
WHERE collection_id=$1
ORDER BY file_name ASC`, collectionID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	out := make([]models.IndexedDocument, 0, 32)
	for rows.Next() {
		var d models.IndexedDocument
		if err := rows.Scan(&d.DocumentID, &d.CollectionID, &d.FileName, &d.Title, &d.Status, &d.FailReason, &d.ChunkCount, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
