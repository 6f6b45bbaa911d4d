package storage

import (
	"context"
	"errors"
	"fmt"

	"legalqa/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	IndexRunRunning   = "RUNNING"
	IndexRunCompleted = "COMPLETED"
	IndexRunPartial   = "PARTIAL"
)

var ErrIndexRunNotFound = errors.New("index run not found")

type IndexRunRepo struct {
	db *DB
}

func NewIndexRunRepo(db *DB) *IndexRunRepo {
	return &IndexRunRepo{db: db}
}

func (r *IndexRunRepo) CreateRun(ctx context.Context, collectionID, workflowID string, total int) (models.IndexRun, error) {
	run := models.IndexRun{
		RunID:        uuid.NewString(),
		CollectionID: collectionID,
		WorkflowID:   workflowID,
		Status:       IndexRunRunning,
		Total:        total,
	}
	err := r.db.Pool.QueryRow(ctx, `
INSERT INTO index_runs(run_id, collection_id, workflow_id, status, total)
VALUES ($1::uuid, $2, $3, $4, $5)
RETURNING created_at, updated_at`,
		run.RunID, run.CollectionID, run.WorkflowID, run.Status, run.Total).Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return models.IndexRun{}, fmt.Errorf("create index run: %w", err)
	}
	return run, nil
}

func (r *IndexRunRepo) FinishRun(ctx context.Context, runID string, done, failed int) error {
	status := IndexRunCompleted
	if failed > 0 {
		status = IndexRunPartial
	}
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE index_runs SET status=$2, done=$3, failed=$4, updated_at=NOW()
WHERE run_id=$1::uuid`, runID, status, done, failed)
	if err != nil {
		return fmt.Errorf("finish index run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finish index run %s: %w", runID, ErrIndexRunNotFound)
	}
	return nil
}

func (r *IndexRunRepo) LatestRun(ctx context.Context, collectionID string) (models.IndexRun, error) {
	var run models.IndexRun
	err := r.db.Pool.QueryRow(ctx, `
SELECT run_id::text, collection_id, workflow_id, status, total, done, failed, created_at, updated_at
FROM index_runs
WHERE collection_id=$1
ORDER BY created_at DESC
LIMIT 1`, collectionID).
		Scan(&run.RunID, &run.CollectionID, &run.WorkflowID, &run.Status, &run.Total, &run.Done, &run.Failed, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.IndexRun{}, fmt.Errorf("latest index run for %s: %w", collectionID, ErrIndexRunNotFound)
		}
		return models.IndexRun{}, fmt.Errorf("latest index run: %w", err)
	}
	return run, nil
}
