package blob

import (
	"context"
	"errors"
	"fmt"

	"legalqa/internal/util"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage keeps blobs in the blobs(path, content, sha256, updated_at) table.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	signer *Signer
}

func NewPostgresStorage(pool *pgxpool.Pool, signer *Signer) *PostgresStorage {
	return &PostgresStorage{pool: pool, signer: signer}
}

func (s *PostgresStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	key, err := util.CleanKey(path)
	if err != nil {
		return nil, err
	}
	var data []byte
	err = s.pool.QueryRow(ctx, `SELECT content FROM blobs WHERE path=$1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(key)
		}
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

func (s *PostgresStorage) WriteFile(ctx context.Context, path string, data []byte) error {
	key, err := util.CleanKey(path)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO blobs (path, content, sha256)
VALUES ($1, $2, $3)
ON CONFLICT (path)
DO UPDATE SET
  content = EXCLUDED.content,
  sha256 = EXCLUDED.sha256,
  updated_at = NOW()`, key, data, util.SHA256Hex(data))
	if err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStorage) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	p := cleanPrefix(prefix)
	rows, err := s.pool.Query(ctx, `
SELECT substr(path, $2)
FROM blobs
WHERE starts_with(path, $1)
ORDER BY path ASC`, p, len(p)+1)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan blob path: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blobs: %w", err)
	}
	return out, nil
}

func (s *PostgresStorage) FileExists(ctx context.Context, path string) (bool, error) {
	key, err := util.CleanKey(path)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM blobs WHERE path=$1)`, key).Scan(&ok); err != nil {
		return false, fmt.Errorf("check blob %s: %w", key, err)
	}
	return ok, nil
}

func (s *PostgresStorage) RemoveFile(ctx context.Context, path string) error {
	key, err := util.CleanKey(path)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM blobs WHERE path=$1`, key)
	if err != nil {
		return fmt.Errorf("remove blob %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(key)
	}
	return nil
}

func (s *PostgresStorage) PublicURL(ctx context.Context, path string, scope URLScope) (string, error) {
	return publicURL(ctx, s, s.signer, path, scope)
}
