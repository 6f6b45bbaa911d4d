package storage

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS blobs (
  path        TEXT PRIMARY KEY,
  content     BYTEA NOT NULL,
  sha256      TEXT NOT NULL,
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS documents (
  document_id    TEXT PRIMARY KEY,
  collection_id  TEXT NOT NULL,
  file_name      TEXT NOT NULL,
  title          TEXT,
  status         TEXT NOT NULL,
  fail_reason    TEXT,
  chunk_count    INT NOT NULL DEFAULT 0,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection_id, status);

CREATE TABLE IF NOT EXISTS chunks (
  chunk_id           TEXT PRIMARY KEY,
  document_id        TEXT NOT NULL,
  collection_id      TEXT NOT NULL,
  chunk_index        INT NOT NULL,
  file_name          TEXT NOT NULL,
  text               TEXT NOT NULL,
  text_url           TEXT,
  embedding_version  TEXT NOT NULL,
  embedding          vector(%d),
  created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS chunks_collection_idx ON chunks (collection_id, embedding_version);

CREATE TABLE IF NOT EXISTS llm_calls (
  call_id        UUID PRIMARY KEY,
  operation      TEXT NOT NULL,
  collection_id  TEXT,
  document_id    TEXT,
  provider_name  TEXT NOT NULL,
  model          TEXT,
  request_id     TEXT,
  status         TEXT NOT NULL,
  error_type     TEXT,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS conversation_logs (
  id          UUID PRIMARY KEY,
  email_id    TEXT NOT NULL,
  query       TEXT NOT NULL,
  response    TEXT NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS conversation_logs_email_idx ON conversation_logs (email_id, created_at);

CREATE TABLE IF NOT EXISTS retriever_testing_logs (
  id          UUID PRIMARY KEY,
  query       TEXT NOT NULL,
  response    TEXT NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS index_runs (
  run_id         UUID PRIMARY KEY,
  collection_id  TEXT NOT NULL,
  workflow_id    TEXT NOT NULL,
  status         TEXT NOT NULL,
  total          INT NOT NULL DEFAULT 0,
  done           INT NOT NULL DEFAULT 0,
  failed         INT NOT NULL DEFAULT 0,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates the tables used by the service. embedDim fixes the width
// of the chunk embedding column.
func (d *DB) Migrate(ctx context.Context, embedDim int) error {
	if embedDim <= 0 {
		embedDim = 1536
	}
	if _, err := d.Pool.Exec(ctx, fmt.Sprintf(schemaSQL, embedDim)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
