package models

import "time"

// IndexedDocument tracks the indexing state of one source file.
type IndexedDocument struct {
	DocumentID   string    `json:"document_id"`
	CollectionID string    `json:"collection_id"`
	FileName     string    `json:"file_name"`
	Title        string    `json:"title,omitempty"`
	Status       string    `json:"status"`
	FailReason   string    `json:"fail_reason,omitempty"`
	ChunkCount   int       `json:"chunk_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Chunk struct {
	ChunkID          string    `json:"chunk_id"`
	DocumentID       string    `json:"document_id"`
	CollectionID     string    `json:"collection_id"`
	ChunkIndex       int       `json:"chunk_index"`
	FileName         string    `json:"file_name"`
	Text             string    `json:"text"`
	TextURL          string    `json:"text_url,omitempty"`
	EmbeddingVersion string    `json:"embedding_version"`
	CreatedAt        time.Time `json:"created_at"`
}

type ChunkResult struct {
	DocumentID string  `json:"document_id"`
	FileName   string  `json:"file_name"`
	ChunkID    string  `json:"chunk_id"`
	Text       string  `json:"text"`
	TextURL    string  `json:"text_url,omitempty"`
	Score      float64 `json:"score"`
}

type ConversationLog struct {
	ID        string    `json:"id"`
	EmailID   string    `json:"email_id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

type RetrieverTestLog struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

type IndexRun struct {
	RunID        string    `json:"run_id"`
	CollectionID string    `json:"collection_id"`
	WorkflowID   string    `json:"workflow_id"`
	Status       string    `json:"status"`
	Total        int       `json:"total"`
	Done         int       `json:"done"`
	Failed       int       `json:"failed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
