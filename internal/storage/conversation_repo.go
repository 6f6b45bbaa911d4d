package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"legalqa/internal/legal"
	"legalqa/internal/models"

	"github.com/google/uuid"
)

// ConversationRepo persists question/answer exchanges per user and the
// retriever test log.
type ConversationRepo struct {
	db *DB
}

func NewConversationRepo(db *DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) ConversationHistory(ctx context.Context, emailID string) ([]legal.Turn, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT query, response
FROM conversation_logs
WHERE email_id=$1
ORDER BY created_at ASC`, emailID)
	if err != nil {
		return nil, fmt.Errorf("query conversation history: %w", err)
	}
	defer rows.Close()
	var out []legal.Turn
	for rows.Next() {
		var t legal.Turn
		if err := rows.Scan(&t.Query, &t.Response); err != nil {
			return nil, fmt.Errorf("scan conversation turn: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation history: %w", err)
	}
	return out, nil
}

func (r *ConversationRepo) LogConversation(ctx context.Context, emailID, query, response string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO conversation_logs(id, email_id, query, response)
VALUES ($1::uuid, $2, $3, $4)`, uuid.NewString(), emailID, query, response)
	if err != nil {
		return fmt.Errorf("insert conversation log: %w", err)
	}
	return nil
}

func (r *ConversationRepo) LogRetrieverTest(ctx context.Context, query, response string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO retriever_testing_logs(id, query, response)
VALUES ($1::uuid, $2, $3)`, uuid.NewString(), query, response)
	if err != nil {
		return fmt.Errorf("insert retriever test log: %w", err)
	}
	return nil
}

// MemoryConversations keeps logs in process. Used by local mode and tests.
type MemoryConversations struct {
	mu        sync.Mutex
	now       func() time.Time
	logs      []models.ConversationLog
	retriever []models.RetrieverTestLog
}

func NewMemoryConversations() *MemoryConversations {
	return &MemoryConversations{now: time.Now}
}

func (m *MemoryConversations) ConversationHistory(_ context.Context, emailID string) ([]legal.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []legal.Turn
	for _, l := range m.logs {
		if l.EmailID == emailID {
			out = append(out, legal.Turn{Query: l.Query, Response: l.Response})
		}
	}
	return out, nil
}

func (m *MemoryConversations) LogConversation(_ context.Context, emailID, query, response string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, models.ConversationLog{
		ID:        uuid.NewString(),
		EmailID:   emailID,
		Query:     query,
		Response:  response,
		CreatedAt: m.now().UTC(),
	})
	return nil
}

func (m *MemoryConversations) LogRetrieverTest(_ context.Context, query, response string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retriever = append(m.retriever, models.RetrieverTestLog{
		ID:        uuid.NewString(),
		Query:     query,
		Response:  response,
		CreatedAt: m.now().UTC(),
	})
	return nil
}

func (m *MemoryConversations) RetrieverTests() []models.RetrieverTestLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.RetrieverTestLog, len(m.retriever))
	copy(out, m.retriever)
	return out
}
