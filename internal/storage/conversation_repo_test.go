package storage

import (
	"context"
	"testing"

	"legalqa/internal/legal"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var _ legal.ConversationStore = (*ConversationRepo)(nil)
var _ legal.ConversationStore = (*MemoryConversations)(nil)

func TestMemoryConversationsHistoryPerUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryConversations()
	require.NoError(t, m.LogConversation(ctx, "a@example.com", "q1", "r1"))
	require.NoError(t, m.LogConversation(ctx, "b@example.com", "other", "x"))
	require.NoError(t, m.LogConversation(ctx, "a@example.com", "q2", "r2"))

	hist, err := m.ConversationHistory(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, []legal.Turn{{Query: "q1", Response: "r1"}, {Query: "q2", Response: "r2"}}, hist)

	hist, err = m.ConversationHistory(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Empty(t, hist)
}

func TestMemoryConversationsRetrieverLog(t *testing.T) {
	m := NewMemoryConversations()
	require.NoError(t, m.LogRetrieverTest(context.Background(), "query", "answer"))
	logs := m.RetrieverTests()
	require.Len(t, logs, 1)
	require.Equal(t, "query", logs[0].Query)
	_, err := uuid.Parse(logs[0].ID)
	require.NoError(t, err)
}
