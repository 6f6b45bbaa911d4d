package legal

import (
	"context"
	"fmt"
	"sync"

	"legalqa/internal/blob"
)

type fakeDocuments struct {
	mu           sync.Mutex
	docs         []DocumentMetadata
	sections     map[string][]SectionRecord
	catalogCalls int
}

func (f *fakeDocuments) Catalog(context.Context) ([]DocumentMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalogCalls++
	out := make([]DocumentMetadata, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *fakeDocuments) SectionIndex(_ context.Context, docID string) ([]SectionRecord, error) {
	recs, ok := f.sections[docID]
	if !ok {
		return nil, fmt.Errorf("sections/%s.json: %w", docID, blob.ErrNotFound)
	}
	return recs, nil
}

type fakePassages struct {
	passages []Passage
	lastK    int
}

func (f *fakePassages) SearchPassages(_ context.Context, _ string, k int) ([]Passage, error) {
	f.lastK = k
	if len(f.passages) > k {
		return f.passages[:k], nil
	}
	return f.passages, nil
}

type fakeConversations struct {
	history       map[string][]Turn
	logged        []Turn
	retrieverLogs []Turn
}

func (f *fakeConversations) ConversationHistory(_ context.Context, emailID string) ([]Turn, error) {
	return f.history[emailID], nil
}

func (f *fakeConversations) LogConversation(_ context.Context, _ string, query, response string) error {
	f.logged = append(f.logged, Turn{Query: query, Response: response})
	return nil
}

func (f *fakeConversations) LogRetrieverTest(_ context.Context, query, response string) error {
	f.retrieverLogs = append(f.retrieverLogs, Turn{Query: query, Response: response})
	return nil
}

func legalDoc(id, title, jurisdiction, no, year string) DocumentMetadata {
	return DocumentMetadata{
		ID:               id,
		Title:            title,
		OriginalFileName: id + ".pdf",
		OriginalFormat:   "pdf",
		Legal: LegalFields{
			ActNo:        no,
			ActYear:      year,
			Jurisdiction: jurisdiction,
			ActTitle:     title,
		},
	}
}
