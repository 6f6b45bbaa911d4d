package blob

import (
	"context"
	"sort"
	"strings"
	"sync"

	"legalqa/internal/util"
)

// MemoryStorage is a process-local Storage for tests and demos.
type MemoryStorage struct {
	mu     sync.RWMutex
	files  map[string][]byte
	signer *Signer
}

func NewMemoryStorage(signer *Signer) *MemoryStorage {
	return &MemoryStorage{files: map[string][]byte{}, signer: signer}
}

func (s *MemoryStorage) ReadFile(_ context.Context, path string) ([]byte, error) {
	key, err := util.CleanKey(path)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[key]
	if !ok {
		return nil, notFound(key)
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStorage) WriteFile(_ context.Context, path string, data []byte) error {
	key, err := util.CleanKey(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.files[key] = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) ListFiles(_ context.Context, prefix string) ([]string, error) {
	p := cleanPrefix(prefix)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0)
	for k := range s.files {
		if strings.HasPrefix(k, p) {
			out = append(out, strings.TrimPrefix(k, p))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStorage) FileExists(_ context.Context, path string) (bool, error) {
	key, err := util.CleanKey(path)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	_, ok := s.files[key]
	s.mu.RUnlock()
	return ok, nil
}

func (s *MemoryStorage) RemoveFile(_ context.Context, path string) error {
	key, err := util.CleanKey(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[key]; !ok {
		return notFound(key)
	}
	delete(s.files, key)
	return nil
}

func (s *MemoryStorage) PublicURL(ctx context.Context, path string, scope URLScope) (string, error) {
	return publicURL(ctx, s, s.signer, path, scope)
}
