// Package blob provides byte-level storage behind a small interface, with
// local-directory, Postgres and in-memory backends.
package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legalqa/internal/util"
)

// ErrNotFound is returned when a path does not exist. It is never retried.
var ErrNotFound = errors.New("blob not found")

// URLScope selects how long a public URL stays valid.
type URLScope int

const (
	ShortLived URLScope = iota
	LongLived
)

func (s URLScope) TTL() time.Duration {
	if s == LongLived {
		return 365 * 24 * time.Hour
	}
	return 5 * time.Minute
}

type Storage interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	// ListFiles returns the paths under prefix, relative to it, sorted.
	ListFiles(ctx context.Context, prefix string) ([]string, error)
	FileExists(ctx context.Context, path string) (bool, error)
	RemoveFile(ctx context.Context, path string) error
	PublicURL(ctx context.Context, path string, scope URLScope) (string, error)
}

func notFound(path string) error {
	return fmt.Errorf("%s: %w", path, ErrNotFound)
}

func cleanPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	k, err := util.CleanKey(prefix)
	if err != nil {
		return ""
	}
	return k + "/"
}
