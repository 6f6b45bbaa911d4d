package util

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
)

var ErrInvalidKey = errors.New("invalid storage key")

func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// CleanKey normalises a slash-separated storage key. Keys that escape the
// root with ".." are rejected.
func CleanKey(key string) (string, error) {
	k := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(key, "\\", "/")), "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("%w: empty key %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q escapes root", ErrInvalidKey, key)
		}
	}
	return k, nil
}
