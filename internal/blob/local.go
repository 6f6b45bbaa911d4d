package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"legalqa/internal/util"
)

// LocalStorage keeps blobs as files below a root directory.
type LocalStorage struct {
	root   string
	signer *Signer
}

func NewLocalStorage(root string, signer *Signer) (*LocalStorage, error) {
	if err := util.EnsureDir(root); err != nil {
		return nil, err
	}
	return &LocalStorage{root: root, signer: signer}, nil
}

func (s *LocalStorage) resolve(path string) (string, string, error) {
	key, err := util.CleanKey(path)
	if err != nil {
		return "", "", err
	}
	return key, filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func (s *LocalStorage) ReadFile(_ context.Context, path string) ([]byte, error) {
	key, full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(key)
		}
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

func (s *LocalStorage) WriteFile(_ context.Context, path string, data []byte) error {
	key, full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(full, data); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}

func (s *LocalStorage) ListFiles(_ context.Context, prefix string) ([]string, error) {
	p := cleanPrefix(prefix)
	dir := filepath.Join(s.root, filepath.FromSlash(p))
	out := make([]string, 0)
	err := filepath.WalkDir(dir, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), "tmp-") {
			return nil
		}
		rel, err := filepath.Rel(dir, full)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs %s: %w", prefix, err)
	}
	sort.Strings(out)
	return out, nil
}

func (s *LocalStorage) FileExists(_ context.Context, path string) (bool, error) {
	_, full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat blob: %w", err)
	}
	return !info.IsDir(), nil
}

func (s *LocalStorage) RemoveFile(_ context.Context, path string) error {
	key, full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(key)
		}
		return fmt.Errorf("remove blob %s: %w", key, err)
	}
	return nil
}

func (s *LocalStorage) PublicURL(ctx context.Context, path string, scope URLScope) (string, error) {
	return publicURL(ctx, s, s.signer, path, scope)
}

func publicURL(ctx context.Context, st Storage, signer *Signer, path string, scope URLScope) (string, error) {
	key, err := util.CleanKey(path)
	if err != nil {
		return "", err
	}
	ok, err := st.FileExists(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", notFound(key)
	}
	if signer == nil {
		return "", fmt.Errorf("public url for %s: no signer configured", key)
	}
	return signer.Sign(key, scope), nil
}
