package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEGALQA_CONFIG", "")
	t.Setenv("LEGALQA_ACT_CACHE_TTL_SECONDS", "")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 900, cfg.ActCacheTTLSecs)
	require.Equal(t, 2, cfg.ActCacheCapacity)
	require.Equal(t, 10, cfg.RetrievalTopK)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legalqa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collection_id: karnataka-acts\nretrieval_top_k: 4\nlog_level: debug\n"), 0o644))
	t.Setenv("LEGALQA_CONFIG", path)
	t.Setenv("LEGALQA_RETRIEVAL_TOP_K", "7")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "karnataka-acts", cfg.CollectionID)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 7, cfg.RetrievalTopK)
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	t.Setenv("LEGALQA_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "legal", cfg.CollectionID)
}

func TestGetenvIntFallback(t *testing.T) {
	t.Setenv("LEGALQA_TEST_INT", "nope")
	require.Equal(t, 3, getenvInt("LEGALQA_TEST_INT", 3))
}
