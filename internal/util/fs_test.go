package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	k, err := CleanKey("/legal//files/./act.pdf")
	require.NoError(t, err)
	require.Equal(t, "legal/files/act.pdf", k)

	_, err = CleanKey("legal/../../etc/passwd")
	require.Error(t, err)

	_, err = CleanKey("")
	require.Error(t, err)
}

func TestWriteJSONArtifacts(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "out", "acts.json")
	require.NoError(t, WriteJSONAtomic(path, map[string]int{"acts": 2}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"acts":2}`, string(b))

	type row struct {
		Query string `json:"query"`
	}
	lines := filepath.Join(dir, "results.jsonl")
	require.NoError(t, WriteJSONLinesAtomic(lines, []row{{"a"}, {"b"}}))
	b, err = os.ReadFile(lines)
	require.NoError(t, err)
	require.Equal(t, "{\"query\":\"a\"}\n{\"query\":\"b\"}\n", string(b))
}
