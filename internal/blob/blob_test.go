package blob

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"legalqa/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.ReadFile(ctx, "legal/files/missing.pdf")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.WriteFile(ctx, "legal/files/act.pdf", []byte("%PDF")))
	require.NoError(t, s.WriteFile(ctx, "legal/files/sub/rules.pdf", []byte("rules")))
	require.NoError(t, s.WriteFile(ctx, "legal/text/act.pdf.txt", []byte("text")))
	require.NoError(t, s.WriteFile(ctx, "/legal/files/act.pdf", []byte("%PDF-1.7")))

	data, err := s.ReadFile(ctx, "legal/files/act.pdf")
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(data))

	names, err := s.ListFiles(ctx, "legal/files")
	require.NoError(t, err)
	require.Equal(t, []string{"act.pdf", "sub/rules.pdf"}, names)

	names, err = s.ListFiles(ctx, "nothing-here")
	require.NoError(t, err)
	require.Empty(t, names)

	ok, err := s.FileExists(ctx, "legal/text/act.pdf.txt")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.RemoveFile(ctx, "legal/text/act.pdf.txt"))
	ok, err = s.FileExists(ctx, "legal/text/act.pdf.txt")
	require.NoError(t, err)
	require.False(t, ok)
	require.ErrorIs(t, s.RemoveFile(ctx, "legal/text/act.pdf.txt"), ErrNotFound)

	_, err = s.ReadFile(ctx, "../outside")
	require.Error(t, err)
}

func TestLocalStorage(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), NewSigner("http://localhost:8080", "k"))
	require.NoError(t, err)
	exerciseStorage(t, s)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage(NewSigner("http://localhost:8080", "k")))
}

func TestPublicURLSignAndVerify(t *testing.T) {
	signer := NewSigner("http://localhost:8080/", "secret")
	now := time.Unix(1_700_000_000, 0)
	signer.now = func() time.Time { return now }
	s := NewMemoryStorage(signer)
	ctx := context.Background()

	_, err := s.PublicURL(ctx, "legal/files/act.pdf", ShortLived)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.WriteFile(ctx, "legal/files/act.pdf", []byte("x")))
	raw, err := s.PublicURL(ctx, "legal/files/act.pdf", ShortLived)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(raw, "http://localhost:8080/files/legal/files/act.pdf?"))

	u, err := url.Parse(raw)
	require.NoError(t, err)
	path := strings.TrimPrefix(u.Path, "/files/")
	require.NoError(t, signer.Verify(path, u.Query().Get("expires"), u.Query().Get("sig")))
	require.ErrorIs(t, signer.Verify("legal/files/other.pdf", u.Query().Get("expires"), u.Query().Get("sig")), ErrSignatureInvalid)

	now = now.Add(6 * time.Minute)
	require.ErrorIs(t, signer.Verify(path, u.Query().Get("expires"), u.Query().Get("sig")), ErrSignatureExpired)

	long, err := s.PublicURL(ctx, "legal/files/act.pdf", LongLived)
	require.NoError(t, err)
	lu, _ := url.Parse(long)
	require.NoError(t, signer.Verify(path, lu.Query().Get("expires"), lu.Query().Get("sig")))
}

type flakyStorage struct {
	*MemoryStorage
	failures int
	calls    int
}

func (f *flakyStorage) ReadFile(ctx context.Context, path string) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset by peer")
	}
	return f.MemoryStorage.ReadFile(ctx, path)
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, MaxElapsedTime: time.Second}
}

func TestRetryingRetriesTransientFailures(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	inner := &flakyStorage{MemoryStorage: NewMemoryStorage(nil), failures: 2}
	require.NoError(t, inner.WriteFile(context.Background(), "a.txt", []byte("ok")))
	r := NewRetrying(inner, fastPolicy(), m, zerolog.Nop())

	data, err := r.ReadFile(context.Background(), "a.txt")
	require.NoError(t, err)
	require.Equal(t, "ok", string(data))
	require.Equal(t, 3, inner.calls)
	require.Equal(t, 2.0, testutil.ToFloat64(m.BlobRetriesTotal))
}

func TestRetryingDoesNotRetryNotFound(t *testing.T) {
	inner := &flakyStorage{MemoryStorage: NewMemoryStorage(nil)}
	r := NewRetrying(inner, fastPolicy(), nil, zerolog.Nop())

	_, err := r.ReadFile(context.Background(), "missing.txt")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, inner.calls)
}

func TestRetryingGivesUp(t *testing.T) {
	inner := &flakyStorage{MemoryStorage: NewMemoryStorage(nil), failures: 1 << 30}
	policy := fastPolicy()
	policy.MaxElapsedTime = 20 * time.Millisecond
	r := NewRetrying(inner, policy, nil, zerolog.Nop())

	_, err := r.ReadFile(context.Background(), "a.txt")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Greater(t, inner.calls, 1)
}
