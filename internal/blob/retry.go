package blob

import (
	"context"
	"errors"
	"time"

	"legalqa/internal/metrics"
	"legalqa/internal/util"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy backs off exponentially with jitter up to one minute
// between attempts.
func DefaultRetryPolicy(maxElapsed time.Duration) RetryPolicy {
	if maxElapsed <= 0 {
		maxElapsed = 5 * time.Minute
	}
	return RetryPolicy{InitialInterval: time.Second, MaxInterval: time.Minute, MaxElapsedTime: maxElapsed}
}

// Retrying retries transient failures of the wrapped Storage. ErrNotFound and
// invalid keys are returned at once.
type Retrying struct {
	next    Storage
	policy  RetryPolicy
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func NewRetrying(next Storage, policy RetryPolicy, m *metrics.Metrics, log zerolog.Logger) *Retrying {
	return &Retrying{next: next, policy: policy, metrics: m, log: log}
}

func (r *Retrying) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.policy.InitialInterval
	b.MaxInterval = r.policy.MaxInterval
	b.MaxElapsedTime = r.policy.MaxElapsedTime
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	return backoff.WithContext(b, ctx)
}

func retry[T any](ctx context.Context, r *Retrying, op, path string, fn func() (T, error)) (T, error) {
	return backoff.RetryNotifyWithData[T](func() (T, error) {
		v, err := fn()
		if err != nil && (errors.Is(err, ErrNotFound) || errors.Is(err, util.ErrInvalidKey)) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, r.backOff(ctx), func(err error, wait time.Duration) {
		r.metrics.BlobRetried()
		r.log.Warn().Err(err).Str("op", op).Str("path", path).Dur("wait", wait).Msg("blob operation failed, retrying")
	})
}

func (r *Retrying) ReadFile(ctx context.Context, path string) ([]byte, error) {
	return retry(ctx, r, "read", path, func() ([]byte, error) { return r.next.ReadFile(ctx, path) })
}

func (r *Retrying) WriteFile(ctx context.Context, path string, data []byte) error {
	_, err := retry(ctx, r, "write", path, func() (struct{}, error) { return struct{}{}, r.next.WriteFile(ctx, path, data) })
	return err
}

func (r *Retrying) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	return retry(ctx, r, "list", prefix, func() ([]string, error) { return r.next.ListFiles(ctx, prefix) })
}

func (r *Retrying) FileExists(ctx context.Context, path string) (bool, error) {
	return retry(ctx, r, "exists", path, func() (bool, error) { return r.next.FileExists(ctx, path) })
}

func (r *Retrying) RemoveFile(ctx context.Context, path string) error {
	_, err := retry(ctx, r, "remove", path, func() (struct{}, error) { return struct{}{}, r.next.RemoveFile(ctx, path) })
	return err
}

func (r *Retrying) PublicURL(ctx context.Context, path string, scope URLScope) (string, error) {
	return r.next.PublicURL(ctx, path, scope)
}
