package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":          ErrorQuota,
		"429 rate":                    ErrorRate,
		"rate limit reached":          ErrorRate,
		"context too long":            ErrorContext,
		"timeout":                     ErrorTransient,
		"bad request":                 ErrorPermanent,
		"decode generate response: x": ErrorPermanent,
	}
	for msg, want := range cases {
		require.Equal(t, want, ClassifyError(errors.New(msg)), msg)
	}
}

func TestClassifyAPIError(t *testing.T) {
	require.Equal(t, ErrorRate, ClassifyError(&APIError{Provider: "openai", Status: 429, Body: "slow down"}))
	require.Equal(t, ErrorQuota, ClassifyError(&APIError{Provider: "openai", Status: 402}))
	require.Equal(t, ErrorTransient, ClassifyError(fmt.Errorf("embed: %w", &APIError{Provider: "ollama", Status: 502})))
	require.Equal(t, ErrorContext, ClassifyError(&APIError{Provider: "openai", Status: 400, Body: `{"code":"context_length_exceeded"}`}))
	require.Equal(t, ErrorPermanent, ClassifyError(&APIError{Provider: "openai", Status: 401, Body: "invalid key"}))
}

func TestClassifyDeadline(t *testing.T) {
	require.Equal(t, ErrorTransient, ClassifyError(fmt.Errorf("call: %w", context.DeadlineExceeded)))
	require.Equal(t, ErrorType(""), ClassifyError(nil))
}

func TestClassifyFlattenedAPIError(t *testing.T) {
	flat := func(e *APIError) error { return errors.New(e.Error()) }
	require.Equal(t, ErrorTransient, ClassifyError(flat(&APIError{Provider: "ollama", Status: 503, Body: "loading"})))
	require.Equal(t, ErrorQuota, ClassifyError(flat(&APIError{Provider: "openai", Status: 402})))
	require.Equal(t, ErrorRate, ClassifyError(flat(&APIError{Provider: "groq", Status: 429})))
}
