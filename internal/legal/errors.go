package legal

import (
	"errors"
	"fmt"

	"legalqa/internal/providers"
)

// Base conditions. Callers match them with errors.Is.
var (
	ErrIncorrectInput     = errors.New("incorrect input")
	ErrInternal           = errors.New("internal error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

var (
	ErrIncorrectQueryFormat   = fmt.Errorf("%w: incorrect input query format", ErrIncorrectInput)
	ErrIncorrectSectionNumber = fmt.Errorf("%w: incorrect section number format", ErrIncorrectInput)
	ErrSectionNotFound        = fmt.Errorf("%w: cannot find section and page number", ErrInternal)
	ErrInvalidActMetadata     = fmt.Errorf("%w: invalid act metadata", ErrInternal)
)

// wrapProviderError marks rate limiting, quota exhaustion and transient
// provider failures as ErrServiceUnavailable.
func wrapProviderError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch providers.ClassifyError(err) {
	case providers.ErrorQuota, providers.ErrorRate, providers.ErrorTransient:
		return fmt.Errorf("%w: %s: %v", ErrServiceUnavailable, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
