package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// ClassifyError decides how the failover logic treats a provider error.
// HTTP status wins when present; otherwise the message is inspected, which
// is all that survives an activity boundary.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTransient
	}
	msg := strings.ToLower(err.Error())
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusPaymentRequired || isQuotaMessage(msg):
			return ErrorQuota
		case apiErr.Status == http.StatusTooManyRequests:
			return ErrorRate
		case apiErr.Status >= 500:
			return ErrorTransient
		case strings.Contains(msg, "context_length") || strings.Contains(msg, "maximum context"):
			return ErrorContext
		default:
			return ErrorPermanent
		}
	}
	switch {
	case isQuotaMessage(msg):
		return ErrorQuota
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "rate_limit"), strings.Contains(msg, "429"):
		return ErrorRate
	case strings.Contains(msg, "context"), strings.Contains(msg, "too long"):
		return ErrorContext
	case strings.Contains(msg, "api error 5"), strings.Contains(msg, "timeout"), strings.Contains(msg, "temporarily"),
		strings.Contains(msg, "unavailable"), strings.Contains(msg, "connection refused"), strings.Contains(msg, "eof"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

func isQuotaMessage(msg string) bool {
	return strings.Contains(msg, "quota") || strings.Contains(msg, "credit") || strings.Contains(msg, "billing") ||
		strings.Contains(msg, "api error 402")
}
