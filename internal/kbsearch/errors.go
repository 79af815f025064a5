package kbsearch

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voyora/zara/internal/types"
)

// SearchError is a typed knowledge base search failure carrying the
// retryable classification used by the retry loop.
type SearchError struct {
	Type       types.ErrorType `json:"type"`
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code,omitempty"`
	Retryable  bool            `json:"retryable"`
	RetryAfter time.Duration   `json:"retry_after,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (e *SearchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *SearchError) IsRetryable() bool {
	return e.Retryable
}

func NewSearchError(errType types.ErrorType, message string) *SearchError {
	return &SearchError{
		Type:      errType,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now(),
	}
}

// ClassifyHTTPError maps an OpenSearch HTTP status to a typed error.
func ClassifyHTTPError(statusCode int, body string) *SearchError {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &SearchError{
			Type:       types.ErrorTypeAuthentication,
			Message:    "knowledge base rejected the credentials",
			StatusCode: statusCode,
			Retryable:  false,
			Timestamp:  time.Now(),
		}
	case http.StatusNotFound:
		return &SearchError{
			Type:       types.ErrorTypeValidation,
			Message:    "knowledge base index or endpoint not found",
			StatusCode: statusCode,
			Retryable:  false,
			Timestamp:  time.Now(),
		}
	case http.StatusTooManyRequests:
		return &SearchError{
			Type:       types.ErrorTypeRateLimit,
			Message:    "knowledge base rate limit reached",
			StatusCode: statusCode,
			Retryable:  true,
			RetryAfter: 10 * time.Second,
			Timestamp:  time.Now(),
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &SearchError{
			Type:       types.ErrorTypeServer,
			Message:    "knowledge base server error",
			StatusCode: statusCode,
			Retryable:  true,
			RetryAfter: 5 * time.Second,
			Timestamp:  time.Now(),
		}
	default:
		return &SearchError{
			Type:       types.ErrorTypeUnknown,
			Message:    fmt.Sprintf("unexpected knowledge base error: %s", body),
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
			Timestamp:  time.Now(),
		}
	}
}

// ClassifyConnectionError maps transport-level failures to a typed error.
func ClassifyConnectionError(err error) *SearchError {
	errMsg := err.Error()

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded") {
		return &SearchError{
			Type:       types.ErrorTypeTimeout,
			Message:    "knowledge base request timed out",
			Retryable:  true,
			RetryAfter: 5 * time.Second,
			Timestamp:  time.Now(),
		}
	}

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") {
		return &SearchError{
			Type:      types.ErrorTypeConnection,
			Message:   "knowledge base is unreachable",
			Retryable: false,
			Timestamp: time.Now(),
		}
	}

	return &SearchError{
		Type:       types.ErrorTypeUnknown,
		Message:    fmt.Sprintf("knowledge base connection error: %v", err),
		Retryable:  true,
		RetryAfter: 5 * time.Second,
		Timestamp:  time.Now(),
	}
}
