package renderer

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError means the API key was rejected (401/403).
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("renderer: auth rejected (HTTP %d): %s", e.StatusCode, e.Body)
}

// QuotaError means the account has exhausted its page budget (402).
type QuotaError struct {
	StatusCode int
	Body       string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("renderer: quota exhausted (HTTP %d): %s", e.StatusCode, e.Body)
}

// RateLimitError means the service throttled the request (429).
type RateLimitError struct {
	StatusCode int
	Body       string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("renderer: rate limited (HTTP %d): %s", e.StatusCode, e.Body)
}

// ProtocolError covers every other non-2xx response.
type ProtocolError struct {
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("renderer: HTTP %d: %s", e.StatusCode, e.Body)
}

// errorFromStatus maps a non-2xx response to the typed error taxonomy so
// callers can decide whether a retry is worthwhile.
func errorFromStatus(status int, body string) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{StatusCode: status, Body: body}
	case http.StatusPaymentRequired:
		return &QuotaError{StatusCode: status, Body: body}
	case http.StatusTooManyRequests:
		return &RateLimitError{StatusCode: status, Body: body}
	default:
		return &ProtocolError{StatusCode: status, Body: body}
	}
}

// IsAuth reports whether err is an AuthError.
func IsAuth(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

// IsQuota reports whether err is a QuotaError.
func IsQuota(err error) bool {
	var e *QuotaError
	return errors.As(err, &e)
}

// IsRateLimit reports whether err is a RateLimitError.
func IsRateLimit(err error) bool {
	var e *RateLimitError
	return errors.As(err, &e)
}
