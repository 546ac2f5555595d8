package blog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is the single error shape for every failed remote call. Transport
// failures carry StatusCode 0 and the underlying error in Err.
type APIError struct {
	StatusCode int    `json:"status_code" yaml:"status_code"`
	Message    string `json:"message"     yaml:"message"`
	Err        error  `json:"-"           yaml:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}

	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Unwrap returns the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrAPIURLRequired     = errors.New("API URL is required")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrEmptyLoginResponse = errors.New("login response did not include a token")
	ErrPostIDRequired     = errors.New("post ID is required")
	ErrCacheDisabled      = errors.New("cache disabled")
	ErrCacheKeyNotFound   = errors.New("key not found")
	ErrCacheEntryExpired  = errors.New("entry expired")
)

// NewTransportError wraps a network-level failure.
func NewTransportError(err error) *APIError {
	return &APIError{
		Message: err.Error(),
		Err:     err,
	}
}

// NewDecodeError reports a 2xx response whose body could not be decoded.
func NewDecodeError(statusCode int, err error) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    "invalid response from server",
		Err:        err,
	}
}

// ParseAPIError builds an APIError from a non-2xx response. The message is
// taken from a JSON "message" or "error" field when present, otherwise from
// the status text.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}

	if apiErr.Message == "" {
		apiErr.Message = "request failed"
	}

	return apiErr
}

func hasStatus(err error, statusCode int) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}

	return false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

// ErrorMessage returns the human-readable message for display. For an
// APIError that is the API's own message; otherwise the full error text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return strings.TrimSpace(apiErr.Message)
	}

	return err.Error()
}
