package search

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when the client is constructed
// without an application ID or API key.
var ErrMissingCredentials = errors.New("search credentials are not configured")

// APIError is a non-2xx response from the search engine.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("search engine returned %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the search engine.
// Deletes treat this as success: removing an absent record is a no-op.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}

// IsTransient reports whether err is a retryable engine failure
// (timeouts, rate limiting, 5xx).
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 408, 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	// Network-level failures carry no status code.
	return err != nil && !errors.Is(err, ErrMissingCredentials)
}
