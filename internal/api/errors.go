package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error describes a failed API request. StatusCode is zero when the request
// never completed (DNS failure, connection refused, timeout); otherwise it
// carries the HTTP status returned by the backend, with the response body
// retained for caller-side messaging.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, http.StatusText(e.StatusCode))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status from an error chain. Returns zero for
// transport failures and non-API errors.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Retryable classifies an error as transient or terminal. Client errors
// (4xx) are terminal: the request is malformed or forbidden and repeating it
// cannot succeed. Transport failures, timeouts and server errors (5xx) are
// transient. The classification is independent of the transport so retry
// policy can be tested without a network.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	status := StatusCode(err)
	if status >= 400 && status < 500 {
		return false
	}
	return true
}
