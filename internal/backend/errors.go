package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport wraps failures that never produced an HTTP response.
	ErrTransport = errors.New("backend unreachable")

	// ErrDecode is returned when a 2xx response body cannot be decoded.
	ErrDecode = errors.New("decoding backend response")

	// ErrMissingToken is returned when the login response carries no token.
	ErrMissingToken = errors.New("login response has no token")

	// ErrSyncRejected is returned when the ticketing reconciliation
	// endpoint answers with success=false.
	ErrSyncRejected = errors.New("participant sync rejected")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 if err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the server message carried by err, or "".
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}
