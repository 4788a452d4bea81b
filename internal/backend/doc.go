// Package backend is the HTTP client for the external event REST API.
//
// Every call takes a context and is bounded by the configured client
// timeout. Calls are never retried: a failure is returned to the caller,
// which turns it into a user-facing result or state.
//
// Non-2xx responses are returned as *APIError carrying the HTTP status and
// the server's "message" field, so callers can branch on business rules
// (for example a duplicate check-in) with errors.As.
package backend
