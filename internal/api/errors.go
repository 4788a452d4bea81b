package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Error is the body of every non-2xx response. Message is shown to the
// user as is, so it is Portuguese whenever the backend or a flow supplied it.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeValidation   = "validation_error"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeUpstream     = "upstream_error"
	ErrCodeUnavailable  = "unavailable"
	ErrCodeInternal     = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // the client may already be gone
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, msg)
}

func writeValidation(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, msg)
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, msg)
}

func writeForbidden(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, msg)
}

// writeUpstream is a 502 carrying the backend's own message when it sent one.
func writeUpstream(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadGateway, ErrCodeUpstream, msg)
}

func writeInternalError(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, msg)
}

// decodeJSON treats an empty body as an empty object.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
