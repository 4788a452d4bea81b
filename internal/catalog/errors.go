package catalog

import "errors"

// User-facing messages.
const (
	MsgReasonRequired = "Por favor, forneça um motivo com pelo menos 10 caracteres."
	MsgInvalidStars   = "Selecione uma nota entre 1 e 5."
)

var (
	// ErrInvalidStars is returned for a rating outside 1..5.
	ErrInvalidStars = errors.New("rating must be between 1 and 5 stars")

	// ErrReasonRequired is returned when a low rating has no usable reason.
	ErrReasonRequired = errors.New("low rating requires a reason")

	// ErrNotSignedIn is returned by write paths called without a session.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrEmptyID is returned when a required identifier is blank.
	ErrEmptyID = errors.New("identifier is required")
)
