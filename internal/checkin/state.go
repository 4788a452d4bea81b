package checkin

import (
	"errors"
	"time"
)

// Status is the verifier's position in the flow.
type Status int

// Status values.
const (
	StatusIdle Status = iota
	StatusScanning
	StatusResolving
	StatusSuccess
	StatusWarning
	StatusError
)

var statusNames = map[Status]string{
	StatusIdle:      "idle",
	StatusScanning:  "scanning",
	StatusResolving: "resolving",
	StatusSuccess:   "success",
	StatusWarning:   "warning",
	StatusError:     "error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the status name for JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Resolved reports whether s is a terminal outcome of a scan.
func (s Status) Resolved() bool {
	return s == StatusSuccess || s == StatusWarning || s == StatusError
}

// State is the verifier state. Message carries the outcome text for
// Success, the reason for Warning and Error, and is empty otherwise.
type State struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Outcome messages.
const (
	MsgSuccess          = "Checkin Realizado"
	MsgAlreadyCheckedIn = "Usuário já realizou checkin neste estande"
	MsgFailed           = "Falha no Checkin"
	MsgCompanyNotFound  = "ID da empresa não encontrado"
)

// Event is delivered to listeners on every transition.
type Event struct {
	AttemptID string    `json:"attempt_id,omitempty"`
	State     State     `json:"state"`
	At        time.Time `json:"at"`
}

// Outcome is a resolved scan, handed to sinks.
type Outcome struct {
	AttemptID  string
	CompanyID  string
	OperatorID string
	Status     Status
	Message    string
	Latency    time.Duration
	At         time.Time
}

var (
	// ErrNotScanning is returned by Scan outside StatusScanning, including
	// every frame after the first one of a burst.
	ErrNotScanning = errors.New("scanner is not accepting codes")

	// ErrEmptyCode is returned by Scan for a blank QR payload.
	ErrEmptyCode = errors.New("scanned code is empty")

	// ErrResolving is returned by Reset and Stop while a scan is in flight.
	ErrResolving = errors.New("scan still resolving")

	// ErrNoOperator is returned when no booth staff session is active.
	ErrNoOperator = errors.New("no booth operator logged in")

	// ErrNoCompany is returned when the operator has no booth company.
	ErrNoCompany = errors.New("operator has no company")
)
