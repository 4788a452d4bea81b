package auth

import (
	"strings"

	"github.com/nerrad567/event-companion-core/internal/backend"
)

// Role is an account's authorisation tier.
type Role string

const (
	// RoleUser is an attendee.
	RoleUser Role = "user"

	// RoleEstande is booth staff: scans attendee QR codes and lists check-ins.
	RoleEstande Role = "estande"

	// RoleEstandeAdmin is booth staff that can also register other staff
	// for the same booth.
	RoleEstandeAdmin Role = "estandeAdmin"
)

// ValidRoles is the closed set of roles the app accepts.
var ValidRoles = []Role{RoleUser, RoleEstande, RoleEstandeAdmin}

// ParseRole decodes a role string. Anything outside ValidRoles, including
// a different letter case, yields ("", false).
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if r.Valid() {
		return r, true
	}
	return "", false
}

// Valid reports whether r is one of ValidRoles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEstande, RoleEstandeAdmin:
		return true
	default:
		return false
	}
}

// IsBoothStaff reports whether r operates a booth scanner.
func (r Role) IsBoothStaff() bool {
	return r == RoleEstande || r == RoleEstandeAdmin
}

// Session is the authenticated operator of this install.
type Session struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	Token  string `json:"-"` // bearer credential, never serialised to the UI
	Ticket string `json:"ticket,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Complete reports whether the required fields are present and the role is known.
func (s *Session) Complete() bool {
	return s != nil && s.Token != "" && s.UserID != "" && s.Role.Valid()
}

// User is the account returned by a login, role left undecoded.
type User struct {
	ID     string `json:"id"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Ticket string `json:"ticket,omitempty"`
}

func userFromBackend(u backend.User, email string) User {
	out := User{
		ID:     u.ID.String(),
		Role:   u.Role,
		Name:   u.Name,
		Email:  u.Email,
		Ticket: u.Ticket,
	}
	if out.Email == "" {
		out.Email = email
	}
	return out
}

// State is the login state machine's current state.
type State int

// Login states. Logout returns to StateUnauthenticated from any of them.
const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateFirstAccessPending
	StateSyncRequired
	StateFailed
)

var stateNames = map[State]string{
	StateUnauthenticated:    "unauthenticated",
	StateAuthenticating:     "authenticating",
	StateAuthenticated:      "authenticated",
	StateFirstAccessPending: "first_access_pending",
	StateSyncRequired:       "sync_required",
	StateFailed:             "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText renders the state name for JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// User-facing messages and result codes.
const (
	MsgInvalidCredentials = "Usuário ou senha inválidos"
	MsgCreatePassword     = "Erro ao criar senha."
	ErrCodeSyncRequired   = "sync_required"
)

// LoginResult is what Login and CreatePassword hand back to the UI.
type LoginResult struct {
	Success            bool   `json:"success"`
	Error              string `json:"error,omitempty"`
	Email              string `json:"email,omitempty"`
	MustChangePassword bool   `json:"mustChangePassword,omitempty"`
	User               *User  `json:"user,omitempty"`
	Token              string `json:"token,omitempty"`
}

// normaliseEmail lower-cases and trims an email for set membership.
func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
