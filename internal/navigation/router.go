package navigation

import (
	"context"

	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
)

// Fixed texts.
const (
	MsgAccessDenied = "Seu perfil não tem acesso a este aplicativo."
	LogoutTitle     = "Sair do Aplicativo"
	LogoutMessage   = "Tem certeza que deseja sair do aplicativo?"
)

// Confirmer asks the operator to confirm an action.
type Confirmer interface {
	Confirm(ctx context.Context, title, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, title, message string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, title, message string) bool {
	return f(ctx, title, message)
}

// Logouter ends the session. *auth.Service implements it.
type Logouter interface {
	Logout(ctx context.Context)
}

// Auditor appends to the audit trail. *audit.Recorder implements it.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// Resolution is what the shell renders for a session.
type Resolution struct {
	Role      auth.Role `json:"role,omitempty"`
	Tabs      []Tab     `json:"tabs"`
	Notice    string    `json:"notice,omitempty"`
	LoggedOut bool      `json:"logged_out,omitempty"`
}

// Router resolves sessions to tab sets.
type Router struct {
	auth    Logouter
	auditor Auditor
	logger  *logging.Logger
}

// NewRouter creates a Router that logs out through l. auditor may be nil.
func NewRouter(l Logouter, auditor Auditor, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Router{auth: l, auditor: auditor, logger: logger.With("component", "navigation")}
}

// Resolve returns the tabs for sess. A nil session yields an empty
// resolution (the shell shows login). A session whose role is missing or
// unknown is logged out and gets MsgAccessDenied with no tabs.
func (r *Router) Resolve(ctx context.Context, sess *auth.Session) Resolution {
	if sess == nil {
		return Resolution{Tabs: []Tab{}}
	}
	return r.ResolveRole(ctx, string(sess.Role), sess.UserID)
}

// ResolveRole is Resolve for a raw role string.
func (r *Router) ResolveRole(ctx context.Context, rawRole, userID string) Resolution {
	role, ok := auth.ParseRole(rawRole)
	if ok {
		tabs, _ := Surfaces(role)
		return Resolution{Role: role, Tabs: tabs}
	}

	r.logger.Warn("access denied for role", "role", rawRole, "user_id", userID)
	if r.auditor != nil {
		r.auditor.Record(ctx, audit.Entry{
			Action:     audit.ActionAccessDenied,
			EntityType: audit.EntitySession,
			EntityID:   userID,
			UserID:     userID,
			Source:     audit.SourceApp,
			Details:    map[string]any{"role": rawRole},
		})
	}
	r.auth.Logout(ctx)
	return Resolution{Tabs: []Tab{}, Notice: MsgAccessDenied, LoggedOut: true}
}

// RequestLogout logs out only if c confirms. It reports whether the
// logout ran.
func (r *Router) RequestLogout(ctx context.Context, c Confirmer) bool {
	if c == nil || !c.Confirm(ctx, LogoutTitle, LogoutMessage) {
		return false
	}
	r.auth.Logout(ctx)
	return true
}
