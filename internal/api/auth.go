package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/navigation"
)

const msgInvalidResetCode = "Código inválido."

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// logoutRequest is the request body for POST /auth/logout. The shell asks
// the operator first and sends the answer.
type logoutRequest struct {
	Confirmed bool `json:"confirmed"`
}

// sessionResponse is the body of GET /session.
type sessionResponse struct {
	State      auth.State            `json:"state"`
	Session    *auth.Session         `json:"session,omitempty"`
	Navigation navigation.Resolution `json:"navigation"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Code string `json:"code"`
}

type resetResponse struct {
	Message          string `json:"message"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type syncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleSession returns the login state, the session and its tab bar.
// A session with an unknown role is logged out here.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := s.auth.Current()
	res := s.nav.Resolve(r.Context(), sess)
	if res.LoggedOut {
		sess = nil
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		State:      s.auth.State(),
		Session:    sess,
		Navigation: res,
	})
}

// handleLogin runs the login flow. Every outcome, including a rejected
// password, is a 200 with a LoginResult; only a malformed body is an error.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeValidation(w, auth.MsgFillAllFields)
		return
	}

	res := s.auth.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	res.Token = ""
	writeJSON(w, http.StatusOK, res)
}

// handleCreatePassword completes a first-access login.
func (s *Server) handleCreatePassword(w http.ResponseWriter, r *http.Request) {
	var req auth.CreatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	res := s.auth.CreatePassword(r.Context(), req)
	res.Token = ""
	writeJSON(w, http.StatusOK, res)
}

// handleLogout logs out when the body confirms it. The check-in verifier
// is abandoned through the auth state listener.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	confirm := navigation.ConfirmFunc(func(context.Context, string, string) bool { return req.Confirmed })
	done := s.nav.RequestLogout(r.Context(), confirm)
	writeJSON(w, http.StatusOK, map[string]any{
		"logged_out": done,
		"title":      navigation.LogoutTitle,
		"message":    navigation.LogoutMessage,
	})
}

// handleSyncEvents lists the events offered for legacy ticket sync.
func (s *Server) handleSyncEvents(w http.ResponseWriter, r *http.Request) {
	if !s.auth.SyncEnabled() || s.catalog == nil {
		writeJSON(w, http.StatusOK, map[string]any{"enabled": false, "events": []any{}})
		return
	}
	events, err := s.catalog.Events(r.Context())
	if err != nil {
		s.logger.Warn("listing events for sync failed", "error", err)
		writeUpstream(w, auth.MsgSyncFailed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"events":  s.auth.EligibleSyncEvents(events),
	})
}

// handleSync reconciles a ticket from the legacy ticketing platform.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req auth.SyncRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.EventID == "" || strings.TrimSpace(req.Ticket) == "" {
		writeValidation(w, auth.MsgFillAllFields)
		return
	}

	if s.auth.SyncWithLegacySystem(r.Context(), req) {
		writeJSON(w, http.StatusOK, syncResponse{Success: true, Message: auth.MsgSyncSuccess})
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{Success: false, Message: auth.MsgSyncFailed})
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	if s.reset == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, auth.MsgResetFailed)
		return
	}
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	msg, err := s.reset.RequestReset(r.Context(), req.Email)
	s.writeResetResult(w, msg, err)
}

func (s *Server) handleResetResend(w http.ResponseWriter, r *http.Request) {
	if s.reset == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, auth.MsgResetFailed)
		return
	}
	msg, err := s.reset.Resend(r.Context())
	s.writeResetResult(w, msg, err)
}

func (s *Server) handleResetVerify(w http.ResponseWriter, r *http.Request) {
	if s.reset == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, auth.MsgResetFailed)
		return
	}
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeValidation(w, auth.MsgFillAllFields)
		return
	}
	if err := s.reset.VerifyCode(r.Context(), req.Code); err != nil {
		s.writeResetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verified": true})
}

func (s *Server) writeResetResult(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		s.writeResetError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{
		Message:          msg,
		RemainingSeconds: int(s.reset.Remaining().Seconds()),
	})
}

// writeResetError maps reset flow errors to responses. Countdown errors
// carry the remaining time so the shell can keep its timer in step.
func (s *Server) writeResetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrPasswordEmpty):
		writeValidation(w, auth.MsgFillAllFields)
	case errors.Is(err, auth.ErrResetCodeActive):
		writeJSON(w, http.StatusConflict, map[string]any{
			"status":            http.StatusConflict,
			"code":              ErrCodeConflict,
			"message":           "code still valid",
			"remaining_seconds": int(s.reset.Remaining().Seconds()),
		})
	case errors.Is(err, auth.ErrResetNotRequested):
		writeError(w, http.StatusConflict, ErrCodeConflict, "no reset requested")
	case errors.Is(err, auth.ErrResetCodeExpired):
		writeError(w, http.StatusGone, "code_expired", "reset code expired")
	case errors.Is(err, auth.ErrResetCodeInvalid):
		writeValidation(w, msgInvalidResetCode)
	default:
		s.logger.Warn("password reset failed", "error", err)
		writeUpstream(w, auth.ResetMessage(err))
	}
}
