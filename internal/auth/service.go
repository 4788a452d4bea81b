package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/backend"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
)

// Backend is the subset of the REST client the auth flows use.
type Backend interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResponse, error)
	CreatePassword(ctx context.Context, token, userID, password string) (string, error)
	SyncParticipant(ctx context.Context, adminToken, platformEventID, ticket string) error
}

// Store persists the session between runs. *SessionStore implements it.
type Store interface {
	Load(ctx context.Context) (*Session, bool)
	Save(ctx context.Context, sess Session) error
	Clear(ctx context.Context) error
	SyncedEmails(ctx context.Context) map[string]struct{}
	AddSyncedEmail(ctx context.Context, email string) error
}

// CacheClearer drops every cached catalog entry. *cache.Store implements it.
type CacheClearer interface {
	Clear()
}

// Auditor appends to the audit trail. *audit.Recorder implements it.
type Auditor interface {
	Record(ctx context.Context, e audit.Entry)
}

// ServiceConfig holds the settings the auth flows read.
type ServiceConfig struct {
	Sync              config.SyncConfig
	MinPasswordLength int
}

// firstAccess is a successful login that still has to choose a password.
type firstAccess struct {
	user  User
	token string
	email string
}

// Service is the login state machine. It owns the in-memory session; the
// Store mirrors it on disk.
//
// Thread Safety: all methods are safe for concurrent use. No lock is held
// across backend calls.
type Service struct {
	backend Backend
	store   Store
	cache   CacheClearer
	auditor Auditor
	cfg     ServiceConfig
	logger  *logging.Logger

	mu        sync.RWMutex
	state     State
	session   *Session
	pending   *firstAccess
	listeners []func(State)
}

// NewService creates a Service in StateUnauthenticated. cache may be nil.
func NewService(b Backend, store Store, cache CacheClearer, cfg ServiceConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = DefaultMinPasswordLength
	}
	s := &Service{
		backend: b,
		store:   store,
		cache:   cache,
		cfg:     cfg,
		logger:  logger.With("component", "auth"),
	}
	if cfg.Sync.Enabled() {
		s.logger.Warn("legacy sync enabled with a privileged credential", "admin", logging.Redact(cfg.Sync.AdminEmail))
	}
	return s
}

// SetAuditor attaches an audit trail.
func (s *Service) SetAuditor(a Auditor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditor = a
}

// OnStateChange registers fn to be called after every state transition.
// fn runs on the goroutine that caused the transition and must not block.
func (s *Service) OnStateChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// State returns the current login state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Current returns a copy of the active session, or nil.
func (s *Service) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// Restore loads a persisted session at start-up.
func (s *Service) Restore(ctx context.Context) (*Session, bool) {
	sess, ok := s.store.Load(ctx)
	if !ok {
		s.setState(StateUnauthenticated, nil, nil)
		return nil, false
	}
	s.setState(StateAuthenticated, sess, nil)
	s.logger.Info("session restored", "user_id", sess.UserID, "role", sess.Role)
	cp := *sess
	return &cp, true
}

// Login authenticates against the backend. Failures are reported in the
// result, never as an error. A session already held survives a failed or
// unfinished attempt; only a completed login replaces it.
func (s *Service) Login(ctx context.Context, email, password string) LoginResult {
	s.setFlow(StateAuthenticating, nil)

	emailAsPassword := passwordIsEmail(email, password)

	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		if emailAsPassword && !s.isSynced(ctx, email) {
			s.logger.Info("login needs legacy sync", "status", backend.StatusOf(err))
			s.setFlow(StateSyncRequired, nil)
			return LoginResult{Success: false, Error: ErrCodeSyncRequired, Email: email}
		}
		s.logger.Info("login failed", "status", backend.StatusOf(err), "error", err)
		s.record(ctx, audit.Entry{
			Action:     audit.ActionLoginFailed,
			EntityType: audit.EntitySession,
			Details:    map[string]any{"status": backend.StatusOf(err)},
		})
		s.setFlow(StateFailed, nil)
		return LoginResult{Success: false, Error: MsgInvalidCredentials}
	}

	user := userFromBackend(resp.User, email)

	if emailAsPassword || resp.MustChangePassword {
		s.setFlow(StateFirstAccessPending, &firstAccess{user: user, token: resp.Token, email: email})
		return LoginResult{Success: true, MustChangePassword: true, User: &user, Token: resp.Token}
	}

	role, ok := ParseRole(user.Role)
	if !ok {
		s.logger.Warn("login rejected: unknown role", "user_id", user.ID, "role", user.Role)
		s.record(ctx, audit.Entry{
			Action:     audit.ActionAccessDenied,
			EntityType: audit.EntityUser,
			EntityID:   user.ID,
			UserID:     user.ID,
			Details:    map[string]any{"role": user.Role},
		})
		s.setFlow(StateFailed, nil)
		return LoginResult{Success: false, Error: MsgInvalidCredentials}
	}

	sess := &Session{
		UserID: user.ID,
		Role:   role,
		Token:  resp.Token,
		Ticket: user.Ticket,
		Email:  user.Email,
	}
	if prev := s.Current(); prev != nil && prev.UserID != sess.UserID && s.cache != nil {
		s.cache.Clear()
	}
	if err := s.store.Save(ctx, *sess); err != nil {
		s.logger.Error("persisting session", "user_id", sess.UserID, "error", err)
	}

	s.setState(StateAuthenticated, sess, nil)
	s.record(ctx, audit.Entry{
		Action:     audit.ActionLogin,
		EntityType: audit.EntitySession,
		EntityID:   sess.UserID,
		UserID:     sess.UserID,
		Details:    map[string]any{"role": string(sess.Role)},
	})
	s.logger.Info("login succeeded", "user_id", sess.UserID, "role", sess.Role)
	return LoginResult{Success: true, User: &user}
}

// CreatePasswordRequest is the first-access password form.
type CreatePasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// CreatePassword sets the password of a pending first-access account and
// then logs in with it.
func (s *Service) CreatePassword(ctx context.Context, req CreatePasswordRequest) LoginResult {
	s.mu.RLock()
	pending := s.pending
	s.mu.RUnlock()

	if pending == nil {
		s.logger.Warn("create password without first-access login", "error", ErrNoFirstAccess)
		return LoginResult{Success: false, Error: MsgCreatePassword}
	}
	if err := ValidateNewPassword(req.Password, req.Confirm, pending.email, s.cfg.MinPasswordLength); err != nil {
		return LoginResult{Success: false, Error: PasswordMessage(err)}
	}

	if _, err := s.backend.CreatePassword(ctx, pending.token, pending.user.ID, req.Password); err != nil {
		s.logger.Warn("create password failed", "user_id", pending.user.ID, "error", err)
		msg := backend.MessageOf(err)
		if msg == "" {
			msg = MsgCreatePassword
		}
		return LoginResult{Success: false, Error: msg}
	}

	s.record(ctx, audit.Entry{
		Action:     audit.ActionPassword,
		EntityType: audit.EntityUser,
		EntityID:   pending.user.ID,
		UserID:     pending.user.ID,
	})
	return s.Login(ctx, pending.email, req.Password)
}

// Logout drops the session, the persisted state and every cache entry.
// Calling it when already logged out is a no-op apart from the clears.
func (s *Service) Logout(ctx context.Context) {
	s.mu.Lock()
	prev := s.session
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Clear()
	}
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("clearing persisted session", "error", err)
	}
	s.setState(StateUnauthenticated, nil, nil)

	if prev != nil {
		s.record(ctx, audit.Entry{
			Action:     audit.ActionLogout,
			EntityType: audit.EntitySession,
			EntityID:   prev.UserID,
			UserID:     prev.UserID,
		})
		s.logger.Info("logged out", "user_id", prev.UserID)
	}
}

// passwordIsEmail spots a legacy account whose password is still its
// email, ignoring the surrounding blanks a keyboard may add to either.
func passwordIsEmail(email, password string) bool {
	e := strings.TrimSpace(email)
	return e != "" && e == strings.TrimSpace(password)
}

func (s *Service) isSynced(ctx context.Context, email string) bool {
	_, ok := s.store.SyncedEmails(ctx)[normaliseEmail(email)]
	return ok
}

// setState replaces state, session and pending together and notifies listeners.
func (s *Service) setState(st State, sess *Session, pending *firstAccess) {
	s.mu.Lock()
	s.session = sess
	s.transitionLocked(st, pending)
}

// setFlow moves the login flow along without touching the session.
func (s *Service) setFlow(st State, pending *firstAccess) {
	s.mu.Lock()
	s.transitionLocked(st, pending)
}

// settle ends a flow: back to StateAuthenticated while a session is held,
// StateUnauthenticated otherwise.
func (s *Service) settle() {
	s.mu.Lock()
	st := StateUnauthenticated
	if s.session != nil {
		st = StateAuthenticated
	}
	s.transitionLocked(st, nil)
}

// transitionLocked releases s.mu before notifying listeners.
func (s *Service) transitionLocked(st State, pending *firstAccess) {
	s.state = st
	s.pending = pending
	listeners := make([]func(State), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}

func (s *Service) record(ctx context.Context, e audit.Entry) {
	s.mu.RLock()
	a := s.auditor
	s.mu.RUnlock()
	if a == nil {
		return
	}
	if e.Source == "" {
		e.Source = audit.SourceApp
	}
	a.Record(ctx, e)
}
