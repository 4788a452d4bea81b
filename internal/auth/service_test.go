package auth

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/backend"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
)

// fakeBackend answers Login from a credential table.
type fakeBackend struct {
	mu         sync.Mutex
	accounts   map[string]account // keyed by email
	logins     int
	created    []string
	createErr  error
	syncErr    error
	syncCalls  int
	syncTokens []string
}

type account struct {
	password string
	resp     backend.LoginResponse
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (*backend.LoginResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		return nil, &backend.APIError{Status: http.StatusUnauthorized, Message: "Credenciais inválidas"}
	}
	resp := acc.resp
	return &resp, nil
}

func (f *fakeBackend) CreatePassword(_ context.Context, token, userID, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, userID+":"+token)
	for email, acc := range f.accounts {
		if acc.resp.User.ID.String() == userID {
			acc.password = password
			acc.resp.MustChangePassword = false
			f.accounts[email] = acc
		}
	}
	return "Senha criada", nil
}

func (f *fakeBackend) SyncParticipant(_ context.Context, adminToken, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	f.syncTokens = append(f.syncTokens, adminToken)
	return f.syncErr
}

// memStore is an in-memory Store.
type memStore struct {
	mu     sync.Mutex
	sess   *Session
	synced map[string]struct{}
	saves  int
	clears int
	err    error
}

func newMemStore() *memStore { return &memStore{synced: map[string]struct{}{}} }

func (m *memStore) Load(context.Context) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil, false
	}
	cp := *m.sess
	return &cp, true
}

func (m *memStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.sess = &s
	return nil
}

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.sess = nil
	return nil
}

func (m *memStore) SyncedEmails(context.Context) map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{}, len(m.synced))
	for k := range m.synced {
		out[k] = struct{}{}
	}
	return out
}

func (m *memStore) AddSyncedEmail(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced[normaliseEmail(email)] = struct{}{}
	return nil
}

type countingCache struct{ clears int }

func (c *countingCache) Clear() { c.clears++ }

type captureAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *captureAuditor) Record(_ context.Context, e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *captureAuditor) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

func loginResp(id, role string, mustChange bool) backend.LoginResponse {
	return backend.LoginResponse{
		User:               backend.User{ID: backend.ID(id), Role: role, Name: "Ana"},
		Token:              "tok-" + id,
		MustChangePassword: mustChange,
	}
}

func newTestService(t *testing.T) (*Service, *fakeBackend, *memStore, *countingCache) {
	t.Helper()
	fb := &fakeBackend{accounts: map[string]account{
		"ana@example.test":   {password: "s3cret!", resp: loginResp("1", "user", false)},
		"booth@example.test": {password: "booth-pass", resp: loginResp("2", "estande", false)},
		"new@example.test":   {password: "new@example.test", resp: loginResp("3", "user", false)},
		"flag@example.test":  {password: "temp-pass", resp: loginResp("4", "estandeAdmin", true)},
		"odd@example.test":   {password: "odd-pass", resp: loginResp("5", "superuser", false)},
	}}
	store := newMemStore()
	cache := &countingCache{}
	svc := NewService(fb, store, cache, ServiceConfig{
		Sync: config.SyncConfig{
			AdminEmail:    "ops@example.test",
			AdminPassword: "ops-pass",
			EventMap:      map[string]string{"1": "s2ac649"},
			HiddenEvents:  []string{"5"},
		},
	}, nil)
	fb.accounts["ops@example.test"] = account{password: "ops-pass", resp: loginResp("99", "admin", false)}
	return svc, fb, store, cache
}

func TestLogin_Success(t *testing.T) {
	svc, _, store, _ := newTestService(t)
	aud := &captureAuditor{}
	svc.SetAuditor(aud)

	var states []State
	svc.OnStateChange(func(s State) { states = append(states, s) })

	res := svc.Login(t.Context(), "booth@example.test", "booth-pass")
	if !res.Success || res.User == nil || res.User.ID != "2" {
		t.Fatalf("Login() = %+v, want success for user 2", res)
	}
	if res.Token != "" {
		t.Error("Login() result should not carry the token for a completed login")
	}
	if svc.State() != StateAuthenticated {
		t.Errorf("State() = %v, want authenticated", svc.State())
	}
	if cur := svc.Current(); cur == nil || cur.Role != RoleEstande || cur.Token != "tok-2" {
		t.Errorf("Current() = %+v", cur)
	}
	if store.sess == nil || store.sess.UserID != "2" {
		t.Errorf("session not persisted: %+v", store.sess)
	}
	if len(states) != 2 || states[0] != StateAuthenticating || states[1] != StateAuthenticated {
		t.Errorf("transitions = %v", states)
	}
	if got := aud.actions(); len(got) != 1 || got[0] != audit.ActionLogin {
		t.Errorf("audit actions = %v", got)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		synced    bool
		wantError string
		wantState State
	}{
		{"wrong password", "ana@example.test", "nope", false, MsgInvalidCredentials, StateFailed},
		{"unknown account", "ghost@example.test", "x", false, MsgInvalidCredentials, StateFailed},
		{"email as password not synced", "legacy@example.test", "legacy@example.test", false, ErrCodeSyncRequired, StateSyncRequired},
		{"email as password with stray blanks", "legacy@example.test", " legacy@example.test ", false, ErrCodeSyncRequired, StateSyncRequired},
		{"email as password already synced", "legacy@example.test", "legacy@example.test", true, MsgInvalidCredentials, StateFailed},
		{"synced check ignores case", "Legacy@Example.test", "Legacy@Example.test", true, MsgInvalidCredentials, StateFailed},
		{"unknown role fails closed", "odd@example.test", "odd-pass", false, MsgInvalidCredentials, StateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, store, _ := newTestService(t)
			if tt.synced {
				store.synced["legacy@example.test"] = struct{}{}
			}

			res := svc.Login(t.Context(), tt.email, tt.password)
			if res.Success {
				t.Fatalf("Login() succeeded: %+v", res)
			}
			if res.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", res.Error, tt.wantError)
			}
			if tt.wantState == StateSyncRequired && res.Email != tt.email {
				t.Errorf("Email = %q, want %q", res.Email, tt.email)
			}
			if svc.State() != tt.wantState {
				t.Errorf("State() = %v, want %v", svc.State(), tt.wantState)
			}
			if store.saves != 0 || svc.Current() != nil {
				t.Error("a failed login must not create a session")
			}
		})
	}
}

func TestLogin_FirstAccess(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"password equals email", "new@example.test", "new@example.test"},
		{"backend flag", "flag@example.test", "temp-pass"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, store, _ := newTestService(t)

			res := svc.Login(t.Context(), tt.email, tt.password)
			if !res.Success || !res.MustChangePassword || res.User == nil || res.Token == "" {
				t.Fatalf("Login() = %+v, want first-access result", res)
			}
			if svc.State() != StateFirstAccessPending {
				t.Errorf("State() = %v, want first_access_pending", svc.State())
			}
			if store.saves != 0 || svc.Current() != nil {
				t.Error("first-access login must not persist a session")
			}
		})
	}
}

func TestCreatePassword(t *testing.T) {
	svc, fb, store, _ := newTestService(t)
	ctx := t.Context()

	if res := svc.CreatePassword(ctx, CreatePasswordRequest{Password: "abcdef", Confirm: "abcdef"}); res.Success {
		t.Fatal("CreatePassword() without a pending first access should fail")
	}

	svc.Login(ctx, "new@example.test", "new@example.test")

	res := svc.CreatePassword(ctx, CreatePasswordRequest{Password: "abc", Confirm: "abc"})
	if res.Success || res.Error != "A senha deve conter pelo menos 6 caracteres." {
		t.Errorf("short password result = %+v", res)
	}
	if svc.State() != StateFirstAccessPending {
		t.Errorf("validation failure changed state to %v", svc.State())
	}

	res = svc.CreatePassword(ctx, CreatePasswordRequest{Password: "brand-new", Confirm: "brand-new"})
	if !res.Success || res.MustChangePassword {
		t.Fatalf("CreatePassword() = %+v, want completed login", res)
	}
	if len(fb.created) != 1 || fb.created[0] != "3:tok-3" {
		t.Errorf("create calls = %v", fb.created)
	}
	if svc.State() != StateAuthenticated || store.sess == nil {
		t.Errorf("State() = %v, persisted = %+v", svc.State(), store.sess)
	}
}

func TestCreatePassword_BackendMessage(t *testing.T) {
	svc, fb, _, _ := newTestService(t)
	fb.createErr = &backend.APIError{Status: http.StatusBadRequest, Message: "Token expirado"}

	svc.Login(t.Context(), "new@example.test", "new@example.test")
	res := svc.CreatePassword(t.Context(), CreatePasswordRequest{Password: "brand-new", Confirm: "brand-new"})
	if res.Success || res.Error != "Token expirado" {
		t.Errorf("CreatePassword() = %+v", res)
	}
}

func TestLogout(t *testing.T) {
	svc, _, store, cache := newTestService(t)
	ctx := t.Context()

	svc.Login(ctx, "ana@example.test", "s3cret!")
	svc.Logout(ctx)

	if svc.State() != StateUnauthenticated || svc.Current() != nil {
		t.Errorf("after Logout() state = %v, session = %+v", svc.State(), svc.Current())
	}
	if store.sess != nil {
		t.Error("persisted session survived Logout()")
	}
	if cache.clears != 1 {
		t.Errorf("cache cleared %d times, want 1", cache.clears)
	}

	svc.Logout(ctx)
	if svc.State() != StateUnauthenticated || cache.clears != 2 || store.clears != 2 {
		t.Error("second Logout() should still clear and stay unauthenticated")
	}
}

func TestLogin_SaveFailureKeepsMemorySession(t *testing.T) {
	svc, _, store, _ := newTestService(t)
	store.err = ErrIncompleteSession

	res := svc.Login(t.Context(), "ana@example.test", "s3cret!")
	if !res.Success || svc.Current() == nil {
		t.Errorf("Login() = %+v; a persistence failure must not fail the login", res)
	}
}

func TestRestore(t *testing.T) {
	svc, _, store, _ := newTestService(t)
	store.sess = &Session{UserID: "7", Role: RoleUser, Token: "t"}

	sess, ok := svc.Restore(t.Context())
	if !ok || sess.UserID != "7" || svc.State() != StateAuthenticated {
		t.Errorf("Restore() = %+v, %v; state %v", sess, ok, svc.State())
	}

	store.sess = nil
	if _, ok := svc.Restore(t.Context()); ok || svc.State() != StateUnauthenticated {
		t.Error("Restore() with nothing persisted should be unauthenticated")
	}
}

func TestLogin_FailedAttemptKeepsSignedInSession(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantState State
	}{
		{"wrong password", "ana@example.test", "typo", StateFailed},
		{"sync required", "legacy@example.test", "legacy@example.test", StateSyncRequired},
		{"first access pending", "new@example.test", "new@example.test", StateFirstAccessPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, store, cache := newTestService(t)
			ctx := t.Context()
			svc.Login(ctx, "ana@example.test", "s3cret!")

			svc.Login(ctx, tt.email, tt.password)
			if svc.State() != tt.wantState {
				t.Errorf("State() = %v, want %v", svc.State(), tt.wantState)
			}
			if cur := svc.Current(); cur == nil || cur.UserID != "1" {
				t.Errorf("Current() = %+v, want ana's session", cur)
			}
			if store.sess == nil || store.sess.UserID != "1" || store.saves != 1 {
				t.Errorf("persisted = %+v after %d saves", store.sess, store.saves)
			}
			if cache.clears != 0 {
				t.Errorf("cache cleared %d times", cache.clears)
			}
		})
	}
}

func TestLogin_OtherUserReplacesSession(t *testing.T) {
	svc, _, store, cache := newTestService(t)
	ctx := t.Context()

	svc.Login(ctx, "ana@example.test", "s3cret!")
	svc.Login(ctx, "ana@example.test", "s3cret!")
	if cache.clears != 0 {
		t.Errorf("same user re-login cleared the cache %d times", cache.clears)
	}

	svc.Login(ctx, "booth@example.test", "booth-pass")
	if cur := svc.Current(); cur == nil || cur.UserID != "2" {
		t.Errorf("Current() = %+v, want user 2", cur)
	}
	if store.sess == nil || store.sess.UserID != "2" {
		t.Errorf("persisted = %+v, want user 2", store.sess)
	}
	if cache.clears != 1 {
		t.Errorf("cache cleared %d times, want 1", cache.clears)
	}
}
