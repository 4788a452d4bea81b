package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/event-companion-core/internal/backend"
)

// Password reset messages.
const (
	MsgResetSent   = "Link de recuperação enviado para seu e-mail!"
	MsgResetFailed = "Erro ao enviar link de recuperação."
)

// ResetBackend is the subset of the REST client the reset flow uses.
type ResetBackend interface {
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	VerifyResetCode(ctx context.Context, code string) error
}

// ResetFlow tracks one password-reset request and its code countdown.
// The countdown is fixed: there is no automatic resend, and Resend is only
// accepted once the code has expired.
type ResetFlow struct {
	backend ResetBackend
	ttl     time.Duration
	now     func() time.Time

	mu        sync.Mutex
	email     string
	expiresAt time.Time
}

// NewResetFlow creates a flow whose codes live for ttl.
func NewResetFlow(b ResetBackend, ttl time.Duration) *ResetFlow {
	return &ResetFlow{backend: b, ttl: ttl, now: time.Now}
}

// RequestReset asks the backend to email a code to email and starts the
// countdown. The returned message is the server's, or MsgResetSent. A
// running countdown only blocks a repeat request for the same address; a
// corrected address starts over.
func (f *ResetFlow) RequestReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrPasswordEmpty
	}

	f.mu.Lock()
	active := strings.EqualFold(f.email, email) && f.now().Before(f.expiresAt)
	f.mu.Unlock()
	if active {
		return "", ErrResetCodeActive
	}
	return f.send(ctx, email)
}

// Resend requests a fresh code for the same address after expiry.
func (f *ResetFlow) Resend(ctx context.Context) (string, error) {
	f.mu.Lock()
	email, expiresAt := f.email, f.expiresAt
	f.mu.Unlock()

	if email == "" {
		return "", ErrResetNotRequested
	}
	if f.now().Before(expiresAt) {
		return "", ErrResetCodeActive
	}
	return f.send(ctx, email)
}

func (f *ResetFlow) send(ctx context.Context, email string) (string, error) {
	msg, err := f.backend.RequestPasswordReset(ctx, email)
	if err != nil {
		return "", fmt.Errorf("requesting password reset: %w", err)
	}

	f.mu.Lock()
	f.email = email
	f.expiresAt = f.now().Add(f.ttl)
	f.mu.Unlock()

	if msg == "" {
		msg = MsgResetSent
	}
	return msg, nil
}

// Remaining returns the time left on the current code, or 0.
func (f *ResetFlow) Remaining() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.email == "" {
		return 0
	}
	if left := f.expiresAt.Sub(f.now()); left > 0 {
		return left
	}
	return 0
}

// VerifyCode checks code against the backend while the countdown runs.
func (f *ResetFlow) VerifyCode(ctx context.Context, code string) error {
	f.mu.Lock()
	email, expiresAt := f.email, f.expiresAt
	f.mu.Unlock()

	switch {
	case email == "":
		return ErrResetNotRequested
	case !f.now().Before(expiresAt):
		return ErrResetCodeExpired
	}

	if err := f.backend.VerifyResetCode(ctx, strings.TrimSpace(code)); err != nil {
		if status := backend.StatusOf(err); status >= 400 && status < 500 {
			return fmt.Errorf("%w: %s", ErrResetCodeInvalid, backend.MessageOf(err))
		}
		return fmt.Errorf("verifying reset code: %w", err)
	}
	return nil
}

// ResetMessage maps a reset flow error to the UI message.
func ResetMessage(err error) string {
	if msg := backend.MessageOf(err); msg != "" {
		return msg
	}
	return MsgResetFailed
}
