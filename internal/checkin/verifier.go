package checkin

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/backend"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
)

// Backend is the subset of the REST client the check-in flow uses.
type Backend interface {
	CompanyForUser(ctx context.Context, token, userID string) (backend.ID, error)
	Checkin(ctx context.Context, token, code, companyID string) error
	BoothCheckins(ctx context.Context, token, companyID string) ([]backend.BoothCheckin, error)
}

// Sessions yields the logged-in operator. *auth.Service implements it.
type Sessions interface {
	Current() *auth.Session
}

// Verifier runs the scan state machine for one device.
//
// Thread Safety: all methods are safe for concurrent use. Scan may be
// called from any number of goroutines; at most one submission happens
// per armed scan.
type Verifier struct {
	backend  Backend
	sessions Sessions
	logger   *logging.Logger
	now      func() time.Time

	mu        sync.Mutex
	state     State
	scanned   bool
	attempt   string
	inFlight  bool // a Checkin call has not returned, even if abandoned
	listeners []func(Event)
	sinks     []Sink

	sinkWG sync.WaitGroup
}

// NewVerifier creates a Verifier in StatusIdle.
func NewVerifier(b Backend, sessions Sessions, logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Verifier{
		backend:  b,
		sessions: sessions,
		logger:   logger.With("component", "checkin"),
		now:      time.Now,
		state:    State{Status: StatusIdle},
	}
}

// OnEvent registers fn for every transition. fn must not block.
func (v *Verifier) OnEvent(fn func(Event)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// AddSink registers a best-effort consumer of resolved outcomes.
func (v *Verifier) AddSink(s Sink) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sinks = append(v.sinks, s)
}

// State returns the current state.
func (v *Verifier) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Start arms the scanner (camera active). It is a no-op unless Idle.
func (v *Verifier) Start() State {
	v.mu.Lock()
	if v.state.Status != StatusIdle {
		st := v.state
		v.mu.Unlock()
		return st
	}
	return v.transitionLocked(State{Status: StatusScanning}, "")
}

// Reset re-arms the scanner after a resolved scan ("new check-in").
func (v *Verifier) Reset() (State, error) {
	v.mu.Lock()
	switch {
	case v.state.Status == StatusResolving:
		st := v.state
		v.mu.Unlock()
		return st, ErrResolving
	case !v.state.Status.Resolved():
		st := v.state
		v.mu.Unlock()
		return st, nil
	}
	v.scanned = false
	v.attempt = ""
	return v.transitionLocked(State{Status: StatusScanning}, ""), nil
}

// Stop returns to Idle (camera off). It is refused while resolving.
func (v *Verifier) Stop() (State, error) {
	v.mu.Lock()
	if v.state.Status == StatusResolving {
		st := v.state
		v.mu.Unlock()
		return st, ErrResolving
	}
	v.scanned = false
	v.attempt = ""
	if v.state.Status == StatusIdle {
		st := v.state
		v.mu.Unlock()
		return st, nil
	}
	return v.transitionLocked(State{Status: StatusIdle}, ""), nil
}

// Scan submits a decoded QR code. Only the first call after Start or
// Reset is accepted; later calls return ErrNotScanning without I/O. While
// an abandoned submission is still outstanding Scan returns ErrResolving.
func (v *Verifier) Scan(ctx context.Context, code string) (State, error) {
	code = strings.TrimSpace(code)

	v.mu.Lock()
	if v.state.Status != StatusScanning || v.scanned {
		st := v.state
		v.mu.Unlock()
		return st, ErrNotScanning
	}
	if code == "" {
		st := v.state
		v.mu.Unlock()
		return st, ErrEmptyCode
	}
	if v.inFlight {
		st := v.state
		v.mu.Unlock()
		return st, ErrResolving
	}
	v.inFlight = true
	v.scanned = true
	v.attempt = uuid.NewString()
	attempt := v.attempt
	v.transitionLocked(State{Status: StatusResolving}, attempt)

	started := v.now()
	st, companyID, operatorID := v.resolve(ctx, code)
	return v.finish(ctx, attempt, st, companyID, operatorID, started), nil
}

// resolve performs the company lookup and the check-in call.
func (v *Verifier) resolve(ctx context.Context, code string) (st State, companyID, operatorID string) {
	sess := v.sessions.Current()
	if sess == nil || !sess.Role.IsBoothStaff() {
		v.logger.Warn("scan without booth operator", "error", ErrNoOperator)
		return State{Status: StatusError, Message: MsgFailed}, "", ""
	}
	operatorID = sess.UserID

	id, err := v.backend.CompanyForUser(ctx, sess.Token, sess.UserID)
	if err != nil || id == "" {
		v.logger.Warn("company lookup failed", "user_id", sess.UserID, "error", err)
		return State{Status: StatusError, Message: MsgCompanyNotFound}, "", operatorID
	}
	companyID = id.String()

	if err := v.backend.Checkin(ctx, sess.Token, code, companyID); err != nil {
		return classify(err), companyID, operatorID
	}
	return State{Status: StatusSuccess, Message: MsgSuccess}, companyID, operatorID
}

// classify maps a check-in failure to Warning or Error.
func classify(err error) State {
	msg := backend.MessageOf(err)
	if msg == MsgAlreadyCheckedIn || backend.StatusOf(err) == http.StatusConflict {
		if msg == "" {
			msg = MsgAlreadyCheckedIn
		}
		return State{Status: StatusWarning, Message: msg}
	}
	if msg == "" {
		msg = MsgFailed
	}
	return State{Status: StatusError, Message: msg}
}

func (v *Verifier) finish(ctx context.Context, attempt string, st State, companyID, operatorID string, started time.Time) State {
	v.mu.Lock()
	v.inFlight = false
	if v.attempt != attempt {
		// Abandoned mid-flight.
		cur := v.state
		v.mu.Unlock()
		return cur
	}
	at := v.now()
	sinks := slices.Clone(v.sinks)
	v.transitionLocked(st, attempt)

	out := Outcome{
		AttemptID:  attempt,
		CompanyID:  companyID,
		OperatorID: operatorID,
		Status:     st.Status,
		Message:    st.Message,
		Latency:    at.Sub(started),
		At:         at,
	}
	v.logger.Info("scan resolved",
		"attempt_id", attempt, "company_id", companyID,
		"outcome", st.Status, "latency_ms", out.Latency.Milliseconds())

	if len(sinks) > 0 {
		v.sinkWG.Add(1)
		go func() {
			defer v.sinkWG.Done()
			sinkCtx := context.WithoutCancel(ctx)
			for _, s := range sinks {
				s.Resolved(sinkCtx, out)
			}
		}()
	}
	return st
}

// Abandon drops any in-flight scan and returns to Idle. It is used on
// logout, when the operator's token is no longer valid. The outstanding
// Checkin call keeps the scanner closed until it returns.
func (v *Verifier) Abandon() {
	v.mu.Lock()
	v.scanned = false
	v.attempt = ""
	if v.state.Status == StatusIdle {
		v.mu.Unlock()
		return
	}
	v.transitionLocked(State{Status: StatusIdle}, "")
}

// Wait blocks until every dispatched sink call has returned.
func (v *Verifier) Wait() {
	v.sinkWG.Wait()
}

// transitionLocked sets the state, releases v.mu and notifies listeners.
// The caller must hold v.mu.
func (v *Verifier) transitionLocked(st State, attempt string) State {
	v.state = st
	listeners := slices.Clone(v.listeners)
	ev := Event{AttemptID: attempt, State: st, At: v.now()}
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
	return st
}
