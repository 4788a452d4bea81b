package audit

import (
	"context"
	"time"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
)

// writeTimeout bounds a single audit write so a slow disk never stalls a flow.
const writeTimeout = 2 * time.Second

// Recorder appends entries on a best-effort basis: a failed write is
// logged and otherwise ignored. A nil *Recorder records nothing.
type Recorder struct {
	repo   Repository
	logger *logging.Logger
}

// NewRecorder creates a Recorder over repo.
func NewRecorder(repo Repository, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recorder{repo: repo, logger: logger.With("component", "audit")}
}

// Record appends an entry. It never returns an error.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.repo.Create(ctx, &e); err != nil {
		r.logger.Warn("audit write failed", "action", e.Action, "error", err)
	}
}
