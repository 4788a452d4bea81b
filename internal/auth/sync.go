package auth

import (
	"context"
	"slices"
	"strings"

	"github.com/nerrad567/event-companion-core/internal/audit"
	"github.com/nerrad567/event-companion-core/internal/backend"
)

// Legacy sync messages shown by the UI.
const (
	MsgSyncSuccess   = "Sincronização realizada com sucesso"
	MsgSyncFailed    = "Erro na importação do Sympla. Por favor, procure a administração do evento."
	MsgFillAllFields = "Por favor, preencha todos os campos"
)

const maxMaskedTicketLen = 12

// SyncRequest identifies the ticket to reconcile.
type SyncRequest struct {
	Email   string `json:"email"`
	EventID string `json:"event_id"`
	Ticket  string `json:"ticket"`
}

// MaskTicket normalises a ticket number to XXXX-XX-XXXX: anything but ASCII
// letters and digits is dropped, letters are upper-cased and the result is
// cut at 12 characters.
func MaskTicket(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}

	v := b.String()
	if len(v) > 4 {
		v = v[:4] + "-" + v[4:]
	}
	if len(v) > 7 {
		v = v[:7] + "-" + v[7:]
	}
	if len(v) > maxMaskedTicketLen {
		v = v[:maxMaskedTicketLen]
	}
	return v
}

// SyncEnabled reports whether a reconciliation credential is configured.
func (s *Service) SyncEnabled() bool {
	return s.cfg.Sync.Enabled()
}

// EligibleSyncEvents drops hidden events and events with no ticketing
// platform mapping.
func (s *Service) EligibleSyncEvents(events []backend.Event) []backend.Event {
	out := make([]backend.Event, 0, len(events))
	for _, e := range events {
		id := e.ID.String()
		if slices.Contains(s.cfg.Sync.HiddenEvents, id) {
			continue
		}
		if _, ok := s.cfg.Sync.EventMap[id]; !ok {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SyncWithLegacySystem asks the backend to import the attendee's ticket
// from the ticketing platform. It logs in with the configured operational
// credential first. On success the email joins the synced set and the
// machine returns to StateUnauthenticated so the attendee can log in again,
// or to StateAuthenticated when someone is still signed in on the device.
// It is never retried.
func (s *Service) SyncWithLegacySystem(ctx context.Context, req SyncRequest) bool {
	if !s.cfg.Sync.Enabled() {
		s.logger.Warn("legacy sync requested but no credential is configured")
		return false
	}

	platformID, ok := s.cfg.Sync.EventMap[req.EventID]
	if !ok || slices.Contains(s.cfg.Sync.HiddenEvents, req.EventID) {
		s.logger.Info("legacy sync for unmapped event", "event_id", req.EventID)
		return false
	}
	ticket := MaskTicket(req.Ticket)
	if ticket == "" || normaliseEmail(req.Email) == "" {
		return false
	}

	admin, err := s.backend.Login(ctx, s.cfg.Sync.AdminEmail, s.cfg.Sync.AdminPassword)
	if err != nil {
		s.logger.Error("legacy sync admin login failed", "status", backend.StatusOf(err), "error", err)
		s.recordSync(ctx, req, false)
		return false
	}

	if err := s.backend.SyncParticipant(ctx, admin.Token, platformID, ticket); err != nil {
		s.logger.Warn("legacy sync rejected",
			"event_id", req.EventID, "status", backend.StatusOf(err), "error", err)
		s.recordSync(ctx, req, false)
		return false
	}

	if err := s.store.AddSyncedEmail(ctx, req.Email); err != nil {
		s.logger.Error("recording synced email", "error", err)
	}
	s.recordSync(ctx, req, true)
	s.settle()
	s.logger.Info("legacy sync succeeded", "event_id", req.EventID)
	return true
}

func (s *Service) recordSync(ctx context.Context, req SyncRequest, ok bool) {
	s.record(ctx, audit.Entry{
		Action:     audit.ActionSync,
		EntityType: audit.EntityUser,
		EntityID:   normaliseEmail(req.Email),
		Details:    map[string]any{"event_id": req.EventID, "success": ok},
	})
}
