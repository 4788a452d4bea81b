package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nerrad567/event-companion-core/internal/audit"
)

// handleListAuditLogs returns one page of the on-device audit trail.
//
// Query parameters:
//   - action: login, login_failed, logout, checkin, sync, register, ...
//   - entity_type: session, checkin, user
//   - user_id: acting user
//   - limit (default 50, max 200), offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit trail not configured")
		return
	}

	filter, err := auditFilter(r.URL.Query())
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	page, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// auditFilter reads the list filter; the repository clamps the page size.
func auditFilter(q url.Values) (audit.Filter, error) {
	f := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		UserID:     q.Get("user_id"),
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return audit.Filter{}, fmt.Errorf("%s must be a non-negative integer", name)
		}
		*dst = n
	}
	return f, nil
}
