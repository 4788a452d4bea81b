package api

import (
	"net/http"

	"github.com/nerrad567/event-companion-core/internal/registration"
)

// handleRegister enrols a booth staff member for the caller's company.
// Business failures are a 200 with ok=false, as the form shows them inline.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registration.Request
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	res := s.registration.Register(r.Context(), sessionFrom(r.Context()), req)
	writeJSON(w, http.StatusOK, res)
}
