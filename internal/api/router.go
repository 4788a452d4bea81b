package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/navigation"
)

// buildRouter mounts everything under /api/v1. Guards nest: a session
// first, then the role's tab bar or an exact role.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID, s.accessLog, s.recoverPanics, s.cors, s.limitBody)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// Signed-out flows.
		r.Get("/session", s.handleSession)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/create-password", s.handleCreatePassword)
			r.Post("/logout", s.handleLogout)
			r.Post("/reset", s.handleResetRequest)
			r.Post("/reset/resend", s.handleResetResend)
			r.Post("/reset/verify", s.handleResetVerify)
		})
		r.Route("/sync", func(r chi.Router) {
			r.Get("/events", s.handleSyncEvents)
			r.Post("/", s.handleSync)
		})

		wsPath := s.wsCfg.Path
		if wsPath == "" {
			wsPath = "/ws"
		}
		r.Get(wsPath, s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Get("/banner", s.handleBanner)

			r.Group(func(r chi.Router) {
				r.Use(s.requireScreen(navigation.ScreenEvents))
				r.Get("/events", s.handleListEvents)
				r.Get("/events/{id}", s.handleGetEvent)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireScreen(navigation.ScreenAgenda))
				r.Get("/events/{id}/agenda", s.handleGetAgenda)
				r.Get("/events/{id}/schedule", s.handleGetSchedule)
				r.Get("/speakers", s.handleSearchSpeakers)
				r.Get("/lectures/{id}/rating", s.handleGetRating)
				r.Put("/lectures/{id}/rating", s.handleRate)
			})

			r.Route("/sponsors", func(r chi.Router) {
				r.Use(s.requireScreen(navigation.ScreenSponsors))
				r.Get("/", s.handleListSponsors)
				r.Get("/categories", s.handleListCategories)
				r.Post("/{id}/favourite", s.handleToggleFavourite)
			})

			r.Route("/checkin", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(s.requireScreen(navigation.ScreenCheckinScan))
					r.Get("/state", s.handleCheckinState)
					r.Post("/start", s.handleCheckinStart)
					r.Post("/scan", s.handleCheckinScan)
					r.Post("/reset", s.handleCheckinReset)
					r.Post("/stop", s.handleCheckinStop)
				})
				r.Group(func(r chi.Router) {
					r.Use(s.requireScreen(navigation.ScreenCheckinList))
					r.Get("/list", s.handleCheckinList)
					r.Get("/export", s.handleCheckinExport)
				})
			})

			r.With(s.requireScreen(navigation.ScreenRegister)).Post("/register", s.handleRegister)

			r.With(s.requireRole(auth.RoleEstandeAdmin)).Get("/audit", s.handleListAuditLogs)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
