package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/event-companion-core/internal/backend"
	"github.com/nerrad567/event-companion-core/internal/catalog"
)

const msgCatalogUnavailable = "Não foi possível carregar os dados. Tente novamente."

type rateRequest struct {
	Stars  int    `json:"stars"`
	Reason string `json:"reason"`
}

// writeCatalogError maps catalog errors to responses.
func (s *Server) writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrEmptyID):
		writeBadRequest(w, "missing identifier")
	case errors.Is(err, catalog.ErrNotSignedIn):
		writeUnauthorized(w, msgNotSignedIn)
	case backend.IsNotFound(err):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	default:
		s.logger.Warn("catalog request failed", "error", err)
		msg := backend.MessageOf(err)
		if msg == "" {
			msg = msgCatalogUnavailable
		}
		writeUpstream(w, msg)
	}
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.catalog.Events(r.Context())
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.catalog.Event(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleGetAgenda(w http.ResponseWriter, r *http.Request) {
	agenda, err := s.catalog.Agenda(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agenda)
}

// handleGetSchedule returns the talks of one stage and track grouped by
// start time.
//
// Query parameters:
//   - stage, track: required
//   - speaker: case-insensitive speaker name filter
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	slots, err := s.catalog.Schedule(r.Context(), catalog.ScheduleQuery{
		EventID: chi.URLParam(r, "id"),
		StageID: q.Get("stage"),
		TrackID: q.Get("track"),
		Speaker: q.Get("speaker"),
	})
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (s *Server) handleSearchSpeakers(w http.ResponseWriter, r *http.Request) {
	speakers, err := s.catalog.SearchSpeakers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, speakers)
}

// handleGetRating returns the caller's rating of a talk; rating is null
// when there is none.
func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	rating, err := s.catalog.Rating(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rating": rating,
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	err := s.catalog.Rate(r.Context(), sessionFrom(r.Context()), catalog.RatingRequest{
		LectureID: chi.URLParam(r, "id"),
		Stars:     req.Stars,
		Reason:    req.Reason,
	})
	if msg := catalog.RatingMessage(err); msg != "" {
		writeValidation(w, msg)
		return
	}
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

// handleListSponsors returns the sponsor showcase.
//
// Query parameters:
//   - category: sponsorship tier, or "all"
//   - favourites: "true" to keep only the caller's favourites
func (s *Server) handleListSponsors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	favouritesOnly, _ := strconv.ParseBool(q.Get("favourites")) //nolint:errcheck // anything else means false

	favs, err := s.catalog.Favourites(ctx, sessionFrom(ctx))
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	sponsors, err := s.catalog.Sponsors(ctx, catalog.SponsorFilter{
		Category:       q.Get("category"),
		FavouritesOnly: favouritesOnly,
		Favourites:     favs,
	})
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}

	type sponsorView struct {
		backend.Sponsor
		Favourite bool `json:"favourite"`
	}
	out := make([]sponsorView, 0, len(sponsors))
	for _, sp := range sponsors {
		out = append(out, sponsorView{Sponsor: sp, Favourite: favs.Has(sp.ID.String())})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.catalog.Categories(r.Context())
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleToggleFavourite(w http.ResponseWriter, r *http.Request) {
	on, err := s.catalog.ToggleFavourite(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favourite": on})
}

// handleBanner returns the current banner; banner is null when none is active.
func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	b, err := s.catalog.Banner(r.Context())
	if err != nil {
		s.writeCatalogError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"banner": b})
}
