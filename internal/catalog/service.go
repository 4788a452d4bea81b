package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/event-companion-core/internal/backend"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
)

// Backend is the subset of the REST client the catalog needs beyond the
// cached lists.
type Backend interface {
	Event(ctx context.Context, eventID string) (*backend.EventDetails, error)
	Favourites(ctx context.Context, userID string) ([]backend.Favourite, error)
	AddFavourite(ctx context.Context, token, userID, companyID string) (backend.ID, error)
	RemoveFavourite(ctx context.Context, token, favouriteID string) error
	Rating(ctx context.Context, lectureID, userID string) (*backend.Rating, error)
	SaveRating(ctx context.Context, token string, r backend.Rating, replace bool) error
	CurrentBanner(ctx context.Context) (*backend.Banner, error)
}

// Cache is the cached list surface. *cache.Store satisfies it.
type Cache interface {
	Events(ctx context.Context) ([]backend.Event, error)
	Speakers(ctx context.Context) ([]backend.Speaker, error)
	Categories(ctx context.Context) ([]backend.Category, error)
	Sponsors(ctx context.Context) ([]backend.Sponsor, error)
	Agenda(ctx context.Context, eventID string) (*backend.Agenda, error)
	Lectures(ctx context.Context, eventID, stageID, trackID string) ([]backend.Lecture, error)
}

// Service answers catalog queries for the UI.
type Service struct {
	backend Backend
	cache   Cache
	loc     *time.Location
	logger  *logging.Logger
}

// NewService creates a catalog Service. Talk times are rendered in loc;
// nil means UTC.
func NewService(b Backend, c Cache, loc *time.Location, logger *logging.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		backend: b,
		cache:   c,
		loc:     loc,
		logger:  logger.With("component", "catalog"),
	}
}

// Events returns the event list.
func (s *Service) Events(ctx context.Context) ([]backend.Event, error) {
	events, err := s.cache.Events(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// Event returns one event's details.
func (s *Service) Event(ctx context.Context, eventID string) (*backend.EventDetails, error) {
	if eventID == "" {
		return nil, ErrEmptyID
	}
	ev, err := s.backend.Event(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("getting event %s: %w", eventID, err)
	}
	return ev, nil
}

// Agenda returns the tracks and stages of an event.
func (s *Service) Agenda(ctx context.Context, eventID string) (*backend.Agenda, error) {
	if eventID == "" {
		return nil, ErrEmptyID
	}
	agenda, err := s.cache.Agenda(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("getting agenda of %s: %w", eventID, err)
	}
	if agenda == nil {
		agenda = &backend.Agenda{}
	}
	return agenda, nil
}

// Banner returns the current banner, or nil when none is active.
func (s *Service) Banner(ctx context.Context) (*backend.Banner, error) {
	b, err := s.backend.CurrentBanner(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting banner: %w", err)
	}
	return b, nil
}
