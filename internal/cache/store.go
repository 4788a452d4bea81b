package cache

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/nerrad567/event-companion-core/internal/backend"
)

// Logger defines the logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Source loads catalog data on a cache miss. *backend.Client satisfies it.
type Source interface {
	Events(ctx context.Context) ([]backend.Event, error)
	Speakers(ctx context.Context) ([]backend.Speaker, error)
	Categories(ctx context.Context) ([]backend.Category, error)
	Sponsors(ctx context.Context) ([]backend.Sponsor, error)
	Agenda(ctx context.Context, eventID string) (*backend.Agenda, error)
	Lectures(ctx context.Context, eventID, stageID, trackID string) ([]backend.Lecture, error)
}

// Key identifies one cache entry.
type Key struct {
	Kind  string
	Event string
	Stage string
	Track string
}

// Entry kinds.
const (
	KindEvents     = "events"
	KindSpeakers   = "speakers"
	KindCategories = "categories"
	KindSponsors   = "sponsors"
	KindAgenda     = "agenda"
	KindLectures   = "lectures"
)

// String renders the key for logs.
func (k Key) String() string {
	switch k.Kind {
	case KindAgenda:
		return fmt.Sprintf("%s/%s", k.Kind, k.Event)
	case KindLectures:
		return fmt.Sprintf("%s/%s/%s/%s", k.Kind, k.Event, k.Stage, k.Track)
	default:
		return k.Kind
	}
}

// Store is a GetOrLoad cache over a Source.
//
// All methods are safe for concurrent use.
type Store struct {
	src    Source
	logger Logger

	mu      sync.RWMutex
	entries map[Key]any
	gen     uint64 // bumped by Clear; loads started in an older generation are not stored
}

// New creates an empty Store backed by src.
func New(src Source) *Store {
	return &Store{
		src:     src,
		logger:  noopLogger{},
		entries: make(map[Key]any),
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// GetOrLoad returns the cached value for key, calling load on a miss.
// A successful load is stored; a failed one is not, so the next call tries again.
func GetOrLoad[T any](ctx context.Context, s *Store, key Key, load func(context.Context) (T, error)) (T, error) {
	s.mu.RLock()
	v, ok := s.entries[key]
	gen := s.gen
	s.mu.RUnlock()

	if ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	s.logger.Debug("cache miss", "key", key.String())
	loaded, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	s.mu.Lock()
	if s.gen == gen {
		s.entries[key] = loaded
	}
	s.mu.Unlock()
	return loaded, nil
}

// Clear drops every entry. Loads in flight when Clear runs are discarded.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[Key]any)
	s.gen++
	s.mu.Unlock()
	s.logger.Debug("cache cleared")
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Has reports whether key is cached.
func (s *Store) Has(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

// Events returns the cached events list.
func (s *Store) Events(ctx context.Context) ([]backend.Event, error) {
	v, err := GetOrLoad(ctx, s, Key{Kind: KindEvents}, s.src.Events)
	return slices.Clone(v), err
}

// Speakers returns the cached speakers list.
func (s *Store) Speakers(ctx context.Context) ([]backend.Speaker, error) {
	v, err := GetOrLoad(ctx, s, Key{Kind: KindSpeakers}, s.src.Speakers)
	return slices.Clone(v), err
}

// Categories returns the cached sponsorship categories.
func (s *Store) Categories(ctx context.Context) ([]backend.Category, error) {
	v, err := GetOrLoad(ctx, s, Key{Kind: KindCategories}, s.src.Categories)
	return slices.Clone(v), err
}

// Sponsors returns the cached sponsors list.
func (s *Store) Sponsors(ctx context.Context) ([]backend.Sponsor, error) {
	v, err := GetOrLoad(ctx, s, Key{Kind: KindSponsors}, s.src.Sponsors)
	return slices.Clone(v), err
}

// Agenda returns the cached agenda of an event.
func (s *Store) Agenda(ctx context.Context, eventID string) (*backend.Agenda, error) {
	v, err := GetOrLoad(ctx, s, Key{Kind: KindAgenda, Event: eventID},
		func(ctx context.Context) (*backend.Agenda, error) { return s.src.Agenda(ctx, eventID) })
	if err != nil || v == nil {
		return nil, err
	}
	cp := backend.Agenda{Tracks: slices.Clone(v.Tracks), Stages: slices.Clone(v.Stages)}
	return &cp, nil
}

// Lectures returns the cached lectures of one (event, stage, track).
func (s *Store) Lectures(ctx context.Context, eventID, stageID, trackID string) ([]backend.Lecture, error) {
	key := Key{Kind: KindLectures, Event: eventID, Stage: stageID, Track: trackID}
	v, err := GetOrLoad(ctx, s, key, func(ctx context.Context) ([]backend.Lecture, error) {
		return s.src.Lectures(ctx, eventID, stageID, trackID)
	})
	return slices.Clone(v), err
}
