package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nerrad567/event-companion-core/internal/backend"
)

// fakeSource counts calls per kind and can be told to fail.
type fakeSource struct {
	mu    sync.Mutex
	calls map[string]int
	fail  atomic.Bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: make(map[string]int)}
}

var errBackendDown = errors.New("backend down")

func (f *fakeSource) hit(kind string) error {
	f.mu.Lock()
	f.calls[kind]++
	f.mu.Unlock()
	if f.fail.Load() {
		return errBackendDown
	}
	return nil
}

func (f *fakeSource) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

func (f *fakeSource) Events(context.Context) ([]backend.Event, error) {
	if err := f.hit(KindEvents); err != nil {
		return nil, err
	}
	return []backend.Event{{ID: "1", Name: "Summit"}}, nil
}

func (f *fakeSource) Speakers(context.Context) ([]backend.Speaker, error) {
	if err := f.hit(KindSpeakers); err != nil {
		return nil, err
	}
	return []backend.Speaker{{ID: "s1", Name: "Rob"}}, nil
}

func (f *fakeSource) Categories(context.Context) ([]backend.Category, error) {
	if err := f.hit(KindCategories); err != nil {
		return nil, err
	}
	return []backend.Category{{ID: "c1", Type: "Ouro"}}, nil
}

func (f *fakeSource) Sponsors(context.Context) ([]backend.Sponsor, error) {
	if err := f.hit(KindSponsors); err != nil {
		return nil, err
	}
	return []backend.Sponsor{{ID: "e1", Name: "Acme", Tier: "Ouro"}}, nil
}

func (f *fakeSource) Agenda(_ context.Context, eventID string) (*backend.Agenda, error) {
	if err := f.hit(KindAgenda); err != nil {
		return nil, err
	}
	return &backend.Agenda{Tracks: []backend.AgendaItem{{ID: backend.ID(eventID + "-t")}}}, nil
}

func (f *fakeSource) Lectures(_ context.Context, eventID, _, _ string) ([]backend.Lecture, error) {
	if err := f.hit(KindLectures); err != nil {
		return nil, err
	}
	return []backend.Lecture{{ID: backend.ID(eventID + "-l")}}, nil
}

func TestStore_GetOrLoadCachesSuccess(t *testing.T) {
	src := newFakeSource()
	s := New(src)
	ctx := t.Context()

	for range 3 {
		events, err := s.Events(ctx)
		if err != nil || len(events) != 1 {
			t.Fatalf("Events() = %v, %v", events, err)
		}
	}
	if got := src.count(KindEvents); got != 1 {
		t.Errorf("backend Events calls = %d, want 1", got)
	}
}

func TestStore_FailureNotCached(t *testing.T) {
	src := newFakeSource()
	s := New(src)
	ctx := t.Context()

	src.fail.Store(true)
	if _, err := s.Sponsors(ctx); !errors.Is(err, errBackendDown) {
		t.Fatalf("Sponsors() error = %v, want errBackendDown", err)
	}
	if s.Has(Key{Kind: KindSponsors}) {
		t.Fatal("failed load must not be cached")
	}

	src.fail.Store(false)
	if _, err := s.Sponsors(ctx); err != nil {
		t.Fatalf("Sponsors() error = %v", err)
	}
	if got := src.count(KindSponsors); got != 2 {
		t.Errorf("backend Sponsors calls = %d, want 2", got)
	}
}

func TestStore_ClearForcesReload(t *testing.T) {
	src := newFakeSource()
	s := New(src)
	ctx := t.Context()

	load := func() {
		t.Helper()
		if _, err := s.Events(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Speakers(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Categories(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Sponsors(ctx); err != nil {
			t.Fatal(err)
		}
	}

	load()
	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", s.Len())
	}

	load()
	for _, kind := range []string{KindEvents, KindSpeakers, KindCategories, KindSponsors} {
		if got := src.count(kind); got != 2 {
			t.Errorf("%s calls = %d, want 2 after Clear", kind, got)
		}
	}
}

func TestStore_KeyedEntries(t *testing.T) {
	src := newFakeSource()
	s := New(src)
	ctx := t.Context()

	a1, err := s.Agenda(ctx, "1")
	if err != nil || a1.Tracks[0].ID != "1-t" {
		t.Fatalf("Agenda(1) = %+v, %v", a1, err)
	}
	if _, err := s.Agenda(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Agenda(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if got := src.count(KindAgenda); got != 2 {
		t.Errorf("Agenda calls = %d, want 2", got)
	}

	if _, err := s.Lectures(ctx, "1", "s", "t"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Lectures(ctx, "1", "s", "other"); err != nil {
		t.Fatal(err)
	}
	if got := src.count(KindLectures); got != 2 {
		t.Errorf("Lectures calls = %d, want 2", got)
	}
}

func TestStore_ReturnedSlicesAreCopies(t *testing.T) {
	s := New(newFakeSource())
	ctx := t.Context()

	events, _ := s.Events(ctx) //nolint:errcheck // fake never fails here
	events[0].Name = "mutated"

	again, _ := s.Events(ctx) //nolint:errcheck // fake never fails here
	if again[0].Name != "Summit" {
		t.Errorf("cached entry was mutated through a returned slice")
	}
}

func TestStore_ClearDuringLoadDiscardsResult(t *testing.T) {
	s := New(newFakeSource())
	key := Key{Kind: "custom"}

	_, err := GetOrLoad(t.Context(), s, key, func(context.Context) (int, error) {
		s.Clear() // logout races the in-flight load
		return 7, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Has(key) {
		t.Error("value loaded before Clear must not be stored")
	}
}

func TestKey_String(t *testing.T) {
	tests := map[Key]string{
		{Kind: KindEvents}:                                       "events",
		{Kind: KindAgenda, Event: "3"}:                           "agenda/3",
		{Kind: KindLectures, Event: "3", Stage: "p", Track: "t"}: "lectures/3/p/t",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("%#v.String() = %q, want %q", k, got, want)
		}
	}
}
