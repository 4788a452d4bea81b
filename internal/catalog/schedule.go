package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nerrad567/event-companion-core/internal/backend"
)

// ScheduleQuery selects the talks of one stage and track.
type ScheduleQuery struct {
	EventID string
	StageID string
	TrackID string
	// Speaker filters by speaker name, case-insensitively. Blank means all.
	Speaker string
}

// TimeSlot groups the talks starting at the same "HH:MM".
type TimeSlot struct {
	Time     string            `json:"time"`
	Lectures []backend.Lecture `json:"lectures"`
}

// Schedule returns the talks matching q grouped into time slots, earliest
// first. A stage and track without talks yields an empty, non-nil slice.
func (s *Service) Schedule(ctx context.Context, q ScheduleQuery) ([]TimeSlot, error) {
	if q.EventID == "" || q.StageID == "" || q.TrackID == "" {
		return nil, ErrEmptyID
	}
	lectures, err := s.cache.Lectures(ctx, q.EventID, q.StageID, q.TrackID)
	if err != nil {
		return nil, fmt.Errorf("listing lectures: %w", err)
	}
	return GroupByTime(FilterBySpeaker(lectures, q.Speaker), s.loc), nil
}

// FilterBySpeaker keeps the lectures whose speaker name contains query,
// ignoring case. A blank query keeps everything.
func FilterBySpeaker(lectures []backend.Lecture, query string) []backend.Lecture {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return lectures
	}
	out := make([]backend.Lecture, 0, len(lectures))
	for _, l := range lectures {
		if strings.Contains(strings.ToLower(l.SpeakerName), needle) {
			out = append(out, l)
		}
	}
	return out
}

// GroupByTime buckets lectures by their "HH:MM" start and sorts the
// buckets by that string. Talk order inside a bucket is preserved.
func GroupByTime(lectures []backend.Lecture, loc *time.Location) []TimeSlot {
	slots := make([]TimeSlot, 0)
	index := make(map[string]int)
	for _, l := range lectures {
		label := l.Time.HourMinute(loc)
		i, ok := index[label]
		if !ok {
			i = len(slots)
			index[label] = i
			slots = append(slots, TimeSlot{Time: label})
		}
		slots[i].Lectures = append(slots[i].Lectures, l)
	}
	slices.SortStableFunc(slots, func(a, b TimeSlot) int { return cmp.Compare(a.Time, b.Time) })
	return slots
}

// SearchSpeakers returns the speakers whose name contains query, ignoring
// case. A blank query returns the full list.
func (s *Service) SearchSpeakers(ctx context.Context, query string) ([]backend.Speaker, error) {
	speakers, err := s.cache.Speakers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing speakers: %w", err)
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return speakers, nil
	}
	out := make([]backend.Speaker, 0, len(speakers))
	for _, sp := range speakers {
		if strings.Contains(strings.ToLower(sp.Name), needle) {
			out = append(out, sp)
		}
	}
	return out, nil
}
