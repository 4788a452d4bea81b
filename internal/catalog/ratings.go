package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/backend"
)

const (
	minStars = 1
	maxStars = 5

	// Ratings at or below this need a reason.
	reasonThreshold = 3
	minReasonLength = 10
)

// RatingRequest is a talk rating submitted by the signed-in user.
type RatingRequest struct {
	LectureID string `json:"lecture_id"`
	Stars     int    `json:"stars"`
	Reason    string `json:"reason,omitempty"`
}

// Validate checks the star range and the reason rule for low ratings.
func (r RatingRequest) Validate() error {
	if r.LectureID == "" {
		return ErrEmptyID
	}
	if r.Stars < minStars || r.Stars > maxStars {
		return ErrInvalidStars
	}
	if r.Stars <= reasonThreshold && utf8.RuneCountInString(strings.TrimSpace(r.Reason)) < minReasonLength {
		return ErrReasonRequired
	}
	return nil
}

// NeedsReason reports whether a rating of stars must carry a reason.
func NeedsReason(stars int) bool {
	return stars >= minStars && stars <= reasonThreshold
}

// Rating returns the user's existing rating of lectureID, or nil.
func (s *Service) Rating(ctx context.Context, sess *auth.Session, lectureID string) (*backend.Rating, error) {
	if !sess.Complete() {
		return nil, ErrNotSignedIn
	}
	if lectureID == "" {
		return nil, ErrEmptyID
	}
	r, err := s.backend.Rating(ctx, lectureID, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("getting rating of %s: %w", lectureID, err)
	}
	return r, nil
}

// Rate validates req and stores it, replacing the user's earlier rating of
// the same talk when there is one.
func (s *Service) Rate(ctx context.Context, sess *auth.Session, req RatingRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	existing, err := s.Rating(ctx, sess, req.LectureID)
	if err != nil {
		return err
	}

	r := backend.Rating{
		LectureID: backend.ID(req.LectureID),
		UserID:    backend.ID(sess.UserID),
		Stars:     req.Stars,
	}
	if NeedsReason(req.Stars) {
		r.Reason = strings.TrimSpace(req.Reason)
	}

	replace := existing != nil
	if err := s.backend.SaveRating(ctx, sess.Token, r, replace); err != nil {
		return fmt.Errorf("saving rating of %s: %w", req.LectureID, err)
	}
	s.logger.Info("talk rated", "lecture_id", req.LectureID, "stars", req.Stars, "replaced", replace)
	return nil
}

// RatingMessage maps a Rate validation error to the text shown to the user.
// It returns "" for errors that are not validation failures.
func RatingMessage(err error) string {
	switch {
	case errors.Is(err, ErrReasonRequired):
		return MsgReasonRequired
	case errors.Is(err, ErrInvalidStars):
		return MsgInvalidStars
	default:
		return ""
	}
}
