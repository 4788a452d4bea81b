package catalog

import (
	"context"
	"fmt"

	"github.com/nerrad567/event-companion-core/internal/auth"
	"github.com/nerrad567/event-companion-core/internal/backend"
)

// AllCategories is the category value that disables tier filtering.
const AllCategories = "all"

// SponsorFilter narrows the sponsor showcase.
type SponsorFilter struct {
	// Category is a sponsorship tier, or AllCategories / "" for every tier.
	Category string
	// FavouritesOnly keeps only companies in Favourites.
	FavouritesOnly bool
	Favourites     Favourites
}

// Favourites maps a company ID to the ID of the favourite link that
// references it.
type Favourites map[string]string

// Has reports whether companyID is a favourite.
func (f Favourites) Has(companyID string) bool {
	_, ok := f[companyID]
	return ok
}

// Categories returns the selectable sponsorship tiers, AllCategories first.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	cats, err := s.cache.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	out := make([]string, 0, len(cats)+1)
	out = append(out, AllCategories)
	for _, c := range cats {
		out = append(out, c.Type)
	}
	return out, nil
}

// Sponsors returns the sponsors matching f.
func (s *Service) Sponsors(ctx context.Context, f SponsorFilter) ([]backend.Sponsor, error) {
	sponsors, err := s.cache.Sponsors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sponsors: %w", err)
	}
	return FilterSponsors(sponsors, f), nil
}

// FilterSponsors applies f to sponsors, preserving order.
func FilterSponsors(sponsors []backend.Sponsor, f SponsorFilter) []backend.Sponsor {
	out := make([]backend.Sponsor, 0, len(sponsors))
	for _, sp := range sponsors {
		if f.Category != "" && f.Category != AllCategories && sp.Tier != f.Category {
			continue
		}
		if f.FavouritesOnly && !f.Favourites.Has(sp.ID.String()) {
			continue
		}
		out = append(out, sp)
	}
	return out
}

// Favourites returns the signed-in user's favourite companies.
func (s *Service) Favourites(ctx context.Context, sess *auth.Session) (Favourites, error) {
	if !sess.Complete() {
		return nil, ErrNotSignedIn
	}
	links, err := s.backend.Favourites(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing favourites: %w", err)
	}
	favs := make(Favourites, len(links))
	for _, l := range links {
		favs[l.CompanyID.String()] = l.ID.String()
	}
	return favs, nil
}

// ToggleFavourite removes companyID from the user's favourites if present
// and adds it otherwise. It reports whether the company is a favourite
// afterwards.
func (s *Service) ToggleFavourite(ctx context.Context, sess *auth.Session, companyID string) (bool, error) {
	if companyID == "" {
		return false, ErrEmptyID
	}
	favs, err := s.Favourites(ctx, sess)
	if err != nil {
		return false, err
	}

	if linkID, ok := favs[companyID]; ok {
		if err := s.backend.RemoveFavourite(ctx, sess.Token, linkID); err != nil {
			return true, fmt.Errorf("removing favourite %s: %w", companyID, err)
		}
		s.logger.Debug("favourite removed", "company_id", companyID)
		return false, nil
	}

	if _, err := s.backend.AddFavourite(ctx, sess.Token, sess.UserID, companyID); err != nil {
		return false, fmt.Errorf("adding favourite %s: %w", companyID, err)
	}
	s.logger.Debug("favourite added", "company_id", companyID)
	return true, nil
}
