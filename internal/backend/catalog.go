package backend

import (
	"context"
	"net/http"
)

// Events lists all events.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	var resp struct {
		Events []Event `json:"eventos"`
	}
	if err := c.do(ctx, http.MethodGet, "/eventos", "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Event returns one event's details.
func (c *Client) Event(ctx context.Context, eventID string) (*EventDetails, error) {
	var ev EventDetails
	if err := c.do(ctx, http.MethodGet, "/eventos/"+seg(eventID), "", nil, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Agenda returns the tracks and stages of an event.
func (c *Client) Agenda(ctx context.Context, eventID string) (*Agenda, error) {
	var a Agenda
	if err := c.do(ctx, http.MethodGet, "/agenda/evento/"+seg(eventID), "", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Lectures lists the talks of one (event, stage, track). A 404 means the
// combination has no talks and yields an empty list.
func (c *Client) Lectures(ctx context.Context, eventID, stageID, trackID string) ([]Lecture, error) {
	var resp struct {
		Lectures []Lecture `json:"palestras"`
	}
	path := "/programacao_evento/" + seg(eventID) + "/" + seg(stageID) + "/" + seg(trackID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		if IsNotFound(err) {
			return []Lecture{}, nil
		}
		return nil, err
	}
	if resp.Lectures == nil {
		return []Lecture{}, nil
	}
	return resp.Lectures, nil
}

// Speakers lists all speakers.
func (c *Client) Speakers(ctx context.Context) ([]Speaker, error) {
	var speakers []Speaker
	if err := c.do(ctx, http.MethodGet, "/palestrantes", "", nil, &speakers); err != nil {
		return nil, err
	}
	return speakers, nil
}

// Sponsors lists the sponsor companies.
func (c *Client) Sponsors(ctx context.Context) ([]Sponsor, error) {
	var sponsors []Sponsor
	if err := c.do(ctx, http.MethodGet, "/empresas", "", nil, &sponsors); err != nil {
		return nil, err
	}
	return sponsors, nil
}

// Categories lists the sponsorship categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.do(ctx, http.MethodGet, "/categorias-patrocinio", "", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// Favourites lists the companies userID marked as favourite.
func (c *Client) Favourites(ctx context.Context, userID string) ([]Favourite, error) {
	var favs []Favourite
	if err := c.do(ctx, http.MethodGet, "/usuarios-empresas/usuario/"+seg(userID), "", nil, &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

// AddFavourite marks companyID as a favourite of userID and returns the link ID.
func (c *Client) AddFavourite(ctx context.Context, token, userID, companyID string) (ID, error) {
	body := struct {
		CompanyID string `json:"ID_empresa"`
		UserID    string `json:"ID_usuario"`
	}{companyID, userID}
	var resp struct {
		ID ID `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/usuarios-empresas", token, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// RemoveFavourite deletes a favourite link.
func (c *Client) RemoveFavourite(ctx context.Context, token, favouriteID string) error {
	return c.do(ctx, http.MethodDelete, "/usuarios-empresas/"+seg(favouriteID), token, nil, nil)
}

// Rating returns userID's rating of lectureID, or nil if there is none.
func (c *Client) Rating(ctx context.Context, lectureID, userID string) (*Rating, error) {
	var r Rating
	path := "/nota-palestras/" + seg(lectureID) + "/" + seg(userID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &r); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// SaveRating creates (POST) or replaces (PUT) a rating.
func (c *Client) SaveRating(ctx context.Context, token string, r Rating, replace bool) error {
	method := http.MethodPost
	if replace {
		method = http.MethodPut
	}
	return c.do(ctx, method, "/nota-palestras", token, r, nil)
}

// CurrentBanner returns the active banner, or nil when none is configured.
func (c *Client) CurrentBanner(ctx context.Context) (*Banner, error) {
	var b Banner
	if err := c.do(ctx, http.MethodGet, "/banner/current", "", nil, &b); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
