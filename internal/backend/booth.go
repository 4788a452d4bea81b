package backend

import (
	"context"
	"net/http"
)

// CompanyForUser resolves the booth company an operator belongs to.
// An empty ID with a nil error means the API knows no company for the user.
func (c *Client) CompanyForUser(ctx context.Context, token, userID string) (ID, error) {
	var resp struct {
		Data struct {
			CompanyID ID `json:"ID_empresa"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/empresas/usuario/"+seg(userID), token, nil, &resp); err != nil {
		return "", err
	}
	return resp.Data.CompanyID, nil
}

// Checkin records that the attendee behind code visited companyID's booth.
func (c *Client) Checkin(ctx context.Context, token, code, companyID string) error {
	path := "/checkins/estande/" + seg(code) + "/" + seg(companyID)
	return c.do(ctx, http.MethodPost, path, token, struct{}{}, nil)
}

// BoothCheckins lists the check-ins recorded at companyID's booth.
func (c *Client) BoothCheckins(ctx context.Context, token, companyID string) ([]BoothCheckin, error) {
	var rows []BoothCheckin
	if err := c.do(ctx, http.MethodGet, "/checkins/estande/"+seg(companyID), token, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateUser registers a new account and returns its ID.
func (c *Client) CreateUser(ctx context.Context, token string, u NewUser) (ID, error) {
	var resp struct {
		ID ID `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/usuarios", token, u, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// LinkUserToCompany attaches userID to companyID as booth staff.
func (c *Client) LinkUserToCompany(ctx context.Context, token, userID, companyID string) error {
	body := struct {
		UserID    string `json:"id_usuario"`
		CompanyID string `json:"id_empresa"`
	}{userID, companyID}
	return c.do(ctx, http.MethodPost, "/empresas/vincular-usuario", token, body, nil)
}
