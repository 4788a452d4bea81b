package backend

import (
	"context"
	"net/http"
)

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := struct {
		Email string `json:"Email"`
		Senha string `json:"senha"`
	}{email, password}

	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrMissingToken
	}
	if resp.User.MustChangePassword {
		resp.MustChangePassword = true
	}
	return &resp, nil
}

type messageBody struct {
	Message string `json:"message"`
}

// RequestPasswordReset asks the API to email a verification code.
// The returned string is the server's confirmation message, if any.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	body := struct {
		Email string `json:"email"`
	}{email}

	var resp messageBody
	if err := c.do(ctx, http.MethodPost, "/auth/reset-password", "", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifyResetCode checks a password-reset verification code.
func (c *Client) VerifyResetCode(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodGet, "/auth/verificar-codigo/"+seg(code), "", nil, nil)
}

// CreatePassword sets the password of a first-access account.
func (c *Client) CreatePassword(ctx context.Context, token, userID, password string) (string, error) {
	body := struct {
		UserID string `json:"id_usuario"`
		Senha  string `json:"senha"`
	}{userID, password}

	var resp messageBody
	if err := c.do(ctx, http.MethodPost, "/auth/criar-senha", token, body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// SyncParticipant reconciles a ticketing-platform participant into the
// user store. It needs an administrative token.
func (c *Client) SyncParticipant(ctx context.Context, adminToken, platformEventID, ticket string) error {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	path := "/sympla/participant/" + seg(platformEventID) + "/" + seg(ticket)
	if err := c.do(ctx, http.MethodGet, path, adminToken, nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		if resp.Message != "" {
			return &APIError{Status: http.StatusOK, Message: resp.Message}
		}
		return ErrSyncRejected
	}
	return nil
}
