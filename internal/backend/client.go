package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nerrad567/event-companion-core/internal/infrastructure/config"
	"github.com/nerrad567/event-companion-core/internal/infrastructure/logging"
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// Client talks to the event REST API.
//
// A Client is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *logging.Logger
}

// New creates a Client from backend configuration.
func New(cfg config.BackendConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
		logger:    logger.With("component", "backend"),
	}
}

// errorBody is the shape of the API's error responses.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do performs a JSON request. body and out may be nil. A non-empty token is
// sent as a bearer credential.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // message is best effort
		apiErr := &APIError{Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.Message
			if apiErr.Message == "" {
				apiErr.Message = eb.Error
			}
		}
		c.logger.Debug("backend rejected request",
			"method", method, "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrDecode, method, path, err)
	}
	return nil
}

// seg escapes a single path segment.
func seg(s string) string {
	return url.PathEscape(s)
}
