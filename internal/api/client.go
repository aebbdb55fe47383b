package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"offsetmarket-buyer-go/internal/auth"
	"offsetmarket-buyer-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client talks to the carbon-offset marketplace API. Every request carries
// the stored bearer token plus JSON content negotiation headers, and is
// attempted exactly once: no retry, no backoff. Requests share the
// configured timeout so a hung call surfaces as a NetworkFailure instead of
// blocking forever.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *auth.Session
}

func NewClient(cfg models.APIConfig, session *auth.Session) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("API base URL cannot be empty")
	}
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		session:    session,
	}, nil
}

// newRequest builds a request against the API base URL with the standard
// header set. Authenticated endpoints require a stored token.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, authenticated bool) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("unable to build request for %s: %w", path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
	if authenticated {
		token, ok := c.session.Token()
		if !ok {
			return nil, ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// doRaw performs the request and returns the status code plus the full
// body. Transport and read errors become NetworkFailure.
func (c *Client) doRaw(req *http.Request, op string) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		zap.L().Warn("Marketplace request failed",
			zap.String("op", op),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return 0, nil, &NetworkFailure{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkFailure{Op: op, Err: err}
	}
	return resp.StatusCode, raw, nil
}

// doJSON performs the request and decodes the enveloped response body into
// out. Non-2xx responses become ServerRejection carrying the server message
// verbatim.
func (c *Client) doJSON(req *http.Request, op string, out any) error {
	statusCode, raw, err := c.doRaw(req, op)
	if err != nil {
		return err
	}

	if statusCode < 200 || statusCode > 299 {
		var envelope models.APIResponse
		// A failed decode still yields a rejection; the body just had no
		// structured message to surface.
		_ = json.Unmarshal(raw, &envelope)
		zap.L().Warn("Marketplace rejected request",
			zap.String("op", op),
			zap.Int("status_code", statusCode),
			zap.String("message", envelope.Message))
		return &ServerRejection{StatusCode: statusCode, Message: envelope.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &NetworkFailure{Op: op, Err: fmt.Errorf("unparseable response body: %w", err)}
	}
	return nil
}

// postJSON marshals body and issues an authenticated JSON POST.
func (c *Client) postJSON(ctx context.Context, path, op string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("unable to encode %s request: %w", op, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), true)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, op, out)
}

// checkEnvelope converts a 2xx response whose envelope status is not
// "success" into a ServerRejection, since the marketplace reports some
// failures that way.
func checkEnvelope(status, message string) error {
	if status != models.APIStatusSuccess {
		return &ServerRejection{StatusCode: http.StatusOK, Message: message}
	}
	return nil
}
