// Package timedrop is the typed REST client for the Timedrop backend API.
// Client.Do is the single authenticated-fetch primitive; every resource
// method in this package composes it with a fixed verb and path.
package timedrop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
)

// DefaultBaseURL is the production API root. All resource paths are
// relative to it.
const DefaultBaseURL = "https://backendapi.timedrop.live/api"

// TokenSource supplies the current bearer token. ok is false when no
// session is held, in which case requests go out unauthenticated.
type TokenSource interface {
	Token() (token string, ok bool)
}

// Client is the REST client for the Timedrop API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a new Timedrop API client.
//
// baseURL is the API root, e.g. "https://backendapi.timedrop.live/api".
// tokens may be nil for a client that only calls public endpoints.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithTokens returns a shallow copy of the client that reads its bearer
// token from tokens instead.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

// APIError is returned for every non-2xx response. Message carries the
// response body verbatim, or the status text when the body is empty.
type APIError struct {
	Status  int
	Message string

	// token is the bearer the request carried, "" when none.
	token string
}

// SentWith reports whether the failed request carried token.
func (e *APIError) SentWith(token string) bool {
	return e.token == token
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Unwrap maps the status onto the domain error taxonomy so callers can use
// errors.Is. Only 401 means the token itself is bad; a 403 is a refusal of
// one action under a valid token.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return domain.ErrRejected
	}
}

// Do sends a JSON request to path and decodes a JSON response into out.
// When auth is true and a token is available it is attached as a bearer
// credential. body and out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, body any, auth bool, out any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	var bearer string
	if auth && c.tokens != nil {
		if token, ok := c.tokens.Token(); ok && token != "" {
			bearer = token
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", domain.ErrTransport, ctxErr)
		}
		return fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrTransport, err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		err.token = bearer
		return err
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkStatus maps non-2xx HTTP status codes to *APIError.
func checkStatus(statusCode int, body []byte) *APIError {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &APIError{Status: statusCode, Message: msg}
}

// IsAuthError reports whether err signals a missing, expired or invalid
// token.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized)
}
