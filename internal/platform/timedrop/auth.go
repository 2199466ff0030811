package timedrop

import (
	"context"
	"fmt"
	"net/http"

	"github.com/timedrop/tdadmin/internal/domain"
)

// Login exchanges credentials for a bearer token. The endpoint is public, so
// no token is attached even if one is held.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.Do(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, false, &resp)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("timedrop: login: %w", err)
	}
	return resp, nil
}

// Me returns the profile of the token holder.
func (c *Client) Me(ctx context.Context) (domain.Profile, error) {
	var p APIProfile
	if err := c.Do(ctx, http.MethodGet, "/auth/me", nil, true, &p); err != nil {
		return domain.Profile{}, fmt.Errorf("timedrop: get profile: %w", err)
	}
	return p.ToDomainProfile(), nil
}

// MeWithToken validates an explicit token, independent of the client's
// TokenSource. It is used while restoring a persisted session.
func (c *Client) MeWithToken(ctx context.Context, token string) (domain.Profile, error) {
	return c.WithTokens(staticToken(token)).Me(ctx)
}

type staticToken string

func (t staticToken) Token() (string, bool) { return string(t), t != "" }
