package timedrop

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/timedrop/tdadmin/internal/domain"
)

// ListUsers returns every platform user.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var env usersEnvelope
	if err := c.Do(ctx, http.MethodGet, "/admin/users", nil, true, &env); err != nil {
		return nil, fmt.Errorf("timedrop: list users: %w", err)
	}
	return env.Users, nil
}

// CreateUser creates a platform account.
func (c *Client) CreateUser(ctx context.Context, in domain.CreateUserInput) (domain.User, error) {
	var u domain.User
	if err := c.Do(ctx, http.MethodPost, "/admin/users", in, true, &u); err != nil {
		return domain.User{}, fmt.Errorf("timedrop: create user: %w", err)
	}
	return u, nil
}

// GetUser returns a single user by ID.
func (c *Client) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	if err := c.Do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), nil, true, &u); err != nil {
		return domain.User{}, fmt.Errorf("timedrop: get user %s: %w", id, err)
	}
	return u, nil
}

// UpdateUser applies a partial update and returns the backend's copy.
func (c *Client) UpdateUser(ctx context.Context, id string, in domain.UpdateUserInput) (domain.User, error) {
	var u domain.User
	if err := c.Do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), in, true, &u); err != nil {
		return domain.User{}, fmt.Errorf("timedrop: update user %s: %w", id, err)
	}
	return u, nil
}

// DeleteUser bans a user. The backend implements ban as a delete.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.Do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), nil, true, nil); err != nil {
		return fmt.Errorf("timedrop: delete user %s: %w", id, err)
	}
	return nil
}
