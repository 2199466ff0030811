package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/timedrop/tdadmin/internal/domain"
)

// SessionStore implements domain.SessionStore as a single redis hash with
// the fields domain.TokenKey and domain.RoleKey.
//
// Key schema:
//
//	{prefix}session - hash {jwt_token, admin_role}
type SessionStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewSessionStore creates a SessionStore. A positive ttl expires the stored
// session; zero keeps it until cleared.
func NewSessionStore(c *Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: c.Underlying(), key: c.Key("session"), ttl: ttl}
}

// Load returns the stored token and role, or empty values when none.
func (s *SessionStore) Load(ctx context.Context) (string, domain.Role, error) {
	vals, err := s.rdb.HMGet(ctx, s.key, domain.TokenKey, domain.RoleKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("redis: load session: %w", err)
	}
	token, _ := vals[0].(string)
	role, _ := vals[1].(string)
	return token, domain.Role(role), nil
}

// Save overwrites the stored session.
func (s *SessionStore) Save(ctx context.Context, token string, role domain.Role) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	pipe.HSet(ctx, s.key, domain.TokenKey, token, domain.RoleKey, string(role))
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: save session: %w", err)
	}
	return nil
}

// Clear deletes the stored session.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis: clear session: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SessionStore = (*SessionStore)(nil)
