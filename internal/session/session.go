// Package session holds the single authoritative admin session: the bearer
// token, the operator profile and the state machine that governs them.
// Every view-model reads the token through Service.Token and reports
// failures through Service.HandleError, so an expired token is dropped in
// exactly one place.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/timedrop/tdadmin/internal/crypto"
	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/platform/timedrop"
)

// LoginRoute is the public entry route returned after logout.
const LoginRoute = "/login"

// CookieName is the console cookie carrying ConsoleKey.
const CookieName = "tdadmin_session"

// State is the lifecycle state of the session.
type State int

const (
	StateUnknown State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Backend is the subset of the API client the session needs.
type Backend interface {
	Login(ctx context.Context, email, password string) (timedrop.LoginResponse, error)
	MeWithToken(ctx context.Context, token string) (domain.Profile, error)
}

// Info is the externally visible view of the session. It never carries
// the token.
type Info struct {
	State string          `json:"state"`
	User  *domain.Profile `json:"user,omitempty"`
}

// Service owns the session state. It is safe for concurrent use: request
// paths only take the read lock, while LoadSession, Login, Logout and
// HandleError write.
type Service struct {
	store   domain.SessionStore
	backend Backend
	secret  []byte
	logger  *slog.Logger

	mu      sync.RWMutex
	state   State
	current domain.Session
	lastErr error
}

// NewService creates a session service in StateUnknown. secret keys the
// console cookie derivation (see crypto.ConsoleKey).
func NewService(store domain.SessionStore, backend Backend, secret []byte, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		backend: backend,
		secret:  secret,
		logger:  logger.With(slog.String("component", "session")),
		state:   StateUnknown,
	}
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token implements timedrop.TokenSource.
func (s *Service) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token, s.current.Token != ""
}

// Current returns the authenticated profile, if any.
func (s *Service) Current() (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated {
		return domain.Profile{}, false
	}
	return s.current.User, true
}

// Info returns a token-free description of the session.
func (s *Service) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := Info{State: s.state.String()}
	if s.state == StateAuthenticated {
		u := s.current.User
		info.User = &u
	}
	return info
}

// LastError returns why the most recent Login or LoadSession failed.
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ConsoleKey returns the cookie value that admits a browser to the console
// for the current session, or "" when not authenticated.
func (s *Service) ConsoleKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateAuthenticated {
		return ""
	}
	return crypto.ConsoleKey(s.secret, s.current.Token)
}

// Authorize reports whether key admits a request to the console.
func (s *Service) Authorize(key string) bool {
	return crypto.Equal(key, s.ConsoleKey())
}

// LoadSession restores a persisted session. It is a no-op unless the
// state is Unknown or Unauthenticated. A stored token is validated with
// GET /auth/me; an auth failure clears the store, any other failure only
// leaves the session unauthenticated.
func (s *Service) LoadSession(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUnknown && s.state != StateUnauthenticated {
		s.mu.Unlock()
		return nil
	}
	s.state = StateLoading
	s.mu.Unlock()

	token, _, err := s.store.Load(ctx)
	if err != nil {
		s.finish(StateUnauthenticated, domain.Session{}, err)
		return fmt.Errorf("session: load: %w", err)
	}
	if token == "" {
		s.finish(StateUnauthenticated, domain.Session{}, nil)
		return nil
	}

	profile, err := s.backend.MeWithToken(ctx, token)
	if err == nil && !profile.Role.Privileged() {
		err = fmt.Errorf("role %q: %w", profile.Role, domain.ErrForbiddenRole)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) || errors.Is(err, domain.ErrForbiddenRole) {
			s.clearStore(ctx)
		}
		s.finish(StateUnauthenticated, domain.Session{}, err)
		return fmt.Errorf("session: restore: %w", err)
	}

	s.finish(StateAuthenticated, domain.Session{Token: token, User: profile}, nil)
	s.logger.Info("session restored", slog.String("user", profile.Email), slog.String("role", string(profile.Role)))
	return nil
}

// Login exchanges credentials for a session. It never returns an error:
// the outcome is the boolean and the reason is kept in LastError. A
// profile whose role is not privileged is rejected and nothing is stored.
func (s *Service) Login(ctx context.Context, email, password string) bool {
	s.mu.Lock()
	prevState, prev := s.state, s.current
	s.state = StateLoading
	s.mu.Unlock()

	fail := func(err error) bool {
		if prevState == StateUnknown || prevState == StateLoading {
			prevState = StateUnauthenticated
		}
		s.finish(prevState, prev, err)
		s.logger.Warn("login failed", slog.String("user", email), slog.String("error", err.Error()))
		return false
	}

	resp, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return fail(err)
	}
	if resp.Token == "" {
		return fail(fmt.Errorf("login response carried no token: %w", domain.ErrRejected))
	}
	profile := resp.User.ToDomainProfile()
	if !profile.Role.Privileged() {
		return fail(fmt.Errorf("role %q: %w", profile.Role, domain.ErrForbiddenRole))
	}

	if err := s.store.Save(ctx, resp.Token, profile.Role); err != nil {
		s.logger.Warn("session not persisted", slog.String("error", err.Error()))
	}

	s.finish(StateAuthenticated, domain.Session{Token: resp.Token, User: profile}, nil)
	s.logger.Info("logged in", slog.String("user", profile.Email), slog.String("role", string(profile.Role)))
	return true
}

// Logout drops the session from memory and storage and returns the route
// to navigate to.
func (s *Service) Logout(ctx context.Context) string {
	s.clearStore(ctx)
	s.finish(StateUnauthenticated, domain.Session{}, nil)
	s.logger.Info("logged out")
	return LoginRoute
}

// HandleError inspects an error from any backend call. An auth failure
// expires the session; err is returned unchanged so callers can write
// `return svc.HandleError(ctx, err)`. A failure from a request that carried
// a different token, one replaced by a later login, is ignored.
func (s *Service) HandleError(ctx context.Context, err error) error {
	if err == nil || !errors.Is(err, domain.ErrUnauthorized) {
		return err
	}

	var sent interface{ SentWith(token string) bool }
	stale := func(current string) bool {
		return errors.As(err, &sent) && !sent.SentWith("") && !sent.SentWith(current)
	}

	s.mu.Lock()
	current := s.current.Token
	if current == "" || stale(current) {
		s.mu.Unlock()
		return err
	}
	s.state = StateUnauthenticated
	s.current = domain.Session{}
	s.lastErr = err
	s.mu.Unlock()

	s.clearStore(ctx)
	s.logger.Warn("session expired", slog.String("error", err.Error()))
	return err
}

func (s *Service) finish(state State, current domain.Session, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.current = current
	s.lastErr = err
}

func (s *Service) clearStore(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("clear session store", slog.String("error", err.Error()))
	}
}
