package domain

import "context"

// Role is the platform role carried on a user profile.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
	RoleManager    Role = "manager"
)

// Privileged reports whether the role may hold an admin session. Plain
// end-user accounts and unknown empty roles are rejected.
func (r Role) Privileged() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin, RoleManager:
		return true
	default:
		return false
	}
}

// Profile is the authenticated operator as returned by /auth/me.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session pairs the bearer token with the profile it was issued for.
type Session struct {
	Token string  `json:"-"`
	User  Profile `json:"user"`
}

// Storage keys for the persisted session. The role is kept next to the
// token so it can be read without a round trip.
const (
	TokenKey = "jwt_token"
	RoleKey  = "admin_role"
)

// SessionStore persists the bearer token and role between process starts.
// Load returns empty strings and a nil error when nothing is stored.
type SessionStore interface {
	Load(ctx context.Context) (token string, role Role, err error)
	Save(ctx context.Context, token string, role Role) error
	Clear(ctx context.Context) error
}
