package domain

import "time"

// Gender is optional on user records.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// User is a platform account as seen by the admin API.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Phone      *string   `json:"phone,omitempty"`
	Gender     *Gender   `json:"gender,omitempty"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
	IsBanned   *bool     `json:"isBanned,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// FullName joins first and last name for display and search.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// User display statuses. These are derived locally and are not backend
// fields.
const (
	UserStatusActive  = "active"
	UserStatusPending = "pending"
	UserStatusBanned  = "banned"
)

// DisplayStatus derives a display-only status from the verification flags.
// It is an approximation of backend state and must never be written back.
func DisplayStatus(u User) string {
	if u.IsBanned != nil && *u.IsBanned {
		return UserStatusBanned
	}
	if u.IsVerified {
		return UserStatusActive
	}
	return UserStatusPending
}

// CreateUserInput is the body of POST /admin/users.
type CreateUserInput struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
	Gender    *Gender `json:"gender,omitempty"`
	Role      Role    `json:"role"`
}

// UpdateUserInput is a partial update for PUT /admin/users/:id. Nil fields
// are omitted from the payload.
type UpdateUserInput struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Gender    *Gender `json:"gender,omitempty"`
	Role      *Role   `json:"role,omitempty"`
}
