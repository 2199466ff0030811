package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the review state of a withdrawal request.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCompleted WithdrawalStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalPending, WithdrawalApproved, WithdrawalRejected, WithdrawalCompleted:
		return true
	}
	return false
}

// Withdrawal is a payout request from a user.
type Withdrawal struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	UserName  string           `json:"userName,omitempty"`
	UserEmail string           `json:"userEmail,omitempty"`
	Amount    decimal.Decimal  `json:"amount"`
	Currency  string           `json:"currency"`
	Status    WithdrawalStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	Details   map[string]any   `json:"details,omitempty"`
}

// DisplayUser picks the best available label for the requesting user.
func (w Withdrawal) DisplayUser() string {
	switch {
	case w.UserName != "":
		return w.UserName
	case w.UserEmail != "":
		return w.UserEmail
	case w.UserID != "":
		return w.UserID
	default:
		return "Unknown"
	}
}
