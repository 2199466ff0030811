package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is the per-user balance aggregate.
type Portfolio struct {
	ID                  string          `json:"id"`
	UserID              string          `json:"userId"`
	UserName            string          `json:"userName,omitempty"`
	UserEmail           string          `json:"userEmail,omitempty"`
	Balance             decimal.Decimal `json:"balance"`
	TotalDeposits       decimal.Decimal `json:"totalDeposits"`
	TotalWithdrawals    decimal.Decimal `json:"totalWithdrawals"`
	PendingTransactions int             `json:"pendingTransactions"`
	Status              string          `json:"status"`
	LastTransaction     *time.Time      `json:"lastTransaction,omitempty"`
}
