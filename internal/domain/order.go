package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a trade order on a market.
type Order struct {
	ID            string          `json:"id"`
	MarketID      string          `json:"marketId"`
	UserID        string          `json:"userId"`
	Status        string          `json:"status"`
	Side          string          `json:"side,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Price         decimal.Decimal `json:"price"`
	Stake         decimal.Decimal `json:"stake"`
	PairedOrderID *string         `json:"pairedOrderId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}
