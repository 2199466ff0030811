package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Analytics holds the revenue aggregates for one day.
type Analytics struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	TotalVolume   decimal.Decimal `json:"totalVolume"`
	TodaysRevenue decimal.Decimal `json:"todaysRevenue"`
}

// Activity is one entry of the admin recent-activity feed.
type Activity struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Actor     string           `json:"user,omitempty"`
	Subject   string           `json:"market,omitempty"`
	Status    string           `json:"status,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}
