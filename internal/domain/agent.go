package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Agent is a referral partner. ReferralCode is generated by the backend.
type Agent struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Email               string          `json:"email"`
	ReferralCode        string          `json:"referralCode"`
	TotalReferrals      int             `json:"totalReferrals"`
	TotalReferralVolume decimal.Decimal `json:"totalReferralVolume"`
	IsActive            bool            `json:"isActive"`
	CreatedAt           time.Time       `json:"createdAt"`

	// ReferralLink is built by the console, never sent by the backend.
	ReferralLink string `json:"referralLink,omitempty"`
}

// ReferralLink returns the shareable sign-up link for code on the public
// site at origin, or "" when either is empty.
func ReferralLink(origin, code string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" || code == "" {
		return ""
	}
	return origin + "?ref=" + url.QueryEscape(code)
}

// CreateAgentInput is the body of POST /agents/register.
type CreateAgentInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Pagination is the server-side paging block returned by /agents/all.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// AgentTotals aggregates the agent list for the header cards.
type AgentTotals struct {
	Total          int             `json:"total"`
	Active         int             `json:"active"`
	Inactive       int             `json:"inactive"`
	TotalVolume    decimal.Decimal `json:"totalVolume"`
	TotalReferrals int             `json:"totalReferrals"`
}

// SummarizeAgents computes AgentTotals over agents.
func SummarizeAgents(agents []Agent) AgentTotals {
	t := AgentTotals{Total: len(agents)}
	for _, a := range agents {
		if a.IsActive {
			t.Active++
		} else {
			t.Inactive++
		}
		t.TotalVolume = t.TotalVolume.Add(a.TotalReferralVolume)
		t.TotalReferrals += a.TotalReferrals
	}
	return t
}

// ReferralTracking records one order attributed to a referral code. It is
// read-only from the console's perspective.
type ReferralTracking struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	UserName    string          `json:"userName"`
	MarketID    string          `json:"marketId"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	OrderType   string          `json:"orderType"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// TrackReferralInput is the body of POST /referrals/track.
type TrackReferralInput struct {
	ReferralCode string          `json:"referralCode"`
	UserID       string          `json:"userId"`
	MarketID     string          `json:"marketId"`
	OrderAmount  decimal.Decimal `json:"orderAmount"`
	OrderType    string          `json:"orderType"`
}

// ReferralWindow is a count and volume over a time window.
type ReferralWindow struct {
	Referrals int             `json:"referrals"`
	Volume    decimal.Decimal `json:"volume"`
}

// ReferralStats is the per-agent statistics payload.
type ReferralStats struct {
	Agent *Agent `json:"agent,omitempty"`
	Stats struct {
		TotalReferrals int             `json:"totalReferrals"`
		TotalVolume    decimal.Decimal `json:"totalVolume"`
		Last30Days     ReferralWindow  `json:"last30Days"`
	} `json:"stats"`
	RecentReferrals []ReferralTracking `json:"recentReferrals"`
}
