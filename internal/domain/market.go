package domain

import "time"

// MarketStatus is the backend status string of a market. The spellings are
// part of the wire contract: "Open" is capitalised and the archived state
// is spelled "archieve".
type MarketStatus string

const (
	MarketStatusOpen     MarketStatus = "Open"
	MarketStatusClosed   MarketStatus = "closed"
	MarketStatusArchived MarketStatus = "archieve"
	MarketStatusResolved MarketStatus = "resolved"
)

// MarketCategories is the ordered category list offered by the market form.
var MarketCategories = []string{
	"News",
	"Climate",
	"Economics",
	"Social",
	"Companies",
	"Sports",
	"Finance",
	"Crypto",
	"Technology",
	"Science",
	"Health",
	"Misc",
}

// MarketImage is the optional hosted image of a market.
type MarketImage struct {
	URL  string `json:"url"`
	Hint string `json:"hint,omitempty"`
}

// Market is a prediction market. IsDaily and Image depend on the backend
// version and may be absent.
type Market struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Category  string       `json:"category"`
	Status    MarketStatus `json:"status"`
	IsDaily   *bool        `json:"isDaily,omitempty"`
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"`
	Image     *MarketImage `json:"image,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

var marketTransitions = map[MarketStatus][]MarketStatus{
	MarketStatusOpen:     {MarketStatusClosed, MarketStatusArchived},
	MarketStatusArchived: {MarketStatusOpen},
}

// CanTransition reports whether the console offers a move from the market's
// current status to next. Setting the current status again is allowed.
func (m Market) CanTransition(next MarketStatus) bool {
	if m.Status == next {
		return true
	}
	for _, s := range marketTransitions[m.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// MarketForm holds the fields an operator fills in to create a market.
// The wire payload uses different names; see the timedrop client.
type MarketForm struct {
	Title     string
	Category  string
	StartDate time.Time
	EndDate   time.Time
	IsDaily   *bool
	ImageURL  string
	ImageHint string
}

// MarketUpdate is a partial update for PUT /admin/markets/:id.
type MarketUpdate struct {
	Question *string       `json:"question,omitempty"`
	Category *string       `json:"category,omitempty"`
	Status   *MarketStatus `json:"status,omitempty"`
	IsDaily  *bool         `json:"isDaily,omitempty"`
	EndDate  *time.Time    `json:"endDate,omitempty"`
}
