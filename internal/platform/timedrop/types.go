package timedrop

import (
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the response of POST /auth/login.
type LoginResponse struct {
	Token string     `json:"token"`
	User  APIProfile `json:"user"`
}

// APIProfile is the user object returned by the auth endpoints. The
// backend sends first/last name on login and a display name on /auth/me
// depending on version.
type APIProfile struct {
	ID        string      `json:"id"`
	Name      string      `json:"name,omitempty"`
	FirstName string      `json:"firstName,omitempty"`
	LastName  string      `json:"lastName,omitempty"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
}

// ToDomainProfile converts the wire profile into a domain.Profile.
func (p APIProfile) ToDomainProfile() domain.Profile {
	name := p.Name
	if name == "" {
		name = domain.User{FirstName: p.FirstName, LastName: p.LastName}.FullName()
	}
	return domain.Profile{
		ID:    p.ID,
		Name:  name,
		Email: p.Email,
		Role:  p.Role,
	}
}

type usersEnvelope struct {
	Users []domain.User `json:"users"`
}

type marketsEnvelope struct {
	Markets []domain.Market `json:"markets"`
}

type ordersEnvelope struct {
	Orders []domain.Order `json:"orders"`
}

type portfoliosEnvelope struct {
	Portfolios []domain.Portfolio `json:"portfolios"`
}

type withdrawalsEnvelope struct {
	Withdrawals []domain.Withdrawal `json:"withdrawals"`
}

// AgentPage is one server-side page of agents.
type AgentPage struct {
	Agents     []domain.Agent     `json:"agents"`
	Pagination *domain.Pagination `json:"pagination,omitempty"`
}

type agentEnvelope struct {
	Agent   domain.Agent `json:"agent"`
	Message string       `json:"message,omitempty"`
}

type activitiesEnvelope struct {
	Activities []domain.Activity `json:"activities"`
}

// MarketPayload is the wire shape of POST /admin/markets. The form's Title
// is sent as question.
type MarketPayload struct {
	Question  string              `json:"question"`
	Category  string              `json:"category"`
	StartDate string              `json:"startDate"`
	EndDate   string              `json:"endDate"`
	IsDaily   *bool               `json:"isDaily,omitempty"`
	Image     *domain.MarketImage `json:"image,omitempty"`
}

// NewMarketPayload maps the operator form onto the backend's field names.
// A zero StartDate is filled with now. The image block is omitted when no
// URL was uploaded.
func NewMarketPayload(f domain.MarketForm, now time.Time) MarketPayload {
	start := f.StartDate
	if start.IsZero() {
		start = now
	}
	p := MarketPayload{
		Question:  f.Title,
		Category:  f.Category,
		StartDate: start.UTC().Format(time.RFC3339),
		EndDate:   f.EndDate.UTC().Format(time.RFC3339),
		IsDaily:   f.IsDaily,
	}
	if f.ImageURL != "" {
		p.Image = &domain.MarketImage{URL: f.ImageURL, Hint: f.ImageHint}
	}
	return p
}

type resolvePayload struct {
	MarketID string `json:"marketId"`
	Result   string `json:"result"`
}

type statusPayload struct {
	Status string `json:"status"`
}

type agentStatusPayload struct {
	IsActive bool `json:"isActive"`
}
