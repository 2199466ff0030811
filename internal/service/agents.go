package service

import (
	"context"
	"strings"
	"sync"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
	"github.com/timedrop/tdadmin/internal/platform/timedrop"
)

// DefaultAgentsLimit is the server-side page size for /agents/all.
const DefaultAgentsLimit = 100

// AgentsAPI is the slice of the Timedrop client the agents screen calls.
type AgentsAPI interface {
	ListAgents(ctx context.Context, page, limit int) (timedrop.AgentPage, error)
	CreateAgent(ctx context.Context, in domain.CreateAgentInput) (domain.Agent, error)
	UpdateAgentStatus(ctx context.Context, id string, active bool) error
	ReferralStats(ctx context.Context, code string) (domain.ReferralStats, error)
}

// AgentsPage is the agents screen: the client-side page of the current
// server page, the server paging block and the header aggregates.
type AgentsPage struct {
	listview.Page[domain.Agent]
	Server domain.Pagination  `json:"server"`
	Totals domain.AgentTotals `json:"totals"`
}

// AgentsView backs the agents and referrals screen. Agents are the only
// resource paged by the backend; the loaded server page is then searched
// and paged locally like every other list.
type AgentsView struct {
	base
	api    AgentsAPI
	list   *listview.List[domain.Agent]
	limit  int
	origin string

	mu         sync.Mutex
	serverPage int
	pagination domain.Pagination
}

// NewAgentsView creates the agents view-model. limit is the server page
// size; values below 1 use DefaultAgentsLimit. referralOrigin is the public
// site that referral links point at; empty leaves agents without a link.
func NewAgentsView(api AgentsAPI, limit int, referralOrigin string, d Deps) *AgentsView {
	if limit < 1 {
		limit = DefaultAgentsLimit
	}
	return &AgentsView{
		base:       newBase(d, "agents"),
		api:        api,
		list:       listview.New(func(a domain.Agent) string { return a.ID }, matchAgent, d.PageSize),
		limit:      limit,
		origin:     referralOrigin,
		serverPage: 1,
	}
}

func matchAgent(a domain.Agent, q listview.Query) bool {
	state := "inactive"
	if a.IsActive {
		state = "active"
	}
	return listview.Contains(q.Text, a.Name, a.Email, a.ReferralCode) &&
		listview.Matches(q.Filter("status"), state)
}

func (v *AgentsView) fetch(ctx context.Context) ([]domain.Agent, error) {
	v.mu.Lock()
	page := v.serverPage
	v.mu.Unlock()

	resp, err := v.api.ListAgents(ctx, page, v.limit)
	if err != nil {
		return nil, err
	}

	pg := domain.Pagination{Page: page, Limit: v.limit, Total: len(resp.Agents), TotalPages: 1}
	if resp.Pagination != nil {
		pg = *resp.Pagination
	}
	v.mu.Lock()
	if page == v.serverPage {
		v.pagination = pg
	}
	v.mu.Unlock()

	for i := range resp.Agents {
		v.link(&resp.Agents[i])
	}
	return resp.Agents, nil
}

func (v *AgentsView) link(a *domain.Agent) {
	a.ReferralLink = domain.ReferralLink(v.origin, a.ReferralCode)
}

// Page returns the agents screen for p. A serverPage above 0 that differs
// from the loaded one switches the backend page and refetches.
func (v *AgentsView) Page(ctx context.Context, p Params, serverPage int) (AgentsPage, error) {
	if serverPage > 0 {
		v.mu.Lock()
		if serverPage != v.serverPage {
			v.serverPage = serverPage
			p.Refresh = true
		}
		v.mu.Unlock()
	}

	snap, err := page(ctx, &v.base, v.list, p, v.fetch)

	v.mu.Lock()
	server := v.pagination
	v.mu.Unlock()
	return AgentsPage{
		Page:   snap,
		Server: server,
		Totals: domain.SummarizeAgents(v.list.Items()),
	}, err
}

// Refresh refetches the current server page.
func (v *AgentsView) Refresh(ctx context.Context) error {
	return load(ctx, &v.base, v.list, v.fetch)
}

// Create registers an agent and refetches so the aggregates include it.
// The returned agent carries the backend-generated referral code.
func (v *AgentsView) Create(ctx context.Context, in domain.CreateAgentInput) (domain.Agent, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" {
		return domain.Agent{}, invalid("agent name and email are required")
	}

	a, err := v.api.CreateAgent(ctx, in)
	v.record(ctx, "create", a.ID, map[string]any{"email": in.Email, "referralCode": a.ReferralCode}, err)
	if err != nil {
		return domain.Agent{}, v.fail(ctx, "agent.create", "Failed to create agent", err)
	}
	v.link(&a)
	v.Toasts.Success(ctx, "agent.created", "Agent created successfully", "Referral code "+a.ReferralCode)

	_ = v.Refresh(ctx)
	return a, nil
}

// SetActive activates or deactivates an agent and patches the row.
func (v *AgentsView) SetActive(ctx context.Context, id string, active bool) error {
	if id == "" {
		return invalid("agent id is required")
	}

	action, event, title := "activate", "agent.activated", "Agent activated successfully"
	if !active {
		action, event, title = "deactivate", "agent.deactivated", "Agent deactivated successfully"
	}

	err := v.api.UpdateAgentStatus(ctx, id, active)
	v.record(ctx, action, id, nil, err)
	if err != nil {
		return v.fail(ctx, "agent.status", "Failed to "+action+" agent", err)
	}

	v.list.Patch(id, func(a *domain.Agent) { a.IsActive = active })
	v.Toasts.Success(ctx, event, title, id)
	return nil
}

// Stats loads the referral statistics of one agent by referral code.
func (v *AgentsView) Stats(ctx context.Context, code string) (domain.ReferralStats, error) {
	if code == "" {
		return domain.ReferralStats{}, invalid("referral code is required")
	}
	s, err := v.api.ReferralStats(ctx, code)
	if err != nil {
		return domain.ReferralStats{}, v.fail(ctx, "agent.stats", "Failed to load agent statistics", err)
	}
	if s.Agent != nil {
		v.link(s.Agent)
	}
	return s, nil
}
