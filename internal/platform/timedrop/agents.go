package timedrop

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/timedrop/tdadmin/internal/domain"
)

// ListAgents returns one server-side page of agents. This is the only list
// endpoint with backend pagination.
func (c *Client) ListAgents(ctx context.Context, page, limit int) (AgentPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	var resp AgentPage
	if err := c.Do(ctx, http.MethodGet, "/agents/all?"+params.Encode(), nil, true, &resp); err != nil {
		return AgentPage{}, fmt.Errorf("timedrop: list agents: %w", err)
	}
	return resp, nil
}

// CreateAgent registers a referral agent. The backend generates the
// referral code. The endpoint is public.
func (c *Client) CreateAgent(ctx context.Context, in domain.CreateAgentInput) (domain.Agent, error) {
	var env agentEnvelope
	if err := c.Do(ctx, http.MethodPost, "/agents/register", in, false, &env); err != nil {
		return domain.Agent{}, fmt.Errorf("timedrop: create agent: %w", err)
	}
	return env.Agent, nil
}

// UpdateAgentStatus activates or deactivates an agent.
func (c *Client) UpdateAgentStatus(ctx context.Context, id string, active bool) error {
	path := fmt.Sprintf("/agents/%s/status", url.PathEscape(id))
	if err := c.Do(ctx, http.MethodPatch, path, agentStatusPayload{IsActive: active}, true, nil); err != nil {
		return fmt.Errorf("timedrop: update agent %s status: %w", id, err)
	}
	return nil
}
