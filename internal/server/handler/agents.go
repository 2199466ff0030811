package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/service"
)

// AgentService defines the methods the agent handler requires.
type AgentService interface {
	Page(ctx context.Context, p service.Params, serverPage int) (service.AgentsPage, error)
	Create(ctx context.Context, in domain.CreateAgentInput) (domain.Agent, error)
	SetActive(ctx context.Context, id string, active bool) error
	Stats(ctx context.Context, code string) (domain.ReferralStats, error)
}

// AgentHandler serves the agents screen.
type AgentHandler struct {
	agents AgentService
	logger *slog.Logger
}

// NewAgentHandler creates an AgentHandler.
func NewAgentHandler(agents AgentService, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{agents: agents, logger: logHandler(logger, "agents")}
}

// ListAgents returns the agents page with totals and the backend paging
// block. server_page switches the backend page.
// GET /api/agents?q=&status=&page=&page_size=&server_page=
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	serverPage, _ := strconv.Atoi(r.URL.Query().Get("server_page"))
	page, err := h.agents.Page(r.Context(), parseParams(r, "status"), serverPage)
	if page.Items == nil {
		page.Items = []domain.Agent{}
	}
	writePageWith(w, r, h.logger, "list agents", page.Loaded, page, err)
}

// CreateAgent registers an agent. The response carries the generated
// referral code.
// POST /api/agents
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateAgentInput
	if !decodeJSON(w, r, &in) {
		return
	}
	a, err := h.agents.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, "create agent", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type agentStatusRequest struct {
	IsActive *bool `json:"isActive"`
}

// SetAgentStatus activates or deactivates an agent.
// POST /api/agents/{id}/status
func (h *AgentHandler) SetAgentStatus(w http.ResponseWriter, r *http.Request) {
	var req agentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "isActive is required")
		return
	}
	id := pathParam(r, "id")
	if err := h.agents.SetActive(r.Context(), id, *req.IsActive); err != nil {
		writeServiceError(w, r, h.logger, "set agent status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "isActive": *req.IsActive})
}

// AgentStats returns referral statistics for a referral code.
// GET /api/agents/{code}/stats
func (h *AgentHandler) AgentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.agents.Stats(r.Context(), pathParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, h.logger, "agent stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
