package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/service"
)

// AnalyticsService defines the methods the analytics endpoints require.
type AnalyticsService interface {
	Load(ctx context.Context, date time.Time) (service.AnalyticsSnapshot, error)
	Activities(ctx context.Context) ([]domain.Activity, error)
}

// DashboardService defines the methods the dashboard endpoint requires.
type DashboardService interface {
	Load(ctx context.Context) (service.Dashboard, error)
	Snapshot() (service.Dashboard, bool)
}

// ToastSource lists recent toasts.
type ToastSource interface {
	Recent(limit int) []domain.Toast
}

// AnalyticsHandler serves analytics, the dashboard, the activity feed and
// the toast history.
type AnalyticsHandler struct {
	analytics AnalyticsService
	dashboard DashboardService
	toasts    ToastSource
	logger    *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(analytics AnalyticsService, dashboard DashboardService, toasts ToastSource, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, dashboard: dashboard, toasts: toasts, logger: logHandler(logger, "analytics")}
}

// GetAnalytics returns revenue statistics for a day (default today).
// GET /api/analytics?date=YYYY-MM-DD
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	var date time.Time
	if v := r.URL.Query().Get("date"); v != "" {
		var err error
		if date, err = time.Parse(time.DateOnly, v); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}
	snap, err := h.analytics.Load(r.Context(), date)
	writePageWith(w, r, h.logger, "analytics", snap.Stats != nil, snap, err)
}

// ListActivities returns the recent-activity feed.
// GET /api/activities
func (h *AnalyticsHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	acts, err := h.analytics.Activities(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "activities", err)
		return
	}
	if acts == nil {
		acts = []domain.Activity{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": acts})
}

// GetDashboard returns the aggregate dashboard. cached=true skips the
// fetch when a complete dashboard is already held.
// GET /api/dashboard?cached=
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	if cached, _ := strconv.ParseBool(r.URL.Query().Get("cached")); cached {
		if d, ok := h.dashboard.Snapshot(); ok {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	d, err := h.dashboard.Load(r.Context())
	_, valid := h.dashboard.Snapshot()
	writePageWith(w, r, h.logger, "dashboard", valid, d, err)
}

// ListToasts returns the most recent toasts, newest first.
// GET /api/toasts?limit=
func (h *AnalyticsHandler) ListToasts(w http.ResponseWriter, r *http.Request) {
	limit := atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}
	toasts := h.toasts.Recent(limit)
	if toasts == nil {
		toasts = []domain.Toast{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"toasts": toasts})
}
