package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
)

// RefreshFunc refetches one resource.
type RefreshFunc func(ctx context.Context) error

// RefreshHandler forces a refetch of a named resource.
type RefreshHandler struct {
	targets map[string]RefreshFunc
	logger  *slog.Logger
}

// NewRefreshHandler creates a RefreshHandler over the given resources.
func NewRefreshHandler(targets map[string]RefreshFunc, logger *slog.Logger) *RefreshHandler {
	return &RefreshHandler{targets: targets, logger: logHandler(logger, "refresh")}
}

// Refresh refetches {resource}.
// POST /api/refresh/{resource}
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "resource")
	fn, ok := h.targets[name]
	if !ok {
		known := make([]string, 0, len(h.targets))
		for k := range h.targets {
			known = append(known, k)
		}
		sort.Strings(known)
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown resource " + name, "resources": known})
		return
	}
	if err := fn(r.Context()); err != nil {
		writeServiceError(w, r, h.logger, "refresh "+name, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed", "resource": name})
}
