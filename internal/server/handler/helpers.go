package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
	"github.com/timedrop/tdadmin/internal/service"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps a view-model error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrForbiddenRole):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// writeServiceError logs err and writes it with the status from statusFor.
// Backend messages are passed through; they are what the toast shows too.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "handler: "+op+" failed", slog.String("error", err.Error()))
	}
	writeError(w, status, err.Error())
}

// writePage writes a list snapshot. A failed refresh still answers 200
// with the previously loaded items and the error on the page, unless
// nothing was ever loaded or the session was lost.
func writePage[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, page listview.Page[T], err error) {
	if page.Items == nil {
		page.Items = []T{}
	}
	writePageWith(w, r, logger, op, page.Loaded, page, err)
}

func writePageWith(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, loaded bool, body any, err error) {
	if err != nil && (!loaded || errors.Is(err, domain.ErrUnauthorized)) {
		writeServiceError(w, r, logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// parseParams extracts the list controls of a screen from the query string:
// q for search, page and page_size, refresh, and the named discrete filters.
func parseParams(r *http.Request, filters ...string) service.Params {
	q := r.URL.Query()
	p := service.Params{
		Query:    strings.TrimSpace(q.Get("q")),
		Page:     atoi(q.Get("page")),
		PageSize: atoi(q.Get("page_size")),
	}
	p.Refresh, _ = strconv.ParseBool(q.Get("refresh"))
	for _, f := range filters {
		if v := q.Get(f); v != "" {
			if p.Filters == nil {
				p.Filters = map[string]string{}
			}
			p.Filters[f] = v
		}
	}
	return p
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// pathParam extracts a named path parameter using Go 1.22+ routing.
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("handler", handler))
}
