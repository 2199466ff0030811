package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
	"github.com/timedrop/tdadmin/internal/service"
)

// UserService defines the methods the users handler requires.
type UserService interface {
	Page(ctx context.Context, p service.Params) (listview.Page[domain.User], error)
	Create(ctx context.Context, in domain.CreateUserInput) (domain.User, error)
	Update(ctx context.Context, id string, in domain.UpdateUserInput) (domain.User, error)
	Ban(ctx context.Context, id string) error
}

// UserHandler serves the users screen.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logHandler(logger, "users")}
}

// ListUsers returns one filtered page of users.
// GET /api/users?q=&status=&role=&page=&page_size=
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.Page(r.Context(), parseParams(r, "status", "role"))
	writePage(w, r, h.logger, "list users", page, err)
}

// CreateUser creates a platform account.
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// UpdateUser applies a partial update.
// PUT /api/users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.users.Update(r.Context(), pathParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, h.logger, "update user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// BanUser bans a user.
// DELETE /api/users/{id}
func (h *UserHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.users.Ban(r.Context(), id); err != nil {
		writeServiceError(w, r, h.logger, "ban user", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "banned", "id": id})
}
