package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
	"github.com/timedrop/tdadmin/internal/service"
)

// WithdrawalService defines the methods the withdrawal handler requires.
type WithdrawalService interface {
	Page(ctx context.Context, p service.Params) (listview.Page[domain.Withdrawal], error)
	Detail(ctx context.Context, id string) (domain.Withdrawal, error)
	SetStatus(ctx context.Context, id string, status domain.WithdrawalStatus) error
}

// WithdrawalHandler serves the withdrawals review screen.
type WithdrawalHandler struct {
	withdrawals WithdrawalService
	logger      *slog.Logger
}

// NewWithdrawalHandler creates a WithdrawalHandler.
func NewWithdrawalHandler(withdrawals WithdrawalService, logger *slog.Logger) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals, logger: logHandler(logger, "withdrawals")}
}

// ListWithdrawals returns one filtered page of withdrawals.
// GET /api/withdrawals?q=&status=&page=&page_size=
func (h *WithdrawalHandler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	page, err := h.withdrawals.Page(r.Context(), parseParams(r, "status"))
	writePage(w, r, h.logger, "list withdrawals", page, err)
}

// GetWithdrawal fetches one withdrawal.
// GET /api/withdrawals/{id}
func (h *WithdrawalHandler) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	wd, err := h.withdrawals.Detail(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, "get withdrawal", err)
		return
	}
	writeJSON(w, http.StatusOK, wd)
}

// SetWithdrawalStatus approves, rejects or completes a withdrawal.
// POST /api/withdrawals/{id}/status
func (h *WithdrawalHandler) SetWithdrawalStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := pathParam(r, "id")
	if err := h.withdrawals.SetStatus(r.Context(), id, domain.WithdrawalStatus(req.Status)); err != nil {
		writeServiceError(w, r, h.logger, "set withdrawal status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status, "id": id})
}
