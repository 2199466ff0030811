package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
	"github.com/timedrop/tdadmin/internal/service"
)

// OrderService defines the methods the order handler requires.
type OrderService interface {
	Page(ctx context.Context, p service.Params) (listview.Page[domain.Order], error)
	Detail(ctx context.Context, id string) (domain.Order, error)
}

// PortfolioService defines the methods the portfolio handler requires.
type PortfolioService interface {
	Page(ctx context.Context, p service.Params) (listview.Page[domain.Portfolio], error)
}

// OrderHandler serves the read-only orders and portfolios screens.
type OrderHandler struct {
	orders     OrderService
	portfolios PortfolioService
	logger     *slog.Logger
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(orders OrderService, portfolios PortfolioService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, portfolios: portfolios, logger: logHandler(logger, "orders")}
}

// ListOrders returns one filtered page of orders.
// GET /api/orders?q=&status=&page=&page_size=
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := h.orders.Page(r.Context(), parseParams(r, "status"))
	writePage(w, r, h.logger, "list orders", page, err)
}

// GetOrder fetches one order from the backend.
// GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Detail(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, "get order", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// ListPortfolios returns one filtered page of portfolios.
// GET /api/portfolios?q=&status=&page=&page_size=
func (h *OrderHandler) ListPortfolios(w http.ResponseWriter, r *http.Request) {
	page, err := h.portfolios.Page(r.Context(), parseParams(r, "status"))
	writePage(w, r, h.logger, "list portfolios", page, err)
}
