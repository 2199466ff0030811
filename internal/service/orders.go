package service

import (
	"context"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/listview"
)

// OrdersAPI is the slice of the Timedrop client the orders screen calls.
type OrdersAPI interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
}

// OrdersView backs the read-only orders screen.
type OrdersView struct {
	base
	api  OrdersAPI
	list *listview.List[domain.Order]
}

// NewOrdersView creates the orders view-model.
func NewOrdersView(api OrdersAPI, d Deps) *OrdersView {
	return &OrdersView{
		base: newBase(d, "orders"),
		api:  api,
		list: listview.New(func(o domain.Order) string { return o.ID }, matchOrder, d.PageSize),
	}
}

func matchOrder(o domain.Order, q listview.Query) bool {
	return listview.Contains(q.Text, o.ID, o.Status, o.UserID, o.MarketID) &&
		listview.Matches(q.Filter("status"), o.Status)
}

// Page returns the orders page for p.
func (v *OrdersView) Page(ctx context.Context, p Params) (listview.Page[domain.Order], error) {
	return page(ctx, &v.base, v.list, p, v.api.ListOrders)
}

// Refresh refetches every order.
func (v *OrdersView) Refresh(ctx context.Context) error {
	return load(ctx, &v.base, v.list, v.api.ListOrders)
}

// Detail fetches one order from the backend. It is not cached.
func (v *OrdersView) Detail(ctx context.Context, id string) (domain.Order, error) {
	if id == "" {
		return domain.Order{}, invalid("order id is required")
	}
	o, err := v.api.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, v.fail(ctx, "order.detail", "Failed to load order", err)
	}
	return o, nil
}
