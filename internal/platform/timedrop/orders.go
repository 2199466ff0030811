package timedrop

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/timedrop/tdadmin/internal/domain"
)

// ListOrders returns every order.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var env ordersEnvelope
	if err := c.Do(ctx, http.MethodGet, "/admin/orders", nil, true, &env); err != nil {
		return nil, fmt.Errorf("timedrop: list orders: %w", err)
	}
	return env.Orders, nil
}

// GetOrder returns a single order by ID.
func (c *Client) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var o domain.Order
	if err := c.Do(ctx, http.MethodGet, "/admin/orders/"+url.PathEscape(id), nil, true, &o); err != nil {
		return domain.Order{}, fmt.Errorf("timedrop: get order %s: %w", id, err)
	}
	return o, nil
}
