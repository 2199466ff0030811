package timedrop

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
)

// ListMarkets returns every market.
func (c *Client) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	var env marketsEnvelope
	if err := c.Do(ctx, http.MethodGet, "/admin/markets", nil, true, &env); err != nil {
		return nil, fmt.Errorf("timedrop: list markets: %w", err)
	}
	return env.Markets, nil
}

// CreateMarket submits the form using the backend's field names.
func (c *Client) CreateMarket(ctx context.Context, form domain.MarketForm) (domain.Market, error) {
	var m domain.Market
	payload := NewMarketPayload(form, time.Now())
	if err := c.Do(ctx, http.MethodPost, "/admin/markets", payload, true, &m); err != nil {
		return domain.Market{}, fmt.Errorf("timedrop: create market: %w", err)
	}
	return m, nil
}

// GetMarket returns a single market by ID.
func (c *Client) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	var m domain.Market
	if err := c.Do(ctx, http.MethodGet, "/admin/markets/"+url.PathEscape(id), nil, true, &m); err != nil {
		return domain.Market{}, fmt.Errorf("timedrop: get market %s: %w", id, err)
	}
	return m, nil
}

// UpdateMarket applies a partial update, including status changes.
func (c *Client) UpdateMarket(ctx context.Context, id string, in domain.MarketUpdate) (domain.Market, error) {
	var m domain.Market
	if err := c.Do(ctx, http.MethodPut, "/admin/markets/"+url.PathEscape(id), in, true, &m); err != nil {
		return domain.Market{}, fmt.Errorf("timedrop: update market %s: %w", id, err)
	}
	return m, nil
}

// SetMarketStatus is UpdateMarket restricted to the status field.
func (c *Client) SetMarketStatus(ctx context.Context, id string, status domain.MarketStatus) (domain.Market, error) {
	return c.UpdateMarket(ctx, id, domain.MarketUpdate{Status: &status})
}

// DeleteMarket removes a market.
func (c *Client) DeleteMarket(ctx context.Context, id string) error {
	if err := c.Do(ctx, http.MethodDelete, "/admin/markets/"+url.PathEscape(id), nil, true, nil); err != nil {
		return fmt.Errorf("timedrop: delete market %s: %w", id, err)
	}
	return nil
}

// ResolveMarket settles a market with the given outcome. Resolution lives
// outside the /admin tree.
func (c *Client) ResolveMarket(ctx context.Context, id, outcome string) error {
	body := resolvePayload{MarketID: id, Result: outcome}
	if err := c.Do(ctx, http.MethodPost, "/markets/resolve", body, true, nil); err != nil {
		return fmt.Errorf("timedrop: resolve market %s: %w", id, err)
	}
	return nil
}
