package timedrop

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/timedrop/tdadmin/internal/domain"
)

// ListPortfolios returns every user portfolio.
func (c *Client) ListPortfolios(ctx context.Context) ([]domain.Portfolio, error) {
	var env portfoliosEnvelope
	if err := c.Do(ctx, http.MethodGet, "/admin/portfolios", nil, true, &env); err != nil {
		return nil, fmt.Errorf("timedrop: list portfolios: %w", err)
	}
	return env.Portfolios, nil
}

// GetPortfolio returns a single portfolio by ID.
func (c *Client) GetPortfolio(ctx context.Context, id string) (domain.Portfolio, error) {
	var p domain.Portfolio
	if err := c.Do(ctx, http.MethodGet, "/admin/portfolios/"+url.PathEscape(id), nil, true, &p); err != nil {
		return domain.Portfolio{}, fmt.Errorf("timedrop: get portfolio %s: %w", id, err)
	}
	return p, nil
}
