package timedrop

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/timedrop/tdadmin/internal/domain"
)

// ListWithdrawals returns every withdrawal request.
func (c *Client) ListWithdrawals(ctx context.Context) ([]domain.Withdrawal, error) {
	var env withdrawalsEnvelope
	if err := c.Do(ctx, http.MethodGet, "/admin/withdrawals", nil, true, &env); err != nil {
		return nil, fmt.Errorf("timedrop: list withdrawals: %w", err)
	}
	return env.Withdrawals, nil
}

// GetWithdrawal returns a single withdrawal with its details.
func (c *Client) GetWithdrawal(ctx context.Context, id string) (domain.Withdrawal, error) {
	var w domain.Withdrawal
	if err := c.Do(ctx, http.MethodGet, "/admin/withdrawals/"+url.PathEscape(id), nil, true, &w); err != nil {
		return domain.Withdrawal{}, fmt.Errorf("timedrop: get withdrawal %s: %w", id, err)
	}
	return w, nil
}

// UpdateWithdrawalStatus moves a withdrawal to status.
func (c *Client) UpdateWithdrawalStatus(ctx context.Context, id string, status domain.WithdrawalStatus) error {
	body := statusPayload{Status: string(status)}
	if err := c.Do(ctx, http.MethodPatch, "/admin/withdrawals/"+url.PathEscape(id), body, true, nil); err != nil {
		return fmt.Errorf("timedrop: update withdrawal %s: %w", id, err)
	}
	return nil
}
