package timedrop

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/timedrop/tdadmin/internal/domain"
)

// ReferralStats returns the statistics for one referral code. The endpoint
// is public.
func (c *Client) ReferralStats(ctx context.Context, code string) (domain.ReferralStats, error) {
	params := url.Values{}
	params.Set("referralCode", code)

	var stats domain.ReferralStats
	if err := c.Do(ctx, http.MethodGet, "/referrals/stats?"+params.Encode(), nil, false, &stats); err != nil {
		return domain.ReferralStats{}, fmt.Errorf("timedrop: referral stats %s: %w", code, err)
	}
	return stats, nil
}

// TrackReferral records a referral usage against an order.
func (c *Client) TrackReferral(ctx context.Context, in domain.TrackReferralInput) error {
	if err := c.Do(ctx, http.MethodPost, "/referrals/track", in, true, nil); err != nil {
		return fmt.Errorf("timedrop: track referral %s: %w", in.ReferralCode, err)
	}
	return nil
}
