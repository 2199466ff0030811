package timedrop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
)

// RevenueStats returns the revenue aggregates for the given day. A zero
// date omits the parameter and lets the backend pick today.
func (c *Client) RevenueStats(ctx context.Context, date time.Time) (domain.Analytics, error) {
	path := "/admin/revenue-stats"
	if !date.IsZero() {
		params := url.Values{}
		params.Set("date", date.Format(time.DateOnly))
		path += "?" + params.Encode()
	}

	var a domain.Analytics
	if err := c.Do(ctx, http.MethodGet, path, nil, true, &a); err != nil {
		return domain.Analytics{}, fmt.Errorf("timedrop: revenue stats: %w", err)
	}
	return a, nil
}

// RecentActivities returns the admin activity feed. Older backends send a
// bare array, newer ones wrap it in {"activities": [...]}; both are
// accepted.
func (c *Client) RecentActivities(ctx context.Context) ([]domain.Activity, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, "/admin/recent-activities", nil, true, &raw); err != nil {
		return nil, fmt.Errorf("timedrop: recent activities: %w", err)
	}
	return decodeActivities(raw)
}

func decodeActivities(raw json.RawMessage) ([]domain.Activity, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []domain.Activity
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("timedrop: decode activities: %w", err)
		}
		return list, nil
	}
	var env activitiesEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("timedrop: decode activities: %w", err)
	}
	return env.Activities, nil
}
