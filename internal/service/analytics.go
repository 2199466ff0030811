package service

import (
	"context"
	"sync"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
)

// AnalyticsAPI is the slice of the Timedrop client the analytics screen
// calls.
type AnalyticsAPI interface {
	RevenueStats(ctx context.Context, date time.Time) (domain.Analytics, error)
	RecentActivities(ctx context.Context) ([]domain.Activity, error)
}

// AnalyticsSnapshot is the analytics screen for one date.
type AnalyticsSnapshot struct {
	Date    string            `json:"date"`
	Stats   *domain.Analytics `json:"stats,omitempty"`
	Loading bool              `json:"loading"`
	Err     string            `json:"error,omitempty"`
}

// AnalyticsView backs the date-scoped revenue screen and the activity feed.
type AnalyticsView struct {
	base
	api AnalyticsAPI
	now func() time.Time

	mu   sync.Mutex
	gen  uint64
	snap AnalyticsSnapshot
}

// NewAnalyticsView creates the analytics view-model.
func NewAnalyticsView(api AnalyticsAPI, d Deps) *AnalyticsView {
	return &AnalyticsView{base: newBase(d, "analytics"), api: api, now: time.Now}
}

// Load fetches revenue stats for date, or for today when date is zero. On
// failure the previous snapshot is kept and the error recorded on it.
func (v *AnalyticsView) Load(ctx context.Context, date time.Time) (AnalyticsSnapshot, error) {
	if date.IsZero() {
		date = v.now()
	}
	day := date.Format(time.DateOnly)

	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.snap.Loading = true
	v.mu.Unlock()

	stats, err := v.api.RevenueStats(ctx, date)

	v.mu.Lock()
	if gen == v.gen {
		v.snap.Loading = false
		if err != nil {
			v.snap.Err = err.Error()
		} else {
			v.snap = AnalyticsSnapshot{Date: day, Stats: &stats}
		}
	}
	snap := v.snap
	v.mu.Unlock()

	if err != nil {
		return snap, v.fail(ctx, "analytics.fetch", "Failed to fetch analytics", err)
	}
	return snap, nil
}

// Activities fetches the recent-activity feed.
func (v *AnalyticsView) Activities(ctx context.Context) ([]domain.Activity, error) {
	acts, err := v.api.RecentActivities(ctx)
	if err != nil {
		return nil, v.fail(ctx, "activities.fetch", "Failed to load recent activity", err)
	}
	return acts, nil
}
