package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/timedrop/tdadmin/internal/domain"
)

// DashboardAPI is the slice of the Timedrop client the dashboard calls.
type DashboardAPI interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListMarkets(ctx context.Context) ([]domain.Market, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListWithdrawals(ctx context.Context) ([]domain.Withdrawal, error)
}

// Dashboard is the aggregate header of the console. It is only built from
// a complete set of the four collections.
type Dashboard struct {
	TotalUsers         int             `json:"totalUsers"`
	ActiveUsers        int             `json:"activeUsers"`
	TotalMarkets       int             `json:"totalMarkets"`
	OpenMarkets        int             `json:"openMarkets"`
	TotalOrders        int             `json:"totalOrders"`
	OrderVolume        decimal.Decimal `json:"orderVolume"`
	PendingWithdrawals int             `json:"pendingWithdrawals"`
	PendingAmount      decimal.Decimal `json:"pendingAmount"`
	GeneratedAt        time.Time       `json:"generatedAt"`
}

// DashboardView fetches users, markets, orders and withdrawals in parallel.
type DashboardView struct {
	base
	api DashboardAPI
	now func() time.Time

	mu    sync.Mutex
	gen   uint64
	last  Dashboard
	valid bool
}

// NewDashboardView creates the dashboard view-model.
func NewDashboardView(api DashboardAPI, d Deps) *DashboardView {
	return &DashboardView{base: newBase(d, "dashboard"), api: api, now: time.Now}
}

// Load runs the four fetches concurrently. The dashboard is replaced only
// when all of them succeed; otherwise the previous one is returned with
// the first error.
func (v *DashboardView) Load(ctx context.Context) (Dashboard, error) {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	var (
		users       []domain.User
		markets     []domain.Market
		orders      []domain.Order
		withdrawals []domain.Withdrawal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = v.api.ListUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		markets, err = v.api.ListMarkets(gctx)
		return err
	})
	g.Go(func() (err error) {
		orders, err = v.api.ListOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		withdrawals, err = v.api.ListWithdrawals(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		prev, _ := v.Snapshot()
		return prev, v.fail(ctx, "dashboard.fetch", "Failed to load dashboard", fmt.Errorf("dashboard: %w", err))
	}

	d := Summarize(users, markets, orders, withdrawals)
	d.GeneratedAt = v.now().UTC()

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen == v.gen {
		v.last, v.valid = d, true
	}
	return d, nil
}

// Snapshot returns the last complete dashboard, if any.
func (v *DashboardView) Snapshot() (Dashboard, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last, v.valid
}

// Summarize computes the dashboard aggregates.
func Summarize(users []domain.User, markets []domain.Market, orders []domain.Order, withdrawals []domain.Withdrawal) Dashboard {
	d := Dashboard{
		TotalUsers:   len(users),
		TotalMarkets: len(markets),
		TotalOrders:  len(orders),
	}
	for _, u := range users {
		if domain.DisplayStatus(u) == domain.UserStatusActive {
			d.ActiveUsers++
		}
	}
	for _, m := range markets {
		if m.Status == domain.MarketStatusOpen {
			d.OpenMarkets++
		}
	}
	for _, o := range orders {
		d.OrderVolume = d.OrderVolume.Add(o.Amount)
	}
	for _, w := range withdrawals {
		if w.Status == domain.WithdrawalPending {
			d.PendingWithdrawals++
			d.PendingAmount = d.PendingAmount.Add(w.Amount)
		}
	}
	return d
}
