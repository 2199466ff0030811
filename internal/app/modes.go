package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/timedrop/tdadmin/internal/pipeline"
	"github.com/timedrop/tdadmin/internal/server"
	"github.com/timedrop/tdadmin/internal/server/handler"
	"github.com/timedrop/tdadmin/internal/server/ws"
	"github.com/timedrop/tdadmin/internal/service"
	"github.com/timedrop/tdadmin/internal/session"
)

// ServerMode restores the persisted session and serves the console until
// ctx is cancelled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	if err := deps.Session.LoadSession(ctx); err != nil {
		// Not fatal: the console starts at the login page.
		a.logger.WarnContext(ctx, "stored session not restored", slog.String("error", err.Error()))
	}

	g, ctx := errgroup.WithContext(ctx)

	hub := ws.NewHub(deps.Bus, originChecker(a.cfg.Server.CORSOrigins), a.root)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(server.Config{
		Port:         a.cfg.Server.Port,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		SecureCookie: a.cfg.Server.SecureCookie,
		LoginLimiter: deps.RateLimiter,
		LoginLimit:   a.cfg.Server.LoginRateLimit,
		LoginWindow:  a.cfg.Server.LoginRateWindow.Duration,
	}, a.buildHandlers(deps), deps.Session, hub, a.root)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	sched, err := a.buildScheduler(deps)
	if err != nil {
		return err
	}
	g.Go(func() error {
		return sched.Run(ctx)
	})

	if every := a.cfg.Server.DashboardInterval.Duration; every > 0 {
		g.Go(func() error {
			a.pushDashboard(ctx, deps, hub, every)
			return nil
		})
	}

	return g.Wait()
}

func (a *App) buildHandlers(deps *Dependencies) server.Handlers {
	v := deps.Views
	h := server.Handlers{
		Health:      handler.NewHealthHandler(deps.Health, a.root),
		Session:     handler.NewSessionHandler(deps.Session, a.cfg.Server.SecureCookie, a.root),
		Users:       handler.NewUserHandler(v.Users, a.root),
		Markets:     handler.NewMarketHandler(v.Markets, a.root),
		Orders:      handler.NewOrderHandler(v.Orders, v.Portfolios, a.root),
		Withdrawals: handler.NewWithdrawalHandler(v.Withdrawals, a.root),
		Agents:      handler.NewAgentHandler(v.Agents, a.root),
		Analytics:   handler.NewAnalyticsHandler(v.Analytics, v.Dashboard, deps.Notifier, a.root),
		Refresh: handler.NewRefreshHandler(map[string]handler.RefreshFunc{
			"users":       v.Users.Refresh,
			"markets":     v.Markets.Refresh,
			"orders":      v.Orders.Refresh,
			"portfolios":  v.Portfolios.Refresh,
			"withdrawals": v.Withdrawals.Refresh,
			"agents":      v.Agents.Refresh,
			"analytics": func(ctx context.Context) error {
				_, err := v.Analytics.Load(ctx, time.Time{})
				return err
			},
			"dashboard": func(ctx context.Context) error {
				_, err := v.Dashboard.Load(ctx)
				return err
			},
		}, a.root),
	}
	if deps.Audit != nil {
		h.Audit = handler.NewAuditHandler(deps.Audit, a.root)
	}
	return h
}

// pushDashboard reloads the dashboard on every tick while a session is
// held and broadcasts it to connected consoles.
func (a *App) pushDashboard(ctx context.Context, deps *Dependencies, hub *ws.Hub, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if deps.Session.State() != session.StateAuthenticated || hub.ClientCount() == 0 {
			continue
		}
		d, err := deps.Views.Dashboard.Load(ctx)
		if err != nil {
			a.logger.DebugContext(ctx, "dashboard push skipped", slog.String("error", err.Error()))
			continue
		}
		hub.Broadcast("dashboard", d)
	}
}

func (a *App) buildScheduler(deps *Dependencies) (*pipeline.Scheduler, error) {
	sched, err := pipeline.NewScheduler(a.root)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if expr := a.cfg.Jobs.ReportCron; expr != "" {
		err := sched.Add("report", expr, func(ctx context.Context) error {
			if deps.Session.State() != session.StateAuthenticated {
				a.logger.InfoContext(ctx, "scheduled report skipped: no session")
				return nil
			}
			return a.sendReport(ctx, deps)
		})
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	if expr := a.cfg.Jobs.ArchiveCron; expr != "" && deps.Archiver != nil {
		err := sched.Add("audit_archive", expr, func(ctx context.Context) error {
			_, err := deps.Archiver.Run(ctx)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
	}
	return sched, nil
}

// ReportMode logs in with the operator credentials, loads the dashboard
// once, sends it through the notifier and exits.
func (a *App) ReportMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting report mode")

	if !deps.Session.Login(ctx, a.cfg.Operator.Email, a.cfg.Operator.Password) {
		err := deps.Session.LastError()
		if err == nil {
			err = errors.New("login rejected")
		}
		return fmt.Errorf("app: report login: %w", err)
	}
	defer deps.Session.Logout(context.WithoutCancel(ctx))

	return a.sendReport(ctx, deps)
}

// ArchiveMode runs the audit archiver once and exits.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")
	if deps.Archiver == nil {
		return errors.New("app: archive mode needs the audit store and s3")
	}
	n, err := deps.Archiver.Run(ctx)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.logger.InfoContext(ctx, "archive complete", slog.Int("entries", n))
	return nil
}

// sendReport loads the dashboard with the current session, logs it and
// sends a summary through the notifier.
func (a *App) sendReport(ctx context.Context, deps *Dependencies) error {
	d, err := deps.Views.Dashboard.Load(ctx)
	if err != nil {
		return fmt.Errorf("app: report dashboard: %w", err)
	}

	a.logger.InfoContext(ctx, "dashboard report",
		slog.Int("total_users", d.TotalUsers),
		slog.Int("active_users", d.ActiveUsers),
		slog.Int("open_markets", d.OpenMarkets),
		slog.Int("total_orders", d.TotalOrders),
		slog.String("order_volume", d.OrderVolume.StringFixed(2)),
		slog.Int("pending_withdrawals", d.PendingWithdrawals),
	)

	if err := deps.Notifier.Notify(ctx, "report", "Timedrop daily report", formatReport(d)); err != nil {
		return fmt.Errorf("app: report notify: %w", err)
	}
	return nil
}

func formatReport(d service.Dashboard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Users: %d (%d active)\n", d.TotalUsers, d.ActiveUsers)
	fmt.Fprintf(&b, "Markets: %d (%d open)\n", d.TotalMarkets, d.OpenMarkets)
	fmt.Fprintf(&b, "Orders: %d, volume %s\n", d.TotalOrders, d.OrderVolume.StringFixed(2))
	fmt.Fprintf(&b, "Pending withdrawals: %d, amount %s\n", d.PendingWithdrawals, d.PendingAmount.StringFixed(2))
	fmt.Fprintf(&b, "Generated %s", d.GeneratedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// originChecker admits websocket upgrades from the configured CORS origins,
// or from the serving host itself when none are configured.
func originChecker(origins []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(origins, "*") || slices.Contains(origins, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
