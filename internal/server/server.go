package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/server/handler"
	"github.com/timedrop/tdadmin/internal/server/middleware"
	"github.com/timedrop/tdadmin/internal/server/ws"
	"github.com/timedrop/tdadmin/internal/session"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port         int
	CORSOrigins  []string
	SecureCookie bool

	// LoginLimiter throttles POST /login per client IP. Nil disables it.
	LoginLimiter domain.RateLimiter
	LoginLimit   int
	LoginWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Audit may be nil when no audit store is configured.
type Handlers struct {
	Health      *handler.HealthHandler
	Session     *handler.SessionHandler
	Users       *handler.UserHandler
	Markets     *handler.MarketHandler
	Orders      *handler.OrderHandler
	Withdrawals *handler.WithdrawalHandler
	Agents      *handler.AgentHandler
	Analytics   *handler.AnalyticsHandler
	Refresh     *handler.RefreshHandler
	Audit       *handler.AuditHandler
}

// Server is the console's HTTP + WebSocket surface.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers every route and wraps the mux in the middleware
// chain: CORS, logging, then the auth gate.
func NewServer(cfg Config, handlers Handlers, gate middleware.Gate, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Public.
	var login http.Handler = http.HandlerFunc(handlers.Session.Login)
	if cfg.LoginLimiter != nil {
		login = middleware.RateLimit(cfg.LoginLimiter, "login", cfg.LoginLimit, cfg.LoginWindow, logger)(login)
	}
	mux.Handle("POST "+session.LoginRoute, login)
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Session.
	mux.HandleFunc("POST /logout", handlers.Session.Logout)
	mux.HandleFunc("GET /api/session", handlers.Session.Session)

	// Users.
	mux.HandleFunc("GET /api/users", handlers.Users.ListUsers)
	mux.HandleFunc("POST /api/users", handlers.Users.CreateUser)
	mux.HandleFunc("PUT /api/users/{id}", handlers.Users.UpdateUser)
	mux.HandleFunc("DELETE /api/users/{id}", handlers.Users.BanUser)

	// Markets.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("POST /api/markets", handlers.Markets.CreateMarket)
	mux.HandleFunc("POST /api/markets/{id}/status", handlers.Markets.SetMarketStatus)
	mux.HandleFunc("POST /api/markets/{id}/resolve", handlers.Markets.ResolveMarket)

	// Orders and portfolios.
	mux.HandleFunc("GET /api/orders", handlers.Orders.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", handlers.Orders.GetOrder)
	mux.HandleFunc("GET /api/portfolios", handlers.Orders.ListPortfolios)

	// Withdrawals.
	mux.HandleFunc("GET /api/withdrawals", handlers.Withdrawals.ListWithdrawals)
	mux.HandleFunc("GET /api/withdrawals/{id}", handlers.Withdrawals.GetWithdrawal)
	mux.HandleFunc("POST /api/withdrawals/{id}/status", handlers.Withdrawals.SetWithdrawalStatus)

	// Agents.
	mux.HandleFunc("GET /api/agents", handlers.Agents.ListAgents)
	mux.HandleFunc("POST /api/agents", handlers.Agents.CreateAgent)
	mux.HandleFunc("POST /api/agents/{id}/status", handlers.Agents.SetAgentStatus)
	mux.HandleFunc("GET /api/agents/{code}/stats", handlers.Agents.AgentStats)

	// Analytics, dashboard, toasts.
	mux.HandleFunc("GET /api/analytics", handlers.Analytics.GetAnalytics)
	mux.HandleFunc("GET /api/activities", handlers.Analytics.ListActivities)
	mux.HandleFunc("GET /api/dashboard", handlers.Analytics.GetDashboard)
	mux.HandleFunc("GET /api/toasts", handlers.Analytics.ListToasts)

	mux.HandleFunc("POST /api/refresh/{resource}", handlers.Refresh.Refresh)

	if handlers.Audit != nil {
		mux.HandleFunc("GET /api/audit", handlers.Audit.ListAudit)
	}
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.AuthGate(gate, session.LoginRoute, "/api/health")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
