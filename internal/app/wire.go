package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/timedrop/tdadmin/internal/blob/s3"
	"github.com/timedrop/tdadmin/internal/cache/redis"
	"github.com/timedrop/tdadmin/internal/config"
	"github.com/timedrop/tdadmin/internal/crypto"
	"github.com/timedrop/tdadmin/internal/domain"
	"github.com/timedrop/tdadmin/internal/notify"
	"github.com/timedrop/tdadmin/internal/pipeline"
	"github.com/timedrop/tdadmin/internal/platform/timedrop"
	"github.com/timedrop/tdadmin/internal/server/handler"
	"github.com/timedrop/tdadmin/internal/service"
	"github.com/timedrop/tdadmin/internal/session"
	"github.com/timedrop/tdadmin/internal/store/postgres"
)

// Dependencies bundles everything the modes need. It is constructed by Wire
// and torn down by the returned cleanup function. Optional parts are nil
// when their backing service is disabled.
type Dependencies struct {
	API      *timedrop.Client
	Session  *session.Service
	Notifier *notify.Notifier
	Bus      domain.ToastBus

	RateLimiter domain.RateLimiter
	Images      domain.ImageHost
	Audit       domain.AuditStore

	// Archiver is set when both the audit store and S3 are enabled.
	Archiver *pipeline.AuditArchiver

	Health map[string]handler.HealthCheck
	Views  Views
}

// Views holds one view-model per console screen.
type Views struct {
	Users       *service.UsersView
	Markets     *service.MarketsView
	Orders      *service.OrdersView
	Portfolios  *service.PortfoliosView
	Withdrawals *service.WithdrawalsView
	Agents      *service.AgentsView
	Analytics   *service.AnalyticsView
	Dashboard   *service.DashboardView
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{Health: map[string]handler.HealthCheck{}}

	// --- Redis (session store, login limiter, toast bus) ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			Prefix:     cfg.Redis.Prefix,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.Bus = redis.NewToastBus(redisClient)
		deps.Health["redis"] = redisClient.Ping
	} else {
		deps.Bus = notify.NewLocalBus()
	}

	// --- Session store ---
	var store domain.SessionStore
	switch {
	case cfg.Mode == "report":
		// Report runs log in with their own credentials and must not
		// replace the console's persisted session.
		store = session.NewMemoryStore()
	case cfg.Session.Backend == "redis":
		store = redis.NewSessionStore(redisClient, cfg.Session.TTL.Duration)
	default:
		store = session.NewFileStore(cfg.Session.FilePath, cfg.Session.Passphrase)
	}

	// --- PostgreSQL audit log ---
	var auditStore *postgres.AuditStore
	if cfg.Audit.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Audit.DSN,
			Host:     cfg.Audit.Host,
			Port:     cfg.Audit.Port,
			Database: cfg.Audit.Database,
			User:     cfg.Audit.User,
			Password: cfg.Audit.Password,
			SSLMode:  cfg.Audit.SSLMode,
			MaxConns: cfg.Audit.PoolMaxConns,
			MinConns: cfg.Audit.PoolMinConns,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)

		if cfg.Audit.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}
		auditStore = postgres.NewAuditStore(pgClient.Pool())
		deps.Audit = auditStore
		deps.Health["postgres"] = pgClient.Pool().Ping
	}

	// --- S3 image host ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
			PublicBaseURL:  cfg.S3.PublicBaseURL,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.Images = s3blob.NewImageHost(s3Client)
		deps.Health["s3"] = s3Client.Health

		if auditStore != nil {
			deps.Archiver = pipeline.NewAuditArchiver(auditStore, s3blob.NewWriter(s3Client),
				cfg.Jobs.AuditRetention.Duration, strings.Trim(cfg.Jobs.ArchivePrefix, "/"), cfg.Jobs.ArchivePrune, logger)
		}
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, deps.Bus, logger)
	closers = append(closers, deps.Notifier.Close)

	// --- Session and API client ---
	secret := []byte(cfg.Session.ConsoleSecret)
	if len(secret) == 0 {
		var err error
		if secret, err = crypto.RandomSecret(32); err != nil {
			return fail(fmt.Errorf("wire: console secret: %w", err))
		}
		logger.Warn("session.console_secret not set; console logins will not survive a restart")
	}
	base := timedrop.NewClient(cfg.API.BaseURL, nil, cfg.API.Timeout.Duration)
	deps.Session = session.NewService(store, base, secret, logger)
	deps.API = base.WithTokens(deps.Session)

	// --- View-models ---
	vd := service.Deps{
		Session:  deps.Session,
		Toasts:   deps.Notifier,
		Audit:    deps.Audit,
		Logger:   logger,
		PageSize: cfg.API.PageSize,
	}
	deps.Views = Views{
		Users:       service.NewUsersView(deps.API, vd),
		Markets:     service.NewMarketsView(deps.API, deps.Images, vd),
		Orders:      service.NewOrdersView(deps.API, vd),
		Portfolios:  service.NewPortfoliosView(deps.API, vd),
		Withdrawals: service.NewWithdrawalsView(deps.API, vd),
		Agents:      service.NewAgentsView(deps.API, cfg.API.AgentsPageLimit, cfg.API.ReferralOrigin, vd),
		Analytics:   service.NewAnalyticsView(deps.API, vd),
		Dashboard:   service.NewDashboardView(deps.API, vd),
	}

	return deps, cleanup, nil
}
