// Package config defines the top-level configuration for the admin console
// and provides validation helpers.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by TDADMIN_* environment variables.
type Config struct {
	API      APIConfig      `toml:"api"`
	Session  SessionConfig  `toml:"session"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Audit    AuditConfig    `toml:"audit"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Jobs     JobsConfig     `toml:"jobs"`
	Operator OperatorConfig `toml:"-"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// APIConfig points the console at the Timedrop backend.
type APIConfig struct {
	BaseURL         string   `toml:"base_url"`
	Timeout         duration `toml:"timeout"`
	PageSize        int      `toml:"page_size"`
	AgentsPageLimit int      `toml:"agents_page_limit"`
	// ReferralOrigin is the public site agents' referral links point at,
	// e.g. https://timedrop.live. Empty omits the links.
	ReferralOrigin  string   `toml:"referral_origin"`
}

// SessionConfig selects where the admin token is persisted.
type SessionConfig struct {
	// Backend is "file" or "redis".
	Backend  string `toml:"backend"`
	FilePath string `toml:"file_path"`
	// Passphrase seals the session file. Empty stores it in plain JSON.
	Passphrase string `toml:"passphrase"`
	// ConsoleSecret keys the console cookie. Empty generates one per
	// process, so browsers must log in again after a restart.
	ConsoleSecret string   `toml:"console_secret"`
	TTL           duration `toml:"ttl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	Prefix     string `toml:"prefix"`
}

// S3Config configures the market image host.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	PublicBaseURL  string `toml:"public_base_url"`
}

// AuditConfig holds the PostgreSQL connection of the audit log.
type AuditConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	SecureCookie bool     `toml:"secure_cookie"`
	// LoginRateLimit is the number of login attempts per client IP per
	// LoginRateWindow. It needs redis; zero disables it.
	LoginRateLimit  int      `toml:"login_rate_limit"`
	LoginRateWindow duration `toml:"login_rate_window"`
	// DashboardInterval reloads the dashboard and pushes it to websocket
	// clients. Zero disables the push.
	DashboardInterval duration `toml:"dashboard_interval"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// JobsConfig schedules background jobs in server mode. An empty cron
// expression disables the job.
type JobsConfig struct {
	// ReportCron sends the dashboard report while a session is held.
	ReportCron string `toml:"report_cron"`

	// ArchiveCron copies audit entries older than AuditRetention to S3.
	ArchiveCron    string   `toml:"archive_cron"`
	AuditRetention duration `toml:"audit_retention"`
	ArchivePrefix  string   `toml:"archive_prefix"`
	// ArchivePrune deletes archived entries from PostgreSQL.
	ArchivePrune bool `toml:"archive_prune"`
}

// OperatorConfig holds the credentials report mode logs in with. They are
// read from the environment only.
type OperatorConfig struct {
	Email    string
	Password string
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:         "https://backendapi.timedrop.live/api",
			Timeout:         duration{30 * time.Second},
			PageSize:        10,
			AgentsPageLimit: 100,
		},
		Session: SessionConfig{
			Backend:  "file",
			FilePath: "data/session.json",
			TTL:      duration{7 * 24 * time.Hour},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
			Prefix:     "tdadmin:",
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "tdadmin-images",
			ForcePathStyle: true,
		},
		Audit: AuditConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "tdadmin",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  4,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Server: ServerConfig{
			Port:            8080,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			LoginRateLimit:  10,
			LoginRateWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"market.created", "market.resolved", "withdrawal.approved", "withdrawal.rejected", "report"},
		},
		Jobs: JobsConfig{
			AuditRetention: duration{90 * 24 * time.Hour},
			ArchivePrefix:  "archive/audit",
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"report":  true,
	"archive": true,
}

// Normalize lowercases and trims the enumerated settings so that every
// later comparison can be exact. Load calls it; call it again after
// overriding a field by hand.
func (c *Config) Normalize() {
	for _, f := range []*string{&c.Mode, &c.LogLevel, &c.Session.Backend} {
		*f = strings.ToLower(strings.TrimSpace(*f))
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, report, archive)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// API
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api: base_url must be an absolute URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout.Duration <= 0 {
		errs = append(errs, "api: timeout must be > 0")
	}
	if c.API.PageSize < 1 {
		errs = append(errs, "api: page_size must be >= 1")
	}
	if c.API.AgentsPageLimit < 1 {
		errs = append(errs, "api: agents_page_limit must be >= 1")
	}
	if o := c.API.ReferralOrigin; o != "" {
		if u, err := url.Parse(o); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("api: referral_origin must be an absolute URL, got %q", o))
		}
	}

	// Session
	switch c.Session.Backend {
	case "file":
		if c.Session.FilePath == "" {
			errs = append(errs, "session: file_path must not be empty for the file backend")
		}
	case "redis":
		if !c.Redis.Enabled {
			errs = append(errs, "session: the redis backend requires redis.enabled")
		}
	default:
		errs = append(errs, fmt.Sprintf("session: unknown backend %q (valid: file, redis)", c.Session.Backend))
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.PublicBaseURL == "" {
			errs = append(errs, "s3: public_base_url must not be empty")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if strings.TrimSpace(c.Audit.DSN) == "" {
			if c.Audit.Host == "" {
				errs = append(errs, "audit: host must not be empty (or set audit.dsn)")
			}
			if c.Audit.Port <= 0 || c.Audit.Port > 65535 {
				errs = append(errs, fmt.Sprintf("audit: port must be 1-65535, got %d", c.Audit.Port))
			}
			if c.Audit.Database == "" {
				errs = append(errs, "audit: database must not be empty")
			}
		}
		if c.Audit.PoolMaxConns < 1 {
			errs = append(errs, "audit: pool_max_conns must be >= 1")
		}
		if c.Audit.PoolMinConns > c.Audit.PoolMaxConns {
			errs = append(errs, "audit: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Server
	if c.Mode == "server" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.LoginRateLimit > 0 && c.Server.LoginRateWindow.Duration <= 0 {
			errs = append(errs, "server: login_rate_window must be > 0 when login_rate_limit is set")
		}
	}

	// Notify: telegram needs both halves.
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	// Jobs
	for _, job := range [][2]string{{"report_cron", c.Jobs.ReportCron}, {"archive_cron", c.Jobs.ArchiveCron}} {
		if job[1] != "" && len(strings.Fields(job[1])) != 5 {
			errs = append(errs, fmt.Sprintf("jobs: %s must have 5 fields, got %q", job[0], job[1]))
		}
	}
	if c.Jobs.ArchiveCron != "" || c.Mode == "archive" {
		if !c.Audit.Enabled || !c.S3.Enabled {
			errs = append(errs, "jobs: archiving requires audit.enabled and s3.enabled")
		}
		if c.Jobs.AuditRetention.Duration <= 0 {
			errs = append(errs, "jobs: audit_retention must be > 0")
		}
		if strings.Trim(c.Jobs.ArchivePrefix, "/") == "" {
			errs = append(errs, "jobs: archive_prefix must not be empty")
		}
	}

	// Operator
	if c.Mode == "report" && (c.Operator.Email == "" || c.Operator.Password == "") {
		errs = append(errs, "operator: TDADMIN_OPERATOR_EMAIL and TDADMIN_OPERATOR_PASSWORD are required for report mode")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
