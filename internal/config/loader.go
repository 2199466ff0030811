package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TDADMIN_* environment variable overrides, and
// returns the final Config with its enumerated settings normalized. A
// missing file is not an error: defaults and the
// environment are enough to run. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	cfg.Normalize()

	return &cfg, nil
}

// applyEnvOverrides reads well-known TDADMIN_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── API ──
	setStr(&cfg.API.BaseURL, "TDADMIN_API_BASE_URL")
	setDuration(&cfg.API.Timeout, "TDADMIN_API_TIMEOUT")
	setInt(&cfg.API.PageSize, "TDADMIN_API_PAGE_SIZE")
	setInt(&cfg.API.AgentsPageLimit, "TDADMIN_API_AGENTS_PAGE_LIMIT")
	setStr(&cfg.API.ReferralOrigin, "TDADMIN_API_REFERRAL_ORIGIN")

	// ── Session ──
	setStr(&cfg.Session.Backend, "TDADMIN_SESSION_BACKEND")
	setStr(&cfg.Session.FilePath, "TDADMIN_SESSION_FILE_PATH")
	setStr(&cfg.Session.Passphrase, "TDADMIN_SESSION_PASSPHRASE")
	setStr(&cfg.Session.ConsoleSecret, "TDADMIN_SESSION_CONSOLE_SECRET")
	setDuration(&cfg.Session.TTL, "TDADMIN_SESSION_TTL")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "TDADMIN_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "TDADMIN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TDADMIN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TDADMIN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TDADMIN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TDADMIN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TDADMIN_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.Prefix, "TDADMIN_REDIS_PREFIX")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "TDADMIN_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "TDADMIN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TDADMIN_S3_REGION")
	setStr(&cfg.S3.Bucket, "TDADMIN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TDADMIN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TDADMIN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TDADMIN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TDADMIN_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.PublicBaseURL, "TDADMIN_S3_PUBLIC_BASE_URL")

	// ── Audit ──
	setBool(&cfg.Audit.Enabled, "TDADMIN_AUDIT_ENABLED")
	setStr(&cfg.Audit.DSN, "DATABASE_URL") // platform convention
	setStr(&cfg.Audit.DSN, "TDADMIN_AUDIT_DSN")
	setStr(&cfg.Audit.Host, "TDADMIN_AUDIT_HOST")
	setInt(&cfg.Audit.Port, "TDADMIN_AUDIT_PORT")
	setStr(&cfg.Audit.Database, "TDADMIN_AUDIT_DATABASE")
	setStr(&cfg.Audit.User, "TDADMIN_AUDIT_USER")
	setStr(&cfg.Audit.Password, "TDADMIN_AUDIT_PASSWORD")
	setStr(&cfg.Audit.SSLMode, "TDADMIN_AUDIT_SSL_MODE")
	setInt(&cfg.Audit.PoolMaxConns, "TDADMIN_AUDIT_POOL_MAX_CONNS")
	setInt(&cfg.Audit.PoolMinConns, "TDADMIN_AUDIT_POOL_MIN_CONNS")
	setBool(&cfg.Audit.RunMigrations, "TDADMIN_AUDIT_RUN_MIGRATIONS")

	// ── Server ──
	setInt(&cfg.Server.Port, "PORT") // platform convention
	setInt(&cfg.Server.Port, "TDADMIN_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "TDADMIN_SERVER_CORS_ORIGINS")
	setBool(&cfg.Server.SecureCookie, "TDADMIN_SERVER_SECURE_COOKIE")
	setInt(&cfg.Server.LoginRateLimit, "TDADMIN_SERVER_LOGIN_RATE_LIMIT")
	setDuration(&cfg.Server.LoginRateWindow, "TDADMIN_SERVER_LOGIN_RATE_WINDOW")
	setDuration(&cfg.Server.DashboardInterval, "TDADMIN_SERVER_DASHBOARD_INTERVAL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TDADMIN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TDADMIN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TDADMIN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TDADMIN_NOTIFY_EVENTS")

	// ── Jobs ──
	setStr(&cfg.Jobs.ReportCron, "TDADMIN_JOBS_REPORT_CRON")
	setStr(&cfg.Jobs.ArchiveCron, "TDADMIN_JOBS_ARCHIVE_CRON")
	setDuration(&cfg.Jobs.AuditRetention, "TDADMIN_JOBS_AUDIT_RETENTION")
	setStr(&cfg.Jobs.ArchivePrefix, "TDADMIN_JOBS_ARCHIVE_PREFIX")
	setBool(&cfg.Jobs.ArchivePrune, "TDADMIN_JOBS_ARCHIVE_PRUNE")

	// ── Operator (env only) ──
	setStr(&cfg.Operator.Email, "TDADMIN_OPERATOR_EMAIL")
	setStr(&cfg.Operator.Password, "TDADMIN_OPERATOR_PASSWORD")

	// ── Top-level ──
	setStr(&cfg.Mode, "TDADMIN_MODE")
	setStr(&cfg.LogLevel, "TDADMIN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
