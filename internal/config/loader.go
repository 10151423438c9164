package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SPORTSPULSE_* environment variable overrides, and
// returns the final Config. A missing file is not an error: the service runs
// on defaults and environment alone. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SPORTSPULSE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "SPORTSPULSE_POLYMARKET_GAMMA_HOST")
	setFloat64(&cfg.Polymarket.RateLimitRPS, "SPORTSPULSE_POLYMARKET_RATE_LIMIT_RPS")
	setInt(&cfg.Polymarket.RateBurst, "SPORTSPULSE_POLYMARKET_RATE_BURST")
	setDuration(&cfg.Polymarket.Timeout, "SPORTSPULSE_POLYMARKET_TIMEOUT")

	// ── Fetch ──
	setInt(&cfg.Fetch.Pages, "SPORTSPULSE_FETCH_PAGES")
	setInt(&cfg.Fetch.PageSize, "SPORTSPULSE_FETCH_PAGE_SIZE")
	setStr(&cfg.Fetch.TagSlug, "SPORTSPULSE_FETCH_TAG_SLUG")
	setDuration(&cfg.Fetch.RefreshInterval, "SPORTSPULSE_FETCH_REFRESH_INTERVAL")
	setStringSlice(&cfg.Fetch.WarmSports, "SPORTSPULSE_FETCH_WARM_SPORTS")

	// ── Cache ──
	setStr(&cfg.Cache.Backend, "SPORTSPULSE_CACHE_BACKEND")
	setDuration(&cfg.Cache.TTL, "SPORTSPULSE_CACHE_TTL")

	// ── Database ──
	setBool(&cfg.Database.Enabled, "SPORTSPULSE_DATABASE_ENABLED")
	setStr(&cfg.Database.DSN, "SPORTSPULSE_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "SPORTSPULSE_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "SPORTSPULSE_DATABASE_HOST")
	setInt(&cfg.Database.Port, "SPORTSPULSE_DATABASE_PORT")
	setStr(&cfg.Database.Database, "SPORTSPULSE_DATABASE_NAME")
	setStr(&cfg.Database.User, "SPORTSPULSE_DATABASE_USER")
	setStr(&cfg.Database.Password, "SPORTSPULSE_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "SPORTSPULSE_DATABASE_SSL_MODE")
	setStr(&cfg.Database.Schema, "SPORTSPULSE_DATABASE_SCHEMA")
	setInt(&cfg.Database.PoolMaxConns, "SPORTSPULSE_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "SPORTSPULSE_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "SPORTSPULSE_DATABASE_RUN_MIGRATIONS")

	// ── SQLite ──
	setStr(&cfg.SQLite.Path, "SPORTSPULSE_SQLITE_PATH")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SPORTSPULSE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SPORTSPULSE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SPORTSPULSE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SPORTSPULSE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SPORTSPULSE_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "SPORTSPULSE_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.Namespace, "SPORTSPULSE_REDIS_NAMESPACE")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SPORTSPULSE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SPORTSPULSE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SPORTSPULSE_S3_REGION")
	setStr(&cfg.S3.Bucket, "SPORTSPULSE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SPORTSPULSE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SPORTSPULSE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SPORTSPULSE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SPORTSPULSE_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.TrainingMetricsPath, "SPORTSPULSE_S3_TRAINING_METRICS_PATH")

	// ── Schedule ──
	setStr(&cfg.Schedule.GenerateCron, "SPORTSPULSE_SCHEDULE_GENERATE_CRON")
	setStr(&cfg.Schedule.ScoreCron, "SPORTSPULSE_SCHEDULE_SCORE_CRON")
	setStr(&cfg.Schedule.ArchiveCron, "SPORTSPULSE_SCHEDULE_ARCHIVE_CRON")
	setInt(&cfg.Schedule.ScoreBatch, "SPORTSPULSE_SCHEDULE_SCORE_BATCH")
	setInt(&cfg.Schedule.ArchiveRetentionDays, "SPORTSPULSE_SCHEDULE_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setInt(&cfg.Server.Port, "SPORTSPULSE_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SPORTSPULSE_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SPORTSPULSE_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "SPORTSPULSE_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "SPORTSPULSE_SERVER_RATE_WINDOW")
	setUint64(&cfg.Server.MockSeed, "SPORTSPULSE_SERVER_MOCK_SEED")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SPORTSPULSE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SPORTSPULSE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SPORTSPULSE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SPORTSPULSE_NOTIFY_EVENTS")
	setStr(&cfg.Notify.RelayChannel, "SPORTSPULSE_NOTIFY_RELAY_CHANNEL")

	// ── Top-level ──
	setStr(&cfg.Mode, "SPORTSPULSE_MODE")
	setStr(&cfg.LogLevel, "SPORTSPULSE_LOG_LEVEL")
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

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
