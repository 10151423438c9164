// Package config defines the top-level configuration for the sportspulse
// service and provides validation helpers.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by SPORTSPULSE_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Fetch      FetchConfig      `toml:"fetch"`
	Cache      CacheConfig      `toml:"cache"`
	Database   DatabaseConfig   `toml:"database"`
	SQLite     SQLiteConfig     `toml:"sqlite"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Schedule   ScheduleConfig   `toml:"schedule"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the Gamma API endpoint and client limits.
type PolymarketConfig struct {
	GammaHost    string   `toml:"gamma_host"`
	RateLimitRPS float64  `toml:"rate_limit_rps"`
	RateBurst    int      `toml:"rate_burst"`
	Timeout      duration `toml:"timeout"`
}

// FetchConfig controls the paged event fetch and background refresh.
type FetchConfig struct {
	Pages           int      `toml:"pages"`
	PageSize        int      `toml:"page_size"`
	TagSlug         string   `toml:"tag_slug"`
	RefreshInterval duration `toml:"refresh_interval"`
	// WarmSports lists the sports whose default query the refresher keeps
	// cached. "all" is always warmed.
	WarmSports []string `toml:"warm_sports"`
	WarmLimit  int      `toml:"warm_limit"`
}

// CacheConfig selects the snapshot cache backend.
type CacheConfig struct {
	// Backend is one of "sqlite", "redis" or "memory".
	Backend string   `toml:"backend"`
	TTL     duration `toml:"ttl"`
	// Retention is how long redis keeps a snapshot after its last write.
	Retention duration `toml:"retention"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the prediction
// store. When disabled, predictions live in SQLite.
type DatabaseConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	Schema        string `toml:"schema"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// SQLiteConfig holds the local database path. Empty means a file under the
// OS temp directory.
type SQLiteConfig struct {
	Path string `toml:"path"`
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
	Namespace  string `toml:"namespace"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled             bool   `toml:"enabled"`
	Endpoint            string `toml:"endpoint"`
	Region              string `toml:"region"`
	Bucket              string `toml:"bucket"`
	AccessKey           string `toml:"access_key"`
	SecretKey           string `toml:"secret_key"`
	UseSSL              bool   `toml:"use_ssl"`
	ForcePathStyle      bool   `toml:"force_path_style"`
	TrainingMetricsPath string `toml:"training_metrics_path"`
}

// ScheduleConfig holds the cron specs of the background jobs. Specs take six
// fields, seconds first. An empty spec disables the job.
type ScheduleConfig struct {
	GenerateCron         string `toml:"generate_cron"`
	ScoreCron            string `toml:"score_cron"`
	ArchiveCron          string `toml:"archive_cron"`
	ScoreBatch           int    `toml:"score_batch"`
	ArchiveRetentionDays int    `toml:"archive_retention_days"`
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
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
	MockSeed    uint64   `toml:"mock_seed"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	RelayChannel      string   `toml:"relay_channel"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:    "https://gamma-api.polymarket.com",
			RateLimitRPS: 10,
			RateBurst:    5,
			Timeout:      duration{30 * time.Second},
		},
		Fetch: FetchConfig{
			Pages:           3,
			PageSize:        100,
			TagSlug:         "sports",
			RefreshInterval: duration{time.Minute},
			WarmSports:      []string{"nba", "nfl", "soccer"},
			WarmLimit:       50,
		},
		Cache: CacheConfig{
			Backend:   "sqlite",
			TTL:       duration{60 * time.Second},
			Retention: duration{24 * time.Hour},
		},
		Database: DatabaseConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "sportspulse",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			Namespace:  "sportspulse",
		},
		S3: S3Config{
			Enabled:             false,
			Endpoint:            "http://localhost:9000",
			Region:              "us-east-1",
			Bucket:              "sportspulse-data",
			ForcePathStyle:      true,
			TrainingMetricsPath: "models/training_metrics.json",
		},
		Schedule: ScheduleConfig{
			GenerateCron:         "0 */10 * * * *",
			ScoreCron:            "0 */15 * * * *",
			ArchiveCron:          "0 0 3 1 * *",
			ScoreBatch:           200,
			ArchiveRetentionDays: 90,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
			MockSeed:    42,
		},
		Notify: NotifyConfig{
			Events:       []string{"predictions.scored", "markets.refresh_failed", "error"},
			RelayChannel: "sportspulse:events",
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"ingest": true,
	"score":  true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var schemaNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

var validCacheBackends = map[string]bool{
	"sqlite": true,
	"redis":  true,
	"memory": true,
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, ingest, score, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Polymarket
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.RateLimitRPS <= 0 {
		errs = append(errs, "polymarket: rate_limit_rps must be > 0")
	}
	if c.Polymarket.RateBurst < 1 {
		errs = append(errs, "polymarket: rate_burst must be >= 1")
	}

	// Fetch
	if c.Fetch.Pages < 1 {
		errs = append(errs, "fetch: pages must be >= 1")
	}
	if c.Fetch.PageSize < 1 || c.Fetch.PageSize > 500 {
		errs = append(errs, fmt.Sprintf("fetch: page_size must be 1-500, got %d", c.Fetch.PageSize))
	}
	if c.Fetch.RefreshInterval.Duration < time.Second {
		errs = append(errs, "fetch: refresh_interval must be at least 1s")
	}

	// Cache
	if !validCacheBackends[c.Cache.Backend] {
		errs = append(errs, fmt.Sprintf("cache: unknown backend %q (valid: sqlite, redis, memory)", c.Cache.Backend))
	}
	if c.Cache.Backend == "redis" && !c.Redis.Enabled {
		errs = append(errs, "cache: backend redis requires redis.enabled")
	}
	if c.Cache.TTL.Duration <= 0 {
		errs = append(errs, "cache: ttl must be > 0")
	}

	// Database
	if c.Database.Enabled {
		if strings.TrimSpace(c.Database.DSN) == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database: host must not be empty (or set database.dsn)")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
			}
			if c.Database.Database == "" {
				errs = append(errs, "database: database must not be empty")
			}
		}
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
		}
		if c.Database.Schema != "" && !schemaNameRe.MatchString(c.Database.Schema) {
			errs = append(errs, fmt.Sprintf("database: schema %q must be a lower-case identifier", c.Database.Schema))
		}
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
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Schedule
	for name, spec := range map[string]string{
		"generate_cron": c.Schedule.GenerateCron,
		"score_cron":    c.Schedule.ScoreCron,
		"archive_cron":  c.Schedule.ArchiveCron,
	} {
		if spec == "" {
			continue
		}
		if _, err := cronParser.Parse(spec); err != nil {
			errs = append(errs, fmt.Sprintf("schedule: %s %q: %v", name, spec, err))
		}
	}
	if c.Schedule.ScoreBatch < 0 {
		errs = append(errs, "schedule: score_batch must be >= 0")
	}
	if c.Schedule.ArchiveRetentionDays < 1 {
		errs = append(errs, "schedule: archive_retention_days must be >= 1")
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
		errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
