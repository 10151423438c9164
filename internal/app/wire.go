package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/sportspulse/internal/blob/s3"
	"github.com/alanyoungcy/sportspulse/internal/cache"
	"github.com/alanyoungcy/sportspulse/internal/cache/redis"
	"github.com/alanyoungcy/sportspulse/internal/config"
	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/metrics"
	"github.com/alanyoungcy/sportspulse/internal/notify"
	"github.com/alanyoungcy/sportspulse/internal/platform/polymarket"
	"github.com/alanyoungcy/sportspulse/internal/server/handler"
	"github.com/alanyoungcy/sportspulse/internal/store/postgres"
	"github.com/alanyoungcy/sportspulse/internal/store/sqlite"
)

// Dependencies bundles every concrete dependency the application modes need.
// It is constructed by Wire and torn down by the returned cleanup function.
// Optional backends are left nil when disabled.
type Dependencies struct {
	Gamma   *polymarket.GammaClient
	Metrics *metrics.Metrics
	Bus     *notify.Bus

	// Snapshot cache and its backend.
	Snapshot *cache.Snapshot

	// Stores
	PredictionStore domain.PredictionStore
	MetricsStore    domain.MetricsStore

	// Redis-backed coordination.
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Blob storage
	Archiver        domain.Archiver
	TrainingMetrics *s3blob.TrainingMetricsLoader

	Notifier *notify.Notifier

	// HealthChecks probes every connected backend for GET /health.
	HealthChecks map[string]handler.HealthCheck
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
	fail := func(what string, err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, fmt.Errorf("wire: %s: %w", what, err)
	}

	deps := &Dependencies{
		Metrics:      metrics.New(),
		Bus:          notify.NewBus(logger),
		HealthChecks: make(map[string]handler.HealthCheck),
	}

	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost,
		polymarket.WithRateLimit(cfg.Polymarket.RateLimitRPS, cfg.Polymarket.RateBurst),
		polymarket.WithTimeout(cfg.Polymarket.Timeout.Duration),
	)

	// --- SQLite: local snapshot backend and fallback prediction store ---
	var sqliteDB *sqlite.DB
	if cfg.Cache.Backend == "sqlite" || !cfg.Database.Enabled {
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return fail("sqlite", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		deps.HealthChecks["sqlite"] = db.Ping
		sqliteDB = db
	}

	// --- PostgreSQL ---
	if cfg.Database.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			Schema:   cfg.Database.Schema,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			return fail("postgres", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations {
			applied, err := pgClient.RunMigrations(ctx)
			if err != nil {
				return fail("postgres migrations", err)
			}
			if len(applied) > 0 {
				logger.InfoContext(ctx, "postgres migrations applied", slog.Any("files", applied))
			}
		}

		pool := pgClient.Pool()
		deps.PredictionStore = postgres.NewPredictionStore(pool)
		deps.MetricsStore = postgres.NewMetricsStore(pool)
		deps.HealthChecks["postgres"] = pgClient.Ping
	} else {
		deps.PredictionStore = sqlite.NewPredictionStore(sqliteDB)
		deps.MetricsStore = sqlite.NewMetricsStore(sqliteDB)
	}

	// --- Redis ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		c, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			Namespace:  cfg.Redis.Namespace,
		})
		if err != nil {
			return fail("redis", err)
		}
		closers = append(closers, func() { _ = c.Close() })
		redisClient = c

		deps.RateLimiter = redis.NewRateLimiter(c)
		deps.LockManager = redis.NewLockManager(c)
		deps.SignalBus = redis.NewSignalBus(c)
		deps.HealthChecks["redis"] = c.Ping
	}

	// --- Snapshot cache ---
	var kv domain.KVStore
	switch cfg.Cache.Backend {
	case "redis":
		kv = redis.NewKVStore(redisClient, cfg.Cache.Retention.Duration)
	case "sqlite":
		kv = sqlite.NewKVStore(sqliteDB)
	default:
		kv = cache.NewMemoryKV()
	}
	deps.Snapshot = cache.NewSnapshot(kv, logger, cache.WithTTL(cfg.Cache.TTL.Duration))

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail("s3", err)
		}

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.PredictionStore)
		deps.TrainingMetrics = s3blob.NewTrainingMetricsLoader(s3blob.NewReader(s3Client), cfg.S3.TrainingMetricsPath)
		deps.HealthChecks["s3"] = s3Client.Health
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			notify.DefaultTelegramAPI,
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	closers = append(closers, deps.Notifier.Attach(deps.Bus))

	logger.InfoContext(ctx, "dependencies wired",
		slog.String("cache_backend", cfg.Cache.Backend),
		slog.Bool("postgres", cfg.Database.Enabled),
		slog.Bool("redis", cfg.Redis.Enabled),
		slog.Bool("s3", cfg.S3.Enabled),
		slog.Int("notify_senders", len(senders)),
	)
	return deps, cleanup, nil
}
