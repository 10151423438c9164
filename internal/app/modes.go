package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/notify"
	"github.com/alanyoungcy/sportspulse/internal/pipeline"
	"github.com/alanyoungcy/sportspulse/internal/predict"
	"github.com/alanyoungcy/sportspulse/internal/server"
	"github.com/alanyoungcy/sportspulse/internal/server/handler"
	"github.com/alanyoungcy/sportspulse/internal/server/ws"
	"github.com/alanyoungcy/sportspulse/internal/service"
)

const shutdownTimeout = 5 * time.Second

// components are the long-running pieces a mode may start.
type components struct {
	fetcher   *pipeline.Fetcher
	refresher *pipeline.Refresher
	scheduler *pipeline.Scheduler
}

// ServerMode serves the HTTP API and websocket push while keeping the
// snapshot cache warm.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	c := a.newComponents(deps)

	a.startRefresher(ctx, g, c)
	a.startRelay(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps, c)

	return g.Wait()
}

// IngestMode keeps the snapshot cache warm and generates and archives
// predictions on schedule. No HTTP server is started.
func (a *App) IngestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting ingest mode")

	g, ctx := errgroup.WithContext(ctx)
	c := a.newComponents(deps)

	if err := a.addIngestJobs(deps, c); err != nil {
		return err
	}
	a.startRefresher(ctx, g, c)
	a.startRelay(ctx, g, deps)
	g.Go(func() error { return c.scheduler.Run(ctx) })

	return g.Wait()
}

// ScoreMode scores pending predictions once at startup and then on schedule.
func (a *App) ScoreMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting score mode")

	g, ctx := errgroup.WithContext(ctx)
	c := a.newComponents(deps)

	if err := a.addScoreJob(deps, c); err != nil {
		return err
	}
	a.startRelay(ctx, g, deps)
	g.Go(func() error {
		if err := c.scheduler.RunNow(ctx, pipeline.JobScore); err != nil {
			a.logger.WarnContext(ctx, "initial score run failed", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error { return c.scheduler.Run(ctx) })

	return g.Wait()
}

// FullMode runs everything: API, refresher and all scheduled jobs.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	c := a.newComponents(deps)

	if err := a.addIngestJobs(deps, c); err != nil {
		return err
	}
	if err := a.addScoreJob(deps, c); err != nil {
		return err
	}

	a.startRefresher(ctx, g, c)
	a.startRelay(ctx, g, deps)
	g.Go(func() error { return c.scheduler.Run(ctx) })
	a.startHTTPServer(ctx, g, deps, c)

	return g.Wait()
}

func (a *App) newComponents(deps *Dependencies) *components {
	fetcher := pipeline.NewFetcher(deps.Gamma, deps.Snapshot, pipeline.FetcherConfig{
		Pages:    a.cfg.Fetch.Pages,
		PageSize: a.cfg.Fetch.PageSize,
		TagSlug:  a.cfg.Fetch.TagSlug,
	}, deps.Metrics, a.logger)

	return &components{
		fetcher: fetcher,
		refresher: pipeline.NewRefresher(fetcher, a.warmQueries(), a.cfg.Fetch.RefreshInterval.Duration,
			deps.Bus, deps.Metrics, a.logger),
		scheduler: pipeline.NewScheduler(deps.LockManager, deps.Metrics, a.logger),
	}
}

// warmQueries lists the queries the refresher keeps cached: the default
// listing for every sport plus each configured sport.
func (a *App) warmQueries() []domain.MarketQuery {
	limit := a.cfg.Fetch.WarmLimit
	queries := []domain.MarketQuery{{Sport: domain.SportAll, Limit: limit}}
	seen := map[domain.SportCategory]bool{domain.SportAll: true}
	for _, s := range a.cfg.Fetch.WarmSports {
		sport := domain.ParseSport(s)
		if seen[sport] {
			continue
		}
		seen[sport] = true
		queries = append(queries, domain.MarketQuery{Sport: sport, Limit: limit})
	}
	return queries
}

func (a *App) addIngestJobs(deps *Dependencies, c *components) error {
	jobLogger := a.logger.With(slog.String("component", "jobs"))

	gen := pipeline.GenerateJob(a.cfg.Schedule.GenerateCron, c.fetcher, deps.PredictionStore,
		predict.NewGenerator(), deps.Bus, jobLogger)
	if err := c.scheduler.Add(gen); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	if deps.Archiver == nil {
		a.logger.Info("archive job disabled (s3 not enabled)")
		return nil
	}
	archive := pipeline.ArchiveJob(a.cfg.Schedule.ArchiveCron, deps.Archiver,
		a.cfg.Schedule.ArchiveRetentionDays, jobLogger)
	if err := c.scheduler.Add(archive); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

func (a *App) addScoreJob(deps *Dependencies, c *components) error {
	scorer := predict.NewScorer(deps.PredictionStore, deps.MetricsStore,
		service.NewGammaResolver(deps.Gamma), a.logger)
	job := pipeline.ScoreJob(a.cfg.Schedule.ScoreCron, a.cfg.Schedule.ScoreBatch, scorer, deps.Bus,
		a.logger.With(slog.String("component", "jobs")))
	if err := c.scheduler.Add(job); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

func (a *App) startRefresher(ctx context.Context, g *errgroup.Group, c *components) {
	g.Go(func() error { return c.refresher.Run(ctx) })
}

// startRelay mirrors bus events across replicas when redis is available.
func (a *App) startRelay(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.SignalBus == nil {
		return
	}
	relay := notify.NewRelay(deps.Bus, deps.SignalBus, a.cfg.Notify.RelayChannel, a.logger)
	g.Go(func() error {
		if err := relay.Run(ctx); err != nil {
			// Not fatal: events stay local to this replica.
			a.logger.WarnContext(ctx, "event relay stopped", slog.String("error", err.Error()))
		}
		return nil
	})
}

func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, c *components) {
	hub := ws.NewHub(deps.Bus, deps.Metrics, a.logger)
	g.Go(func() error { return hub.Run(ctx) })

	markets := service.NewMarketService(c.fetcher, a.logger)
	predictions := service.NewPredictionService(deps.PredictionStore, c.fetcher, a.cfg.Server.MockSeed, a.logger)

	var training service.TrainingSource
	if deps.TrainingMetrics != nil {
		training = deps.TrainingMetrics
	}
	accuracy := service.NewAccuracyService(deps.PredictionStore, deps.MetricsStore, training, a.logger)

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, server.Handlers{
		Health:      handler.NewHealthHandler(deps.HealthChecks, a.logger),
		Status:      handler.NewStatusHandler(a.cfg.Mode, Version, c.refresher, c.scheduler, hub),
		Markets:     handler.NewMarketHandler(markets, a.logger),
		Predictions: handler.NewPredictionHandler(predictions, a.logger),
		Accuracy:    handler.NewAccuracyHandler(accuracy, a.logger),
		Refresh:     handler.NewRefreshHandler(c.refresher, a.logger),
	}, hub, deps.RateLimiter, deps.Metrics, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
