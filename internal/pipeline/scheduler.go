package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/sportspulse/internal/domain"
	"github.com/alanyoungcy/sportspulse/internal/metrics"
)

const defaultJobLockTTL = 10 * time.Minute

// Job is a named unit of scheduled work. Spec uses the six-field cron
// format with seconds, or a descriptor such as "@every 10m".
type Job struct {
	Name string
	Spec string
	// Exclusive jobs hold a distributed lock while running so only one
	// replica executes them.
	Exclusive bool
	Timeout   time.Duration
	Run       func(ctx context.Context) error
}

// Scheduler runs Jobs on their cron schedules. A job still running when its
// next activation fires is skipped, and a panicking job is recovered.
type Scheduler struct {
	cron    *cron.Cron
	locks   domain.LockManager
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	jobs    map[string]Job
	baseCtx context.Context
}

// NewScheduler creates a Scheduler. locks and m may be nil; without a lock
// manager exclusive jobs run unguarded.
func NewScheduler(locks domain.LockManager, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	logger = logger.With(slog.String("component", "scheduler"))
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		locks:   locks,
		metrics: m,
		logger:  logger,
		jobs:    make(map[string]Job),
		baseCtx: context.Background(),
	}
}

// Add registers job. An empty Spec registers the job for RunNow only.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("pipeline: job needs a name and a run func")
	}
	if job.Spec != "" {
		_, err := s.cron.AddFunc(job.Spec, func() {
			_ = s.execute(s.context(), job)
		})
		if err != nil {
			return fmt.Errorf("pipeline: schedule %s %q: %w", job.Name, job.Spec, err)
		}
	}

	s.mu.Lock()
	s.jobs[job.Name] = job
	s.mu.Unlock()
	return nil
}

// Jobs returns the registered job names in order.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run starts the cron loop and blocks until ctx is cancelled. It returns
// after running jobs have finished.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "scheduler started", slog.Any("jobs", s.Jobs()))
	s.cron.Start()
	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// RunNow executes the named job synchronously, honouring its lock and
// timeout.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("pipeline: job %q: %w", name, domain.ErrNotFound)
	}
	return s.execute(ctx, job)
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}

	log := s.logger.With(slog.String("job", job.Name))

	if job.Exclusive && s.locks != nil {
		ttl := job.Timeout
		if ttl <= 0 {
			ttl = defaultJobLockTTL
		}
		unlock, err := s.locks.Acquire(ctx, "job:"+job.Name, ttl)
		if errors.Is(err, domain.ErrLockHeld) {
			log.DebugContext(ctx, "job running elsewhere, skipped")
			return nil
		}
		if err != nil {
			s.metrics.ObserveJob(job.Name, false)
			log.WarnContext(ctx, "job lock failed", slog.String("error", err.Error()))
			return fmt.Errorf("pipeline: lock %s: %w", job.Name, err)
		}
		defer unlock()
	}

	started := time.Now()
	err := job.Run(ctx)
	s.metrics.ObserveJob(job.Name, err == nil)
	if err != nil {
		log.ErrorContext(ctx, "job failed",
			slog.Duration("elapsed", time.Since(started)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("pipeline: job %s: %w", job.Name, err)
	}
	log.InfoContext(ctx, "job complete", slog.Duration("elapsed", time.Since(started)))
	return nil
}

// cronLogger adapts slog to cron.Logger. Routine scheduling chatter goes to
// debug.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", fmt.Sprint(err))...)
}
