// Package pipeline runs the console's background jobs on cron schedules:
// the periodic dashboard report and the audit log archiver.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs each registered job on its own 5-field cron schedule, in
// UTC, until the context passed to Run is cancelled. A failing run is
// logged and the job waits for its next slot. A run still in progress when
// the next slot arrives causes that slot to be skipped.
type Scheduler struct {
	cron   gocron.Scheduler
	logger *slog.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewScheduler creates an empty Scheduler.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	cron, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("pipeline: new scheduler: %w", err)
	}
	return &Scheduler{
		cron:   cron,
		logger: logger.With(slog.String("component", "scheduler")),
		ctx:    context.Background(),
	}, nil
}

// Add registers a job. expr is a 5-field cron expression.
func (s *Scheduler) Add(name, expr string, run func(ctx context.Context) error) error {
	logger := s.logger.With(slog.String("job", name))
	task := func() {
		start := time.Now()
		if err := run(s.runContext()); err != nil {
			logger.Error("job run failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("job run complete", slog.Duration("duration", time.Since(start)))
	}

	_, err := s.cron.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("pipeline: job %s: %w", name, err)
	}
	logger.Info("job scheduled", slog.String("cron", expr))
	return nil
}

// Len returns the number of registered jobs.
func (s *Scheduler) Len() int { return len(s.cron.Jobs()) }

// Run starts the jobs and blocks until ctx is cancelled, then waits for
// running jobs to return. It returns nil on a clean shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	for _, j := range s.cron.Jobs() {
		if next, err := j.NextRun(); err == nil {
			s.logger.Info("next run", slog.String("job", j.Name()), slog.Time("at", next))
		}
	}

	<-ctx.Done()
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("pipeline: scheduler shutdown: %w", err)
	}
	return nil
}

func (s *Scheduler) runContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}
