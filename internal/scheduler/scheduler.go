// Package scheduler runs periodic maintenance jobs on gocron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/oggyb/campus-match/internal/metrics"
)

// slowThreshold is the run time above which a job run is logged as slow.
const slowThreshold = 5 * time.Second

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler wraps a gocron scheduler running in UTC.
type Scheduler struct {
	scheduler gocron.Scheduler
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// New creates a stopped scheduler. m may be nil.
func New(log *slog.Logger, m *metrics.Metrics) (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(&gocronLogAdapter{log: log}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{scheduler: s, metrics: m, log: log}, nil
}

// AddJob schedules job on a five-field cron expression. Runs of one job never overlap.
func (s *Scheduler) AddJob(name, cronExpr string, job Job) error {
	if name == "" {
		return errors.New("empty job name")
	}
	if cronExpr == "" {
		return errors.New("empty cron expression")
	}
	if job == nil {
		return errors.New("nil job function")
	}

	scheduled, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func(ctx context.Context) { s.run(ctx, name, job) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	attrs := []any{"job_name", name, "cron", cronExpr}
	if next, err := scheduled.NextRun(); err == nil {
		attrs = append(attrs, "next_run", next.Format(time.RFC3339))
	}
	s.log.Info("job scheduled", attrs...)
	return nil
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(name string) error {
	for _, j := range s.scheduler.Jobs() {
		if j.Name() == name {
			return j.RunNow()
		}
	}
	return fmt.Errorf("job %s not registered", name)
}

func (s *Scheduler) run(ctx context.Context, name string, job Job) {
	start := time.Now()
	err := job(ctx)
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.ObserveJob(name, err)
	}
	switch {
	case err != nil:
		s.log.Error("scheduled job failed", "job_name", name, "err", err)
	case elapsed > slowThreshold:
		s.log.Warn("slow scheduled job execution", "job_name", name, "duration_ms", elapsed.Milliseconds())
	}
}

// Start begins executing scheduled jobs.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.log.Debug("scheduler started", "jobs", len(s.scheduler.Jobs()))
}

// Run starts the scheduler and blocks until ctx is done, then waits for
// running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.Start()
	<-ctx.Done()
	return s.Stop()
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	return nil
}

type gocronLogAdapter struct {
	log *slog.Logger
}

func (l *gocronLogAdapter) Debug(msg string, args ...any) { l.log.Debug(msg, toSlogArgs(args)...) }
func (l *gocronLogAdapter) Info(msg string, args ...any)  { l.log.Info(msg, toSlogArgs(args)...) }
func (l *gocronLogAdapter) Warn(msg string, args ...any)  { l.log.Warn(msg, toSlogArgs(args)...) }
func (l *gocronLogAdapter) Error(msg string, args ...any) { l.log.Error(msg, toSlogArgs(args)...) }

func toSlogArgs(args []any) []any {
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out = append(out, "value", args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", args[i])
		}
		out = append(out, key, args[i+1])
	}
	return out
}
