// Package scheduler runs the configured clean up tasks on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"medialib/internal/config"
	models "medialib/internal/domain/models/media"
)

// DefaultSchedule is used when clean_ups.schedule is empty.
const DefaultSchedule = "@weekly"

// ErrDisabled is returned by Start when clean ups are not enabled.
var ErrDisabled = errors.New("scheduled clean ups are disabled")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Cleaner runs "name[:days]" clean up tasks.
type Cleaner interface {
	Clean(ctx context.Context, tasks []string, opts models.SweepOptions) ([]models.SweepReport, error)
}

// Scheduler owns one cron runner with a single clean up job.
type Scheduler struct {
	mu      sync.Mutex
	runner  *cron.Cron
	cleaner Cleaner
	cfg     config.CleanUpsConfig
	logger  *slog.Logger
	metrics *metrics
}

type metrics struct {
	runs    *prometheus.CounterVec
	removed *prometheus.CounterVec
}

// New creates a stopped scheduler. A nil registerer disables metrics.
func New(cleaner Cleaner, cfg config.CleanUpsConfig, reg prometheus.Registerer, logger *slog.Logger) *Scheduler {
	s := &Scheduler{cleaner: cleaner, cfg: cfg, logger: logger}
	if reg != nil {
		s.metrics = &metrics{
			runs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "medialib",
				Subsystem: "cleanup",
				Name:      "runs_total",
				Help:      "Scheduled clean up runs by result.",
			}, []string{"result"}),
			removed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "medialib",
				Subsystem: "cleanup",
				Name:      "removed_total",
				Help:      "Records removed by scheduled clean ups.",
			}, []string{"kind"}),
		}
		reg.MustRegister(s.metrics.runs, s.metrics.removed)
	}
	return s
}

// Schedule returns the effective cron expression.
func (s *Scheduler) Schedule() string {
	schedule := strings.TrimSpace(s.cfg.Schedule)
	if schedule == "" {
		return DefaultSchedule
	}
	return schedule
}

// Start registers the clean up job and starts the runner. Calling Start on a
// running scheduler restarts it.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		return ErrDisabled
	}

	schedule := s.Schedule()
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid clean up schedule %q: %w", schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runner != nil {
		<-s.runner.Stop().Done()
	}

	log := cronLogger{s.logger}
	s.runner = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)
	if _, err := s.runner.AddFunc(schedule, func() { s.run(context.Background()) }); err != nil {
		return fmt.Errorf("register clean up job: %w", err)
	}
	s.runner.Start()

	s.logger.Info("clean up scheduler started", "schedule", schedule, "tasks", s.cfg.Clean)
	return nil
}

// Stop stops the runner and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	runner := s.runner
	s.runner = nil
	s.mu.Unlock()

	if runner == nil {
		return nil
	}
	select {
	case <-runner.Stop().Done():
		s.logger.Info("clean up scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports when the job runs next; zero when the scheduler is stopped.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return time.Time{}
	}
	entries := s.runner.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce runs the configured tasks immediately.
func (s *Scheduler) RunOnce(ctx context.Context) ([]models.SweepReport, error) {
	return s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) ([]models.SweepReport, error) {
	started := time.Now()
	s.logger.Info("running scheduled clean up", "tasks", s.cfg.Clean)

	reports, err := s.cleaner.Clean(ctx, s.cfg.Clean, models.SweepOptions{Force: true})
	for _, report := range reports {
		if s.metrics != nil {
			s.metrics.removed.WithLabelValues(string(report.Kind)).Add(float64(report.Removed))
		}
		s.logger.Info("clean up task finished",
			"kind", report.Kind,
			"candidates", len(report.Candidates),
			"removed", report.Removed,
		)
	}
	if err != nil {
		s.observe("error")
		s.logger.Error("scheduled clean up failed", "error", err, "duration", time.Since(started))
		return reports, err
	}

	s.observe("ok")
	s.logger.Info("scheduled clean up completed", "duration", time.Since(started))
	return reports, nil
}

func (s *Scheduler) observe(result string) {
	if s.metrics != nil {
		s.metrics.runs.WithLabelValues(result).Inc()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
