package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// defaultPollInterval is the cycle cadence when none is configured.
const defaultPollInterval = 3 * time.Minute

// CronRunner is the subset of the cron scheduler the poll loop needs.
// *cron.Cron satisfies it; tests inject a fake to drive ticks directly.
type CronRunner interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Start()
	Stop() context.Context
}

// Scheduler runs poll cycles on a fixed interval. Each tick gets its own
// timeout-bounded context so a stuck cycle cannot stack up behind the next
// one indefinitely.
type Scheduler struct {
	runner       CronRunner
	service      *Service
	interval     time.Duration
	cycleTimeout time.Duration

	// OnCycleEnd, when set, observes every finished cycle. Used by the
	// worker binary to feed job-level metrics and the readiness probe.
	OnCycleEnd func(stats *CycleStats, err error)
}

// NewScheduler creates a Scheduler driving the given service through the
// runner. A non-positive interval falls back to the default; a non-positive
// cycleTimeout falls back to the interval.
func NewScheduler(runner CronRunner, service *Service, interval, cycleTimeout time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if cycleTimeout <= 0 {
		cycleTimeout = interval
	}
	return &Scheduler{
		runner:       runner,
		service:      service,
		interval:     interval,
		cycleTimeout: cycleTimeout,
	}
}

// Start registers the poll job and starts the runner.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.runner.AddFunc(spec, s.runJob); err != nil {
		return fmt.Errorf("register poll job: %w", err)
	}
	s.runner.Start()

	slog.Info("poll scheduler started",
		slog.Duration("interval", s.interval),
		slog.Duration("cycle_timeout", s.cycleTimeout))
	return nil
}

// Stop stops the runner. The returned context is done once any running
// job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.runner.Stop()
}

// runJob executes a single poll cycle with timeout and error handling.
func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout)
	defer cancel()

	slog.Info("poll cycle started")
	stats, err := s.service.RunCycle(ctx)
	if err != nil {
		slog.Error("poll cycle failed", slog.Any("error", err))
	}

	if s.OnCycleEnd != nil {
		s.OnCycleEnd(stats, err)
	}
}
