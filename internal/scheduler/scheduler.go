// Package scheduler triggers due-show sweeps on a cron cadence.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hoofline/showring/pkg/logger"
	"github.com/hoofline/showring/pkg/metrics"
)

// defaultSpec sweeps for due shows every ten minutes.
const defaultSpec = "*/10 * * * *"

// Runner is the slice of the service the scheduler drives.
type Runner interface {
	RunDueShows(ctx context.Context, now time.Time) (int, error)
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithSpec sets the cron expression for the sweep.
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// Scheduler runs the due-show sweep on a fixed cadence. A failed sweep is
// logged and retried on the next tick; it never stops the loop.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string
	ctx    context.Context
	log    logger.Logger
}

// New creates a scheduler driving runner. ctx bounds every sweep.
func New(ctx context.Context, runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:   cron.New(),
		runner: runner,
		spec:   defaultSpec,
		ctx:    ctx,
		log:    logger.Named("scheduler"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return fmt.Errorf("register due-show sweep: %w", err)
	}
	s.cron.Start()
	s.log.Info(s.ctx, "scheduler started", logger.String("spec", s.spec))
	return nil
}

// Stop stops the cron loop and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info(context.Background(), "scheduler stopped")
}

// RunNow executes one sweep immediately, outside the cron cadence.
func (s *Scheduler) RunNow() {
	s.sweep()
}

func (s *Scheduler) sweep() {
	metrics.RecordScheduledRun()

	ran, err := s.runner.RunDueShows(s.ctx, time.Now())
	if err != nil {
		metrics.RecordScheduledRunFailure()
		s.log.Error(s.ctx, "due-show sweep failed", logger.Error(err))
		return
	}
	if ran > 0 {
		s.log.Info(s.ctx, "due-show sweep completed", logger.Int("showsRun", ran))
	}
}
