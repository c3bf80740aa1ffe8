package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"NewsFeedRanker/internal/ports"
)

// Refresher runs one refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context) Outcome
}

// Scheduler wires the cron-like driver with the pipeline use case and keeps
// cycles from overlapping.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline Refresher
	running  atomic.Bool
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline Refresher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger.With("component", "scheduler")}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, ok := s.RunNow(ctx); !ok {
			s.logger.Info("tick skipped, refresh already running", "trigger", trigger)
		}
	}

	return s.driver.Start(ctx, job)
}

// RunNow runs a cycle unless one is in flight; ok is false when skipped.
func (s *Scheduler) RunNow(ctx context.Context) (Outcome, bool) {
	if s.pipeline == nil {
		return Outcome{}, false
	}
	if !s.running.CompareAndSwap(false, true) {
		return Outcome{}, false
	}
	defer s.running.Store(false)

	return s.pipeline.Refresh(ctx), true
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
