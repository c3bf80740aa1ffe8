package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
	"NewsFeedRanker/pkg/logger"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CronScheduler runs the job on a five-field cron expression.
type CronScheduler struct {
	spec       string
	location   *time.Location
	runOnStart bool
	logger     *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler configured via cron expression string.
func NewCronScheduler(spec string, location *time.Location, runOnStart bool, log *slog.Logger) *CronScheduler {
	if location == nil {
		location = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &CronScheduler{
		spec:       spec,
		location:   location,
		runOnStart: runOnStart,
		logger:     log.With("component", "cron"),
	}
}

// Validate reports whether the expression parses.
func Validate(spec string) error {
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("%w: cron expression %q: %w", domain.ErrConfiguration, spec, err)
	}
	return nil
}

// Start registers the job and begins ticking. Ticks that arrive while the
// previous job still runs are skipped. ctx cancellation stops the scheduler.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	if err := Validate(c.spec); err != nil {
		return err
	}

	cronLog := logger.NewCron(c.logger)
	runner := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(c.location),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := runner.AddFunc(c.spec, func() { job(time.Now().In(c.location)) }); err != nil {
		return fmt.Errorf("%w: add cron job: %w", domain.ErrConfiguration, err)
	}

	runner.Start()
	c.cron = runner
	c.logger.Info("scheduler started", "spec", c.spec, "timezone", c.location.String())

	if c.runOnStart {
		go job(time.Now().In(c.location))
	}

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()

	return nil
}

// Stop halts scheduling and waits for a running job or ctx, whichever ends first.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner := c.cron
	c.cron = nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	select {
	case <-runner.Stop().Done():
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
