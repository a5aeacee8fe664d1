package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sitemanager/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TriggerConfig holds configuration for the monthly trigger
type TriggerConfig struct {
	// CheckInterval is how often to check whether a job is due
	CheckInterval time.Duration
	// Location is the business timezone the schedule is expressed in
	Location *time.Location
	// Clock is overridable for tests
	Clock func() time.Time
}

// DefaultTriggerConfig returns default trigger configuration
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		CheckInterval: time.Minute,
		Location:      time.UTC,
		Clock:         time.Now,
	}
}

// MonthlyTrigger fires each registered job once per month. Jobs run one at a
// time; a job that overlaps with another process is excluded by its own run lock.
type MonthlyTrigger struct {
	config TriggerConfig
	jobs   []MonthlyJob
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[string]string // job name -> YYYY-MM it last fired for
}

// NewMonthlyTrigger validates the jobs and creates a trigger
func NewMonthlyTrigger(config TriggerConfig, jobs []MonthlyJob, logger *zap.Logger) (*MonthlyTrigger, error) {
	def := DefaultTriggerConfig()
	if config.CheckInterval <= 0 {
		config.CheckInterval = def.CheckInterval
	}
	if config.Location == nil {
		config.Location = def.Location
	}
	if config.Clock == nil {
		config.Clock = def.Clock
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		if err := j.validate(); err != nil {
			return nil, err
		}
		if seen[j.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, j.Name)
		}
		seen[j.Name] = true
	}

	return &MonthlyTrigger{
		config:  config,
		jobs:    jobs,
		logger:  logger.Named("scheduler"),
		lastRun: make(map[string]string, len(jobs)),
	}, nil
}

// Start starts the trigger loop in the background
func (c *MonthlyTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	fields := []zap.Field{
		zap.Duration("check_interval", c.config.CheckInterval),
		zap.String("location", c.config.Location.String()),
	}
	for _, j := range c.jobs {
		fields = append(fields, zap.String(j.Name, fmt.Sprintf("day %d %02d:%02d", j.Day, j.Hour, j.Minute)))
	}
	c.logger.Info("Monthly trigger started", fields...)

	return nil
}

// Stop stops the trigger and waits for a running job to return
func (c *MonthlyTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Monthly trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run starts the trigger and blocks until ctx is cancelled.
func (c *MonthlyTrigger) Run(ctx context.Context) error {
	if err := c.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return c.Stop(stopCtx)
}

func (c *MonthlyTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	c.checkAndTrigger(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs every job that is due and has not fired this month
func (c *MonthlyTrigger) checkAndTrigger(ctx context.Context) {
	now := c.config.Clock().In(c.config.Location)
	month := monthKey(now)

	for _, job := range c.jobs {
		if ctx.Err() != nil {
			return
		}
		if !job.dueAt(now) {
			continue
		}

		c.mu.Lock()
		already := c.lastRun[job.Name] == month
		if !already {
			c.lastRun[job.Name] = month
		}
		c.mu.Unlock()
		if already {
			continue
		}

		c.runJob(ctx, job, now)
	}
}

func (c *MonthlyTrigger) runJob(ctx context.Context, job MonthlyJob, now time.Time) {
	log := c.logger.With(zap.String("job", job.Name), zap.String("month", monthKey(now)))
	log.Info("Triggering scheduled job")

	start := time.Now()
	err := job.Run(ctx, now)
	switch {
	case err == nil:
		log.Info("Scheduled job completed", zap.Duration("duration", time.Since(start)))
	case errors.Is(err, shared.ErrRunInProgress):
		log.Info("Scheduled job skipped, another instance holds the run lock")
	default:
		log.Error("Scheduled job failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
	}
}

// LastRun returns the month a job last fired for, or "".
func (c *MonthlyTrigger) LastRun(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun[name]
}
