package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"newsletter-scrapers/internal/domain/ports"
)

// jobTimeout bounds one scheduled run; a full scrape with content fetches
// takes minutes, not seconds.
const jobTimeout = 30 * time.Minute

// Job is the unit of work the scheduler runs.
type Job interface {
	Run(ctx context.Context) error
}

// App manages the lifecycle of the newsletter scheduler.
type App struct {
	cron     *cron.Cron
	job      Job
	logger   ports.Logger
	schedule string
}

// New constructs an App instance.
func New(job Job, logger ports.Logger, schedule string) *App {
	return &App{
		cron:     cron.New(),
		job:      job,
		logger:   logger,
		schedule: schedule,
	}
}

// Run executes the job once immediately and then according to the cron schedule
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.scheduleJob(ctx); err != nil {
		return err
	}

	a.logger.Info(ctx, "running first pipeline immediately")
	a.runOnce(ctx, "initial")

	a.logger.Info(ctx, "starting scheduler", "cron", a.schedule, "next", a.cron.Entries()[0].Schedule.Next(time.Now()))
	a.cron.Start()

	<-ctx.Done()
	stopCtx := a.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
	a.logger.Info(context.Background(), "scheduler stopped")
	return nil
}

func (a *App) scheduleJob(parent context.Context) error {
	_, err := a.cron.AddFunc(a.schedule, func() {
		a.runOnce(parent, "scheduled")
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", a.schedule, err)
	}
	return nil
}

func (a *App) runOnce(parent context.Context, kind string) {
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, jobTimeout)
	defer cancel()
	if err := a.job.Run(ctx); err != nil {
		a.logger.Error(ctx, kind+" pipeline run failed", "error", err)
	}
}
