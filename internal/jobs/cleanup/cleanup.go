package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type banPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Job struct {
	bans    banPurger
	timeout time.Duration
	logger  *zap.Logger
}

func New(bans banPurger, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		bans:    bans,
		timeout: time.Minute,
		logger:  logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.bans == nil {
		return nil
	}

	purged, err := j.bans.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge expired bans: %w", err)
	}
	if purged > 0 {
		j.logger.Info("cleanup expired bans completed", zap.Int64("purged", purged))
	}
	return nil
}

// Start registers the job on spec and runs the scheduler until ctx is done.
func (j *Job) Start(ctx context.Context, spec string) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, j.timeout)
		defer cancel()
		if err := j.Run(runCtx); err != nil {
			j.logger.Warn("cleanup job failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule cleanup %q: %w", spec, err)
	}

	scheduler.Start()
	go func() {
		<-ctx.Done()
		<-scheduler.Stop().Done()
	}()
	return nil
}
