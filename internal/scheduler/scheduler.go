package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockreport/internal/config"
)

const purgeTimeout = 2 * time.Minute

// OutputPurger removes stored report outputs.
type OutputPurger interface {
	DeleteOutputsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	purger    OutputPurger
	schedule  string
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, purger OutputPurger, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		purger:    purger,
		schedule:  cfg.RetentionCron,
		retention: cfg.Retention,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start registers the retention job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("retention_cron", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.purgeExpiredOutputs); err != nil {
		return fmt.Errorf("schedule report retention: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) purgeExpiredOutputs() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	deleted, err := s.purger.DeleteOutputsBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to purge report outputs", zap.Time("cutoff", cutoff), zap.Error(err))
		return
	}

	s.logger.Info("report outputs purged", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
}
