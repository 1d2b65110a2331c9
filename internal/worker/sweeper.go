package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
	"imaginarium/internal/metrics"
)

// PendingCleaner deletes creations still pending at cutoff.
type PendingCleaner interface {
	DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper periodically removes creations whose pipeline died before
// publishing. Anything younger than maxAge is left alone so in-flight
// renders are not disturbed.
type Sweeper struct {
	cleaner  PendingCleaner
	maxAge   time.Duration
	schedule string
	now      func() time.Time
	cron     *cron.Cron
	log      logrus.FieldLogger
}

func NewSweeper(cleaner PendingCleaner, schedule string, maxAge time.Duration, log logrus.FieldLogger) *Sweeper {
	return &Sweeper{
		cleaner:  cleaner,
		maxAge:   maxAge,
		schedule: schedule,
		now:      time.Now,
		log:      logger.Component(log, "PendingSweeper"),
	}
}

func (s *Sweeper) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.log.WithError(err).Error("sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.WithFields(logrus.Fields{"schedule": s.schedule, "max_age": s.maxAge}).Info("sweeper started")
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.maxAge)
	n, err := s.cleaner.DeletePendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.AddPendingSwept(n)
	if n > 0 {
		s.log.WithFields(logrus.Fields{"removed": n, "cutoff": cutoff}).Info("removed stale pending creations")
	}
	return n, nil
}
