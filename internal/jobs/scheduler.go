// Package jobs runs the periodic maintenance work of the API process.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/yigit/crms/internal/app/services"
)

// AnalyticsRefresher recomputes the analytics tables of every section
type AnalyticsRefresher interface {
	RefreshAll(ctx context.Context) (*services.RefreshSummary, error)
}

// CachePurger deletes expired dashboard cache rows
type CachePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Config holds the schedules of the jobs. An empty schedule disables the job.
type Config struct {
	AnalyticsSchedule  string
	CachePurgeSchedule string
	Timeout            time.Duration
}

// Scheduler wraps a cron runner. Runs of the same job never overlap.
type Scheduler struct {
	cron      *cron.Cron
	analytics AnalyticsRefresher
	purger    CachePurger
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewScheduler registers the configured jobs. purger may be nil.
func NewScheduler(cfg Config, analytics AnalyticsRefresher, purger CachePurger, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger}))),
		analytics: analytics,
		purger:    purger,
		timeout:   cfg.Timeout,
		logger:    logger,
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Minute
	}

	if cfg.AnalyticsSchedule != "" && analytics != nil {
		if _, err := s.cron.AddFunc(cfg.AnalyticsSchedule, s.wrap(s.RefreshAnalytics)); err != nil {
			return nil, fmt.Errorf("invalid analytics schedule %q: %w", cfg.AnalyticsSchedule, err)
		}
	}
	if cfg.CachePurgeSchedule != "" && purger != nil {
		if _, err := s.cron.AddFunc(cfg.CachePurgeSchedule, s.wrap(s.PurgeCache)); err != nil {
			return nil, fmt.Errorf("invalid cache purge schedule %q: %w", cfg.CachePurgeSchedule, err)
		}
	}
	return s, nil
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Int("jobs", s.Jobs()).Msg("Scheduler started")
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info().Msg("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

func (s *Scheduler) wrap(job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_ = job(ctx)
	}
}

// RefreshAnalytics runs one analytics refresh
func (s *Scheduler) RefreshAnalytics(ctx context.Context) error {
	start := time.Now()
	sum, err := s.analytics.RefreshAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Scheduled analytics refresh finished with errors")
		return err
	}
	s.logger.Info().
		Int("sections", sum.Sections).
		Int("atRisk", sum.AtRisk).
		Dur("took", time.Since(start)).
		Msg("Scheduled analytics refresh done")
	return nil
}

// PurgeCache removes expired dashboard cache rows
func (s *Scheduler) PurgeCache(ctx context.Context) error {
	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Dashboard cache purge failed")
		return err
	}
	if n > 0 {
		s.logger.Debug().Int64("rows", n).Msg("Expired dashboard cache rows purged")
	}
	return nil
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
