package usecase

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	applogger "MacroPull/pkg/logger"
)

// Refresher is the job the scheduler runs.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context) error

func (f RefreshFunc) Refresh(ctx context.Context) error { return f(ctx) }

// RefreshScheduler runs periodic reloads on a cron schedule.
type RefreshScheduler struct {
	job     Refresher
	cron    *cron.Cron
	timeout time.Duration
	l       *applogger.Logger
}

func NewRefreshScheduler(job Refresher, timeout time.Duration, l *applogger.Logger) *RefreshScheduler {
	if l == nil {
		l = applogger.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &RefreshScheduler{
		job:     job,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		l:       l,
	}
}

// Start registers the schedule (standard five-field cron) and begins running it.
func (s *RefreshScheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = "0 */6 * * *"
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return err
	}
	s.cron.Start()
	s.l.Info("refresh scheduler started", applogger.String("schedule", schedule))
	return nil
}

// Stop stops the scheduler and waits for a running job until ctx is done.
func (s *RefreshScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.l.Info("refresh scheduler stopped")
}

// RunNow triggers an immediate reload in the background.
func (s *RefreshScheduler) RunNow() {
	go s.run()
}

func (s *RefreshScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.job.Refresh(ctx); err != nil {
		s.l.Error("scheduled refresh failed", applogger.Error(err))
		return
	}
	s.l.Debug("scheduled refresh completed", applogger.Duration("duration_ms", time.Since(start)))
}
