// Package scheduler runs the daily recurrence generation job.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nordvik/treasury-go/internal/service"
)

// jobTimeout bounds one full generation run.
const jobTimeout = 10 * time.Minute

// Scheduler drives the nightly regeneration over all companies.
type Scheduler struct {
	cron        *cron.Cron
	generator   *service.Generator
	spec        string
	monthsAhead int
	logger      *zap.Logger
}

// New creates a scheduler with the given cron spec (standard 5-field
// format, e.g. "0 6 * * *" for 06:00 UTC daily).
func New(generator *service.Generator, spec string, monthsAhead int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		generator:   generator,
		spec:        spec,
		monthsAhead: monthsAhead,
		logger:      logger,
	}
}

// Start registers the job and starts the cron loop. Returns an error
// only when the spec cannot be parsed.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, s.run)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunOnce triggers a full generation run immediately, outside the cron
// schedule. Used at startup when catch-up on boot is desired.
func (s *Scheduler) RunOnce() {
	s.run()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	summary, err := s.generator.Regenerate(ctx, "", "cron", s.monthsAhead)
	if err != nil {
		s.logger.Error("scheduled generation run failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled generation run finished",
		zap.Int("processed", summary.RecurrencesProcessed),
		zap.Int("generated", summary.TotalGenerated),
		zap.Int("skipped", summary.TotalSkipped),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("took", time.Since(start)),
	)
}
