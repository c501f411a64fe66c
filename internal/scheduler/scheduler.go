// Package scheduler drives evaluation cycles on a cron schedule. The engine
// itself defines no timers; the per-cycle deadline is enforced here.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Cycle is one scheduled evaluation run.
type Cycle func(ctx context.Context) error

// Scheduler wraps cron with a cycle timeout.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler. Specs use the six-field form with seconds.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// AddCycle registers the cycle under the given cron spec. Each run gets a
// fresh context bounded by timeout, so a stalled upstream fetch cannot bleed
// into the next cycle.
func (s *Scheduler) AddCycle(spec string, timeout time.Duration, run Cycle) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			s.log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Cycle failed")
			return
		}
		s.log.Debug().Dur("elapsed", time.Since(start)).Msg("Cycle completed")
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("spec", spec).Dur("timeout", timeout).Msg("Cycle registered")
	return nil
}

// Start begins dispatching cycles.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop waits for a running cycle to finish before returning.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}
