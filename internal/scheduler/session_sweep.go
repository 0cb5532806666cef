// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mrlokans/videoanalyzer/internal/auth"
)

var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule reports whether schedule is a valid five field cron expression.
func ValidateSchedule(schedule string) error {
	if _, err := scheduleParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return nil
}

// Sweeper purges expired sessions and reports how many were removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SessionSweepScheduler periodically removes expired sessions from the store.
type SessionSweepScheduler struct {
	sweeper  Sweeper
	schedule string
	logger   zerolog.Logger

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewSessionSweepScheduler creates a new scheduler instance.
func NewSessionSweepScheduler(sweeper Sweeper, schedule string, logger zerolog.Logger) *SessionSweepScheduler {
	return &SessionSweepScheduler{
		sweeper:  sweeper,
		schedule: schedule,
		logger:   logger.With().Str("component", "session_sweep").Logger(),
		cron:     cron.New(cron.WithParser(scheduleParser)),
	}
}

// Start schedules the sweep. An empty schedule leaves the sweeper disabled.
// The scheduler stops when ctx is cancelled.
func (s *SessionSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		s.logger.Info().Msg("session sweeper disabled")
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return err
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		_, _ = s.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	s.logger.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.cron.Entry(entryID).Next).
		Msg("session sweeper started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running sweep to finish and stops the scheduler.
func (s *SessionSweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false

	s.logger.Info().Msg("session sweeper stopped")
}

// RunNow performs one sweep immediately.
func (s *SessionSweepScheduler) RunNow(ctx context.Context) (int, error) {
	start := time.Now()
	removed, err := s.sweeper.Sweep(ctx)
	switch {
	case errors.Is(err, auth.ErrSweepUnsupported):
		s.logger.Debug().Msg("session store expires entries itself, sweep skipped")
		return 0, nil
	case err != nil:
		s.logger.Error().Err(err).Int("removed", removed).Msg("session sweep failed")
		return removed, err
	}

	s.logger.Info().
		Int("removed", removed).
		Dur("duration", time.Since(start)).
		Msg("session sweep finished")
	return removed, nil
}

// IsRunning returns whether the scheduler is active.
func (s *SessionSweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sweep will occur.
func (s *SessionSweepScheduler) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	next := s.cron.Entry(s.entryID).Next
	return &next
}
