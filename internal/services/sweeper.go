package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically promotes stale in-progress tasks to overdue
type Sweeper struct {
	store   *TaskStore
	clock   Clock
	cron    *cron.Cron
	timeout time.Duration
}

// NewSweeper creates a Sweeper running on schedule, a standard cron
// expression or a descriptor such as "@every 1m".
func NewSweeper(store *TaskStore, clock Clock, schedule string) (*Sweeper, error) {
	logger := cron.PrintfLogger(log.Default())
	s := &Sweeper{
		store:   store,
		clock:   clock,
		timeout: 30 * time.Second,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce performs a single sweep at the clock's current time
func (s *Sweeper) RunOnce(ctx context.Context) (bool, error) {
	changed, err := s.store.SweepOverdue(ctx, s.clock.Now())
	if err != nil {
		return false, fmt.Errorf("overdue sweep failed: %w", err)
	}
	return changed, nil
}

// Start sweeps once immediately, then on the schedule
func (s *Sweeper) Start() {
	s.run()
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep, bounded by ctx
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	changed, err := s.RunOnce(ctx)
	if err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	if changed {
		log.Println("Overdue sweep flagged tasks as overdue")
	}
}
