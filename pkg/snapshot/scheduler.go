package snapshot

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/depscope/depscope/pkg/maintainers"
)

// Scheduler triggers refresh cycles on a fixed interval and maintainer
// directory refreshes on their own, independently configured interval.
// A trigger that fires while the previous cycle is still running is
// dropped, not queued.
type Scheduler struct {
	builder            *Builder
	directory          maintainers.Directory
	interval           time.Duration
	maintainerInterval time.Duration
	logger             *log.Logger

	running atomic.Bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler driving the builder and the
// maintainer directory. A nil logger falls back to the default logger.
func NewScheduler(b *Builder, dir maintainers.Directory, interval, maintainerInterval time.Duration, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		builder:            b,
		directory:          dir,
		interval:           interval,
		maintainerInterval: maintainerInterval,
		logger:             logger,
	}
}

// Run refreshes the maintainer directory, triggers an immediate first
// cycle, then loops on the tickers until the context is cancelled. In-
// flight work is waited for before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.refreshMaintainers(ctx)
	s.Trigger(ctx)

	refresh := time.NewTicker(s.interval)
	defer refresh.Stop()
	maintainer := time.NewTicker(s.maintainerInterval)
	defer maintainer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-refresh.C:
			s.Trigger(ctx)
		case <-maintainer.C:
			s.refreshMaintainers(ctx)
		}
	}
}

// Trigger starts a refresh cycle in the background unless one is
// already running, in which case the trigger is dropped. Reports
// whether a cycle was started.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous refresh cycle still running, skipping trigger")
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("refresh cycle panicked", "panic", r)
			}
		}()
		if err := s.builder.RunCycle(ctx); err != nil {
			s.logger.Error("refresh cycle failed", "error", err)
		}
	}()
	return true
}

// Busy reports whether a refresh cycle is currently running.
func (s *Scheduler) Busy() bool { return s.running.Load() }

func (s *Scheduler) refreshMaintainers(ctx context.Context) {
	if err := s.directory.Refresh(ctx); err != nil {
		s.logger.Error("maintainer directory refresh failed", "error", err)
	}
}
