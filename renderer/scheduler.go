package renderer

import (
	"context"
	"sync/atomic"

	"github.com/richinsley/feedbacktoy/graphics"
	"go.uber.org/zap"
)

// SchedulerState is Stopped or Running.
type SchedulerState int32

const (
	Stopped SchedulerState = iota
	Running
)

func (s SchedulerState) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// Scheduler runs one tick per display refresh. Ticks run to completion on the
// calling goroutine; the only yield is the surface's EndFrame between ticks.
type Scheduler struct {
	surface graphics.Context
	tick    func() error
	logger  *zap.Logger

	state    atomic.Int32
	stopping atomic.Bool
	ticks    atomic.Uint64
	failures atomic.Uint64
}

// NewScheduler creates a stopped scheduler that calls tick once per frame.
func NewScheduler(surface graphics.Context, tick func() error, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{surface: surface, tick: tick, logger: logger}
}

// Run moves the scheduler to Running and ticks until ctx is done, Stop is
// called or the surface asks to close. It returns ctx.Err() when the context
// ended the loop, nil otherwise. Per-tick errors are logged and the loop
// continues.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(Stopped), int32(Running)) {
		return nil
	}
	defer s.state.Store(int32(Stopped))
	s.logger.Info("Scheduler started")

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("Scheduler stopped", zap.Uint64("ticks", s.ticks.Load()), zap.Error(err))
			return err
		}
		if s.stopping.Load() || s.surface.ShouldClose() {
			s.logger.Info("Scheduler stopped", zap.Uint64("ticks", s.ticks.Load()))
			return nil
		}
		if err := s.tick(); err != nil {
			s.failures.Add(1)
			s.logger.Warn("Frame failed", zap.Error(err))
		}
		s.ticks.Add(1)
		s.surface.EndFrame()
	}
}

// Stop prevents further ticks, including those of any later Run. A tick in
// flight completes. Safe from any goroutine.
func (s *Scheduler) Stop() { s.stopping.Store(true) }

// State returns the current state.
func (s *Scheduler) State() SchedulerState { return SchedulerState(s.state.Load()) }

// Ticks returns the number of ticks run.
func (s *Scheduler) Ticks() uint64 { return s.ticks.Load() }

// Failures returns the number of ticks that returned an error.
func (s *Scheduler) Failures() uint64 { return s.failures.Load() }
