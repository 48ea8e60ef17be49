package renderer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/richinsley/feedbacktoy/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsUntilSurfaceCloses(t *testing.T) {
	surface := headless.New(2, 2, 5)
	var calls int
	s := NewScheduler(surface, func() error { calls++; return nil }, nil)
	assert.Equal(t, Stopped, s.State())

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 5, calls)
	assert.Equal(t, uint64(5), s.Ticks())
	assert.Equal(t, uint64(5), surface.Frames())
	assert.Equal(t, Stopped, s.State())
}

func TestSchedulerContinuesAfterTickError(t *testing.T) {
	surface := headless.New(2, 2, 4)
	var calls int
	s := NewScheduler(surface, func() error {
		calls++
		if calls%2 == 0 {
			return errors.New("boom")
		}
		return nil
	}, nil)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(4), s.Ticks())
	assert.Equal(t, uint64(2), s.Failures())
}

func TestSchedulerStopIsPermanent(t *testing.T) {
	surface := headless.New(2, 2, 0)
	var s *Scheduler
	s = NewScheduler(surface, func() error {
		if s.Ticks() == 2 {
			s.Stop()
		}
		return nil
	}, nil)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(3), s.Ticks())

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(3), s.Ticks(), "a stopped scheduler does not tick again")
}

func TestSchedulerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewScheduler(headless.New(2, 2, 0), func() error { return nil }, nil)
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Zero(t, s.Ticks())

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	s = NewScheduler(headless.New(2, 2, 0), func() error {
		time.Sleep(time.Millisecond)
		return nil
	}, nil)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Positive(t, s.Ticks())
	assert.Equal(t, Stopped, s.State())
}

func TestSchedulerStopFromAnotherGoroutine(t *testing.T) {
	s := NewScheduler(headless.New(2, 2, 0), func() error { return nil }, nil)
	running := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(running)
		done <- s.Run(context.Background())
	}()
	<-running
	require.Eventually(t, func() bool { return s.Ticks() > 0 }, time.Second, time.Millisecond)
	assert.Equal(t, Running, s.State())
	s.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, "stopped", s.State().String())
}

func TestRenderFrameUnderScheduler(t *testing.T) {
	f := newFixture(t, 4, 4, passthrough(), nil)
	surface := headless.New(4, 4, 3)
	surface.SetResizeCallback(f.r.RequestResize)
	s := NewScheduler(surface, func() error {
		if f.r.Frames() == 1 {
			surface.Resize(6, 2)
		}
		return f.r.RenderFrame()
	}, nil)

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, uint64(3), f.r.Frames())
	assert.Zero(t, s.Failures())
	w, h := f.r.Pool().Size()
	assert.Equal(t, []int{6, 2}, []int{w, h})
}
