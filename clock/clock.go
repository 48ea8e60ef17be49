// Package clock provides the monotonic elapsed/delta time source that drives
// time-based uniforms and animation.
package clock

import (
	"sync"
	"time"
)

// TimeProvider supplies the current time.
type TimeProvider interface {
	Now() time.Time
}

// SystemTime reads the wall clock with its monotonic reading.
type SystemTime struct{}

func (SystemTime) Now() time.Time { return time.Now() }

// ManualTime is a TimeProvider that only moves when told to. Tests use it to
// drive the clock deterministically.
type ManualTime struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualTime creates a manual provider starting at start.
func NewManualTime(start time.Time) *ManualTime {
	return &ManualTime{now: start}
}

func (m *ManualTime) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Advance moves the provider forward by d.
func (m *ManualTime) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// FixedStep is a TimeProvider that moves forward by a fixed step every time it
// is read, after the first read. A Clock built on it sees exactly one step per
// Tick, which is what offline recording needs.
type FixedStep struct {
	mu    sync.Mutex
	now   time.Time
	step  time.Duration
	reads int
}

// NewFixedStep creates a provider advancing 1/fps seconds per read. fps
// values below 1 are treated as 1.
func NewFixedStep(start time.Time, fps int) *FixedStep {
	if fps < 1 {
		fps = 1
	}
	return &FixedStep{now: start, step: time.Second / time.Duration(fps)}
}

func (f *FixedStep) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reads > 0 {
		f.now = f.now.Add(f.step)
	}
	f.reads++
	return f.now
}

// Step returns the per-read advance.
func (f *FixedStep) Step() time.Duration { return f.step }

// Clock tracks elapsed time since construction and the delta between ticks.
// It is never reset.
type Clock struct {
	provider TimeProvider
	start    time.Time
	last     time.Time
	elapsed  float64
	delta    float64
}

// New starts a clock on provider; a nil provider means SystemTime.
func New(provider TimeProvider) *Clock {
	if provider == nil {
		provider = SystemTime{}
	}
	now := provider.Now()
	return &Clock{provider: provider, start: now, last: now}
}

// Tick samples the provider once and returns the elapsed and delta time in
// seconds. A provider that steps backwards yields a zero delta and leaves
// elapsed where it was.
func (c *Clock) Tick() (elapsed, delta float64) {
	now := c.provider.Now()
	if now.Before(c.last) {
		c.delta = 0
		return c.elapsed, 0
	}
	c.delta = now.Sub(c.last).Seconds()
	c.elapsed = now.Sub(c.start).Seconds()
	c.last = now
	return c.elapsed, c.delta
}

// Elapsed returns the elapsed seconds as of the last Tick.
func (c *Clock) Elapsed() float64 { return c.elapsed }

// Delta returns the delta seconds computed by the last Tick.
func (c *Clock) Delta() float64 { return c.delta }
