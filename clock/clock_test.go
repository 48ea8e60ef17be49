package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockElapsedAndDelta(t *testing.T) {
	mt := NewManualTime(time.Unix(1000, 0))
	c := New(mt)

	elapsed, delta := c.Tick()
	assert.Equal(t, 0.0, elapsed)
	assert.Equal(t, 0.0, delta)

	mt.Advance(250 * time.Millisecond)
	elapsed, delta = c.Tick()
	assert.InDelta(t, 0.25, elapsed, 1e-9)
	assert.InDelta(t, 0.25, delta, 1e-9)

	mt.Advance(time.Second)
	elapsed, delta = c.Tick()
	assert.InDelta(t, 1.25, elapsed, 1e-9)
	assert.InDelta(t, 1.0, delta, 1e-9)
	assert.InDelta(t, 1.25, c.Elapsed(), 1e-9)
	assert.InDelta(t, 1.0, c.Delta(), 1e-9)
}

func TestClockWithoutAdvanceHasZeroDelta(t *testing.T) {
	mt := NewManualTime(time.Unix(0, 0))
	c := New(mt)
	mt.Advance(time.Second)
	c.Tick()

	elapsed, delta := c.Tick()
	assert.InDelta(t, 1.0, elapsed, 1e-9)
	assert.Equal(t, 0.0, delta)
}

type backwardsTime struct {
	times []time.Time
}

func (b *backwardsTime) Now() time.Time {
	now := b.times[0]
	if len(b.times) > 1 {
		b.times = b.times[1:]
	}
	return now
}

func TestClockIsMonotonic(t *testing.T) {
	base := time.Unix(0, 0)
	p := &backwardsTime{times: []time.Time{base, base.Add(2 * time.Second), base.Add(time.Second)}}
	c := New(p)

	elapsed, _ := c.Tick()
	assert.InDelta(t, 2.0, elapsed, 1e-9)

	elapsed, delta := c.Tick()
	assert.InDelta(t, 2.0, elapsed, 1e-9)
	assert.Equal(t, 0.0, delta)
}

func TestNilProviderUsesSystemTime(t *testing.T) {
	c := New(nil)
	elapsed, delta := c.Tick()
	assert.GreaterOrEqual(t, elapsed, 0.0)
	assert.GreaterOrEqual(t, delta, 0.0)
}

func TestFixedStepAdvancesOncePerTick(t *testing.T) {
	fs := NewFixedStep(time.Unix(0, 0), 30)
	c := New(fs)
	for i := 1; i <= 3; i++ {
		elapsed, delta := c.Tick()
		assert.InDelta(t, 1.0/30, delta, 1e-6)
		assert.InDelta(t, float64(i)/30, elapsed, 1e-6)
	}
	assert.Equal(t, time.Second/30, fs.Step())
}

func TestFixedStepClampsFPS(t *testing.T) {
	fs := NewFixedStep(time.Unix(0, 0), 0)
	assert.Equal(t, time.Second, fs.Step())
}
