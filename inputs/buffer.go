package inputs

import (
	"fmt"

	"github.com/richinsley/feedbacktoy/gpu"
)

// Buffer owns the two render targets of the feedback loop. One is the write
// target for the current tick, the other holds the settled result of the
// previous tick. Roles flip by index; the targets themselves never move.
type Buffer struct {
	targets    [2]gpu.RenderTarget
	readIndex  int // the previous tick's output
	writeIndex int // this tick's destination

	width  int
	height int
}

// NewBuffer allocates both targets at width x height. Devices clear new
// targets to transparent black, so the first tick samples a defined previous
// frame.
func NewBuffer(dev gpu.Device, width, height int) (*Buffer, error) {
	b := &Buffer{
		readIndex:  0,
		writeIndex: 1,
		width:      width,
		height:     height,
	}
	for i := 0; i < 2; i++ {
		t, err := dev.NewRenderTarget(width, height)
		if err != nil {
			b.Destroy()
			return nil, fmt.Errorf("render target %d for buffer: %w", i, err)
		}
		b.targets[i] = t
	}
	return b, nil
}

// Current returns the write target for this tick.
func (b *Buffer) Current() gpu.RenderTarget { return b.targets[b.writeIndex] }

// Previous returns the read target holding the last tick's output.
func (b *Buffer) Previous() gpu.RenderTarget { return b.targets[b.readIndex] }

// SwapBuffers flips the roles. It must be called exactly once per tick, after
// every pass that reads Previous or writes Current has run.
func (b *Buffer) SwapBuffers() {
	b.readIndex, b.writeIndex = b.writeIndex, b.readIndex
}

// Size returns the common size of both targets.
func (b *Buffer) Size() (int, int) { return b.width, b.height }

// Resize changes both targets to width x height. Resizing to the current size
// is a no-op. Both targets are resized or the buffer reports an error; a
// failure part way through rolls the first target back so the two stay
// congruent.
func (b *Buffer) Resize(width, height int) error {
	if width == b.width && height == b.height {
		return nil
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", gpu.ErrInvalidSize, width, height)
	}
	if err := b.targets[0].Resize(width, height); err != nil {
		return fmt.Errorf("resize render target 0: %w", err)
	}
	if err := b.targets[1].Resize(width, height); err != nil {
		if rbErr := b.targets[0].Resize(b.width, b.height); rbErr != nil {
			return fmt.Errorf("resize render target 1: %w (rollback failed: %v)", err, rbErr)
		}
		return fmt.Errorf("resize render target 1: %w", err)
	}
	b.width, b.height = width, height
	return nil
}

// Destroy releases both targets.
func (b *Buffer) Destroy() {
	for i, t := range b.targets {
		if t != nil {
			t.Destroy()
			b.targets[i] = nil
		}
	}
}
