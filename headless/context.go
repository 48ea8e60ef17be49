// Package headless provides a windowless graphics.Context for the software
// device. It presents nothing; EndFrame only counts frames.
package headless

import (
	"sync"
	"sync/atomic"

	"github.com/richinsley/feedbacktoy/graphics"
	"github.com/richinsley/feedbacktoy/inputs"
)

// Context is a surface of a fixed size that closes after a frame limit or
// when Close is called.
type Context struct {
	mu       sync.Mutex
	width    int
	height   int
	onResize func(width, height int)

	pointer   inputs.Pointer
	maxFrames uint64
	frames    atomic.Uint64
	closed    atomic.Bool
}

var _ graphics.Context = (*Context)(nil)

// New creates a width x height surface. maxFrames of zero means no limit.
func New(width, height int, maxFrames uint64) *Context {
	return &Context{width: width, height: height, maxFrames: maxFrames}
}

func (c *Context) MakeCurrent() {}

func (c *Context) Shutdown() { c.Close() }

func (c *Context) ShouldClose() bool { return c.closed.Load() }

// Close makes ShouldClose report true. It is safe from any goroutine.
func (c *Context) Close() { c.closed.Store(true) }

func (c *Context) EndFrame() {
	n := c.frames.Add(1)
	if c.maxFrames > 0 && n >= c.maxFrames {
		c.Close()
	}
}

// Frames returns the number of frames ended.
func (c *Context) Frames() uint64 { return c.frames.Load() }

func (c *Context) GetFramebufferSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Resize changes the surface size and notifies the resize callback.
func (c *Context) Resize(width, height int) {
	c.mu.Lock()
	changed := width != c.width || height != c.height
	c.width, c.height = width, height
	fn := c.onResize
	c.mu.Unlock()
	if changed && fn != nil {
		fn(width, height)
	}
}

func (c *Context) SetResizeCallback(fn func(width, height int)) {
	c.mu.Lock()
	c.onResize = fn
	c.mu.Unlock()
}

// SetPointer stores a normalized pointer position.
func (c *Context) SetPointer(x, y float32) { c.pointer.Set(x, y) }

func (c *Context) Pointer() (float32, float32) { return c.pointer.Get() }
