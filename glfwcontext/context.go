package glfwcontext

import (
	"fmt"
	"runtime"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/feedbacktoy/graphics"
	"github.com/richinsley/feedbacktoy/inputs"
	"go.uber.org/zap"
)

// Context is a GLFW window with a GL 4.1 core context.
type Context struct {
	window  *glfw.Window
	pointer inputs.Pointer
	logger  *zap.Logger

	onResize func(width, height int)
	// A map to store functions to be called on key presses.
	keyCallbacks map[glfw.Key]func()
}

var _ graphics.Context = (*Context)(nil)

// New creates a resizable window of width x height screen coordinates.
func New(width, height int, title string, logger *zap.Logger) (*Context, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	c := &Context{
		window:       win,
		logger:       logger,
		keyCallbacks: make(map[glfw.Key]func()),
	}
	win.SetKeyCallback(c.glfwKeyCallback)
	win.SetCursorPosCallback(c.glfwCursorCallback)
	win.SetFramebufferSizeCallback(c.glfwFramebufferSizeCallback)
	return c, nil
}

// RegisterKeyCallback allows the main application to register a function to be
// called when a specific key is pressed.
func (c *Context) RegisterKeyCallback(key glfw.Key, f func()) {
	c.keyCallbacks[key] = f
}

func (c *Context) glfwKeyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	if key == glfw.KeyEscape {
		w.SetShouldClose(true)
	}
	if callback, ok := c.keyCallbacks[key]; ok {
		callback()
	}
}

// Cursor positions arrive in screen coordinates, so they are normalized
// against the window size rather than the framebuffer size.
func (c *Context) glfwCursorCallback(w *glfw.Window, x, y float64) {
	width, height := w.GetSize()
	c.pointer.SetFromWindow(x, y, width, height)
}

func (c *Context) glfwFramebufferSizeCallback(w *glfw.Window, width, height int) {
	// Minimized windows report 0x0.
	if width <= 0 || height <= 0 {
		return
	}
	c.logger.Debug("Framebuffer resized", zap.Int("width", width), zap.Int("height", height))
	if c.onResize != nil {
		c.onResize(width, height)
	}
}

// SetResizeCallback implements graphics.Context.
func (c *Context) SetResizeCallback(fn func(width, height int)) { c.onResize = fn }

// Pointer implements graphics.Context.
func (c *Context) Pointer() (float32, float32) { return c.pointer.Get() }

// MakeCurrent makes the context current for the calling goroutine.
func (c *Context) MakeCurrent() {
	c.window.MakeContextCurrent()
	glfw.SwapInterval(1)
}

// Shutdown destroys the window.
func (c *Context) Shutdown() {
	c.window.Destroy()
}

func (c *Context) ShouldClose() bool {
	return c.window.ShouldClose()
}

// RequestClose asks the window to close at the end of the current frame.
func (c *Context) RequestClose() {
	c.window.SetShouldClose(true)
}

func (c *Context) EndFrame() {
	c.window.SwapBuffers()
	glfw.PollEvents()
}

func (c *Context) GetFramebufferSize() (int, int) {
	return c.window.GetFramebufferSize()
}

// InitGraphics initializes the main graphics subsystem (GLFW). Must be called from the main thread.
func InitGraphics(logger *zap.Logger) error {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}
	logger.Info("GLFW initialized")
	return nil
}

// TerminateGraphics shuts down the graphics subsystem. Must be called from the main thread.
func TerminateGraphics(logger *zap.Logger) {
	glfw.Terminate()
	logger.Info("GLFW terminated")
}
