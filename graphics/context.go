package graphics

// Context is the drawable surface the renderer presents to. Both the GLFW
// window and the headless surface implement it.
type Context interface {
	MakeCurrent()
	Shutdown()
	ShouldClose() bool
	// EndFrame presents the frame and yields until the next refresh.
	EndFrame()
	GetFramebufferSize() (int, int)
	// Pointer returns the last pointer position normalized to [-1,1], +y up.
	Pointer() (x, y float32)
	// SetResizeCallback registers fn to be called with the new framebuffer
	// size whenever it changes.
	SetResizeCallback(fn func(width, height int))
}
