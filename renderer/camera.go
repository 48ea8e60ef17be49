package renderer

import "github.com/go-gl/mathgl/mgl32"

// depthRange is the half depth of the view volume.
const depthRange = 1000

// Camera is an orthographic camera whose bounds are the viewport in pixels,
// centered on the origin, looking down -z from z=1.
type Camera struct {
	width, height int
	projection    mgl32.Mat4
	view          mgl32.Mat4
	viewProj      mgl32.Mat4
}

// NewCamera creates a camera for a width x height viewport.
func NewCamera(width, height int) *Camera {
	c := &Camera{view: mgl32.Translate3D(0, 0, -1)}
	c.SetViewport(width, height)
	return c
}

// SetViewport updates the bounds. Repeating the same size is a no-op.
func (c *Camera) SetViewport(width, height int) {
	if width == c.width && height == c.height && c.projection != (mgl32.Mat4{}) {
		return
	}
	hw, hh := float32(width)/2, float32(height)/2
	c.width, c.height = width, height
	c.projection = mgl32.Ortho(-hw, hw, -hh, hh, -depthRange, depthRange)
	c.viewProj = c.projection.Mul4(c.view)
}

// Viewport returns the viewport size.
func (c *Camera) Viewport() (int, int) { return c.width, c.height }

// Bounds returns left, right, bottom and top in world units.
func (c *Camera) Bounds() (left, right, bottom, top float32) {
	hw, hh := float32(c.width)/2, float32(c.height)/2
	return -hw, hw, -hh, hh
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() mgl32.Mat4 { return c.viewProj }
