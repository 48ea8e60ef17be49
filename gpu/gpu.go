// Package gpu defines the device contract the render pipeline draws through.
// Two devices implement it: gpu/opengl (go-gl, used with a real window) and
// gpu/soft (a pure Go rasterizer used for headless runs and tests).
package gpu

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrSizeMismatch is returned when a pass samples a render target whose size
	// differs from the pass destination.
	ErrSizeMismatch = errors.New("texture size does not match destination size")

	// ErrUnboundUniform is returned when a program declares a uniform that the
	// pass has no binding for.
	ErrUnboundUniform = errors.New("uniform has no binding")

	// ErrInvalidSize is returned for zero or negative target dimensions.
	ErrInvalidSize = errors.New("invalid target size")
)

// MVPUniform is the name of the model-view-projection matrix every vertex
// stage receives.
const MVPUniform = "u_mvp"

// Texture is anything a fragment stage can sample.
type Texture interface {
	Size() (width, height int)
}

// RenderTarget is an off-screen color buffer that can be drawn into and then
// sampled as a Texture. Resize mutates the target in place: its identity is
// stable for the lifetime of the target.
type RenderTarget interface {
	Texture
	// Resize reallocates the color storage and clears it to transparent black.
	Resize(width, height int) error
	Destroy()
}

// Program is a compiled shader program.
type Program interface {
	Source() *ProgramSource
	Destroy()
}

// Blend selects how a draw combines with the pixels already in the destination.
type Blend int

const (
	// BlendNone overwrites the destination.
	BlendNone Blend = iota
	// BlendAlpha is the usual "over" operator: rgb uses SRC_ALPHA/ONE_MINUS_SRC_ALPHA,
	// alpha uses ONE/ONE_MINUS_SRC_ALPHA.
	BlendAlpha
	// BlendAdditive adds the alpha-weighted source color onto the destination.
	BlendAdditive
)

func (b Blend) String() string {
	switch b {
	case BlendNone:
		return "none"
	case BlendAlpha:
		return "alpha"
	case BlendAdditive:
		return "additive"
	default:
		return "unknown"
	}
}

// DrawCall is one draw of a geometry with a program into the bound destination.
type DrawCall struct {
	Program  Program
	Geometry *Geometry
	MVP      mgl32.Mat4
	Uniforms Uniforms
	Blend    Blend
}

// Device creates resources and executes draws. Devices are not safe for
// concurrent use; every call happens on the render goroutine.
type Device interface {
	// NewRenderTarget allocates a target cleared to transparent black.
	NewRenderTarget(width, height int) (RenderTarget, error)
	// NewTexture uploads a static straight-alpha image. Rows are expected
	// bottom-up, the way GL stores texture rows.
	NewTexture(img *image.NRGBA) (Texture, error)
	NewProgram(src *ProgramSource) (Program, error)

	// Bind selects the destination for subsequent Clear and Draw calls.
	// A nil target selects the screen.
	Bind(target RenderTarget)
	// Clear fills the bound destination. It fails when the bound target was
	// destroyed, the same as Draw.
	Clear(color mgl32.Vec4) error
	Draw(call *DrawCall) error

	ResizeScreen(width, height int)
	ScreenSize() (width, height int)
	// ReadScreen returns the screen contents as a top-down image.
	ReadScreen() (*image.RGBA, error)

	Destroy()
}
