// Package soft is a pure Go implementation of gpu.Device. It rasterizes
// triangle lists on the CPU and runs the Go rendition of each fragment shader,
// which keeps the pipeline usable without a GL context.
package soft

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
)

type program struct {
	src *gpu.ProgramSource
}

func (p *program) Source() *gpu.ProgramSource { return p.src }
func (p *program) Destroy()                   {}

// Device is the software gpu.Device.
type Device struct {
	screen *Texture
	bound  *Target
}

var _ gpu.Device = (*Device)(nil)

// New creates a device whose screen is width x height pixels.
func New(width, height int) (*Device, error) {
	screen, err := newTexture(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	return &Device{screen: screen}, nil
}

func (d *Device) NewRenderTarget(width, height int) (gpu.RenderTarget, error) {
	tex, err := newTexture(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to create render target: %w", err)
	}
	return &Target{tex: tex}, nil
}

func (d *Device) NewTexture(img *image.NRGBA) (gpu.Texture, error) {
	if img == nil {
		return nil, fmt.Errorf("texture image is nil")
	}
	size := img.Rect.Size()
	tex, err := newTexture(size.X, size.Y)
	if err != nil {
		return nil, fmt.Errorf("failed to create texture: %w", err)
	}
	for y := 0; y < size.Y; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < size.X; x++ {
			r, g, b, a := row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]
			tex.set(x, y, mgl32.Vec4{
				float32(r) / 255,
				float32(g) / 255,
				float32(b) / 255,
				float32(a) / 255,
			})
		}
	}
	return tex, nil
}

func (d *Device) NewProgram(src *gpu.ProgramSource) (gpu.Program, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if src.Shade == nil {
		return nil, fmt.Errorf("program %s has no Go fragment function", src.Name)
	}
	return &program{src: src}, nil
}

func (d *Device) Bind(target gpu.RenderTarget) {
	if target == nil {
		d.bound = nil
		return
	}
	// A target from another device is a programming error.
	d.bound = target.(*Target)
}

func (d *Device) dest() (*Texture, error) {
	if d.bound == nil {
		return d.screen, nil
	}
	if d.bound.destroyed {
		return nil, fmt.Errorf("bound render target was destroyed")
	}
	return d.bound.tex, nil
}

func (d *Device) Clear(color mgl32.Vec4) error {
	dst, err := d.dest()
	if err != nil {
		return err
	}
	dst.fill(color)
	return nil
}

func (d *Device) Draw(call *gpu.DrawCall) error {
	if call == nil || call.Program == nil || call.Geometry == nil {
		return fmt.Errorf("incomplete draw call")
	}
	dst, err := d.dest()
	if err != nil {
		return err
	}
	p, ok := call.Program.(*program)
	if !ok {
		return fmt.Errorf("program %s was not created by the software device", call.Program.Source().Name)
	}
	verts := call.Geometry.Vertices
	if len(verts)%3 != 0 {
		return fmt.Errorf("geometry has %d vertices, not a triangle list", len(verts))
	}
	r := &rasterizer{
		dst:      dst,
		mvp:      call.MVP,
		shade:    p.src.Shade,
		blend:    call.Blend,
		uniforms: call.Uniforms,
	}
	for i := 0; i < len(verts); i += 3 {
		r.triangle(verts[i], verts[i+1], verts[i+2])
	}
	return nil
}

func (d *Device) ResizeScreen(width, height int) {
	if width == d.screen.width && height == d.screen.height {
		return
	}
	screen, err := newTexture(width, height)
	if err != nil {
		return
	}
	d.screen = screen
}

func (d *Device) ScreenSize() (int, int) { return d.screen.Size() }

// Screen exposes the screen texture for inspection.
func (d *Device) Screen() *Texture { return d.screen }

func (d *Device) ReadScreen() (*image.RGBA, error) {
	return d.screen.Image(), nil
}

func (d *Device) Destroy() {
	d.bound = nil
}
