// Package opengl implements gpu.Device on an OpenGL 4.1 core (or GLES 3)
// context. The context must be current on the calling thread.
package opengl

import (
	"errors"
	"fmt"
	"image"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
)

var glInitOnce sync.Once

type mesh struct {
	vao      uint32
	vbo      uint32
	count    int32
	revision uint64
}

// Device is the GL gpu.Device.
type Device struct {
	gles   bool
	bound  *Target
	width  int
	height int
	meshes map[*gpu.Geometry]*mesh
}

var _ gpu.Device = (*Device)(nil)

// New initializes the GL function pointers and returns a device whose screen
// is the default framebuffer of width x height pixels.
func New(width, height int, gles bool) (*Device, error) {
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	return &Device{
		gles:   gles,
		width:  width,
		height: height,
		meshes: make(map[*gpu.Geometry]*mesh),
	}, nil
}

func (d *Device) Bind(target gpu.RenderTarget) {
	if target == nil {
		d.bound = nil
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		gl.Viewport(0, 0, int32(d.width), int32(d.height))
		return
	}
	d.bound = target.(*Target)
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.bound.fbo)
	gl.Viewport(0, 0, int32(d.bound.width), int32(d.bound.height))
}

// errDestroyedTarget reports a draw or clear into a destroyed target.
var errDestroyedTarget = errors.New("bound render target was destroyed")

func (d *Device) Clear(color mgl32.Vec4) error {
	if d.bound != nil && d.bound.fbo == 0 {
		return errDestroyedTarget
	}
	gl.ClearColor(color[0], color[1], color[2], color[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (d *Device) upload(g *gpu.Geometry) *mesh {
	m, ok := d.meshes[g]
	if !ok {
		m = &mesh{}
		gl.GenVertexArrays(1, &m.vao)
		gl.GenBuffers(1, &m.vbo)
		gl.BindVertexArray(m.vao)
		gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 5*4, gl.PtrOffset(0))
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointer(1, 2, gl.FLOAT, false, 5*4, gl.PtrOffset(3*4))
		gl.BindVertexArray(0)
		d.meshes[g] = m
	}
	if ok && m.revision == g.Revision {
		return m
	}
	data := make([]float32, 0, len(g.Vertices)*5)
	for _, v := range g.Vertices {
		data = append(data, v.Pos[0], v.Pos[1], v.Pos[2], v.UV[0], v.UV[1])
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	m.count = int32(len(g.Vertices))
	m.revision = g.Revision
	return m
}

func setBlend(b gpu.Blend) {
	switch b {
	case gpu.BlendAlpha:
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	case gpu.BlendAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	default:
		gl.Disable(gl.BLEND)
	}
}

func (d *Device) Draw(call *gpu.DrawCall) error {
	if call == nil || call.Program == nil || call.Geometry == nil {
		return fmt.Errorf("incomplete draw call")
	}
	p, ok := call.Program.(*program)
	if !ok {
		return fmt.Errorf("program %s was not created by the GL device", call.Program.Source().Name)
	}
	if d.bound != nil && d.bound.fbo == 0 {
		return errDestroyedTarget
	}
	m := d.upload(call.Geometry)

	gl.UseProgram(p.id)
	units, err := d.setUniforms(p, call.Uniforms, call.MVP)
	if err != nil {
		unbindTextures(units)
		return fmt.Errorf("program %s: %w", p.src.Name, err)
	}
	setBlend(call.Blend)
	gl.BindVertexArray(m.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, m.count)
	gl.BindVertexArray(0)
	unbindTextures(units)
	gl.Disable(gl.BLEND)
	return nil
}

func (d *Device) ResizeScreen(width, height int) {
	d.width, d.height = width, height
}

func (d *Device) ScreenSize() (int, int) { return d.width, d.height }

func (d *Device) ReadScreen() (*image.RGBA, error) {
	if d.width <= 0 || d.height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", gpu.ErrInvalidSize, d.width, d.height)
	}
	bottomUp := make([]byte, d.width*d.height*4)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(d.width), int32(d.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(bottomUp))

	img := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	rowSize := d.width * 4
	for y := 0; y < d.height; y++ {
		copy(img.Pix[y*img.Stride:], bottomUp[(d.height-1-y)*rowSize:(d.height-y)*rowSize])
	}
	return img, nil
}

func (d *Device) Destroy() {
	for g, m := range d.meshes {
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		delete(d.meshes, g)
	}
}
