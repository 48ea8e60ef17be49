package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
	"github.com/richinsley/feedbacktoy/panel"
)

// Source says where a uniform's value comes from each tick.
type Source int

const (
	SourceConstant Source = iota
	SourceTime
	SourcePrevious
	SourceCurrent
	SourcePointer
	SourceTunable
	SourceTexture
	SourceResolution
)

func (s Source) String() string {
	switch s {
	case SourceConstant:
		return "constant"
	case SourceTime:
		return "time"
	case SourcePrevious:
		return "previous"
	case SourceCurrent:
		return "current"
	case SourcePointer:
		return "pointer"
	case SourceTunable:
		return "tunable"
	case SourceTexture:
		return "texture"
	case SourceResolution:
		return "resolution"
	default:
		return "unknown"
	}
}

// Binding connects a uniform name to a Source.
type Binding struct {
	Source  Source
	Value   any
	Texture gpu.Texture
	Tunable func(f *FrameState) any
}

// Constant binds a fixed value.
func Constant(v any) Binding { return Binding{Source: SourceConstant, Value: v} }

// Time binds the elapsed clock time in seconds.
func Time() Binding { return Binding{Source: SourceTime} }

// Previous binds the previous tick's render target.
func Previous() Binding { return Binding{Source: SourcePrevious} }

// Current binds this tick's render target. Only passes that draw to the
// screen may sample it.
func Current() Binding { return Binding{Source: SourceCurrent} }

// Pointer binds the normalized pointer position.
func Pointer() Binding { return Binding{Source: SourcePointer} }

// Tunable binds a value read from the frame state, typically the settings.
func Tunable(fn func(f *FrameState) any) Binding {
	return Binding{Source: SourceTunable, Tunable: fn}
}

// StaticTexture binds a texture that never changes.
func StaticTexture(tex gpu.Texture) Binding {
	return Binding{Source: SourceTexture, Texture: tex}
}

// Resolution binds the destination size in pixels.
func Resolution() Binding { return Binding{Source: SourceResolution} }

// Destination is where a pass draws.
type Destination int

const (
	// ToCurrent draws into the pool's current target.
	ToCurrent Destination = iota
	// ToScreen draws into the surface.
	ToScreen
)

func (d Destination) String() string {
	if d == ToScreen {
		return "screen"
	}
	return "current"
}

// FrameState is everything a pass may read during one tick. Targets are
// resolved fresh every tick; passes never keep them.
type FrameState struct {
	Elapsed float64
	Delta   float64
	Pointer mgl32.Vec2

	Previous gpu.RenderTarget
	Current  gpu.RenderTarget

	Settings *panel.Settings
	Color    mgl32.Vec3
	Light    mgl32.Vec3
	Rotation float32
}

// PassConfig describes a pass.
type PassConfig struct {
	Name        string
	Program     gpu.Program
	Geometry    *gpu.Geometry
	Bindings    map[string]Binding
	Destination Destination
	Blend       gpu.Blend
	// Clear, when set, clears the destination before drawing.
	Clear *mgl32.Vec4
	// Model places the geometry in the world; nil means identity.
	Model func(f *FrameState) mgl32.Mat4
	// Enabled skips the pass when it returns false; nil means always.
	Enabled func(f *FrameState) bool
}

// RenderPass is one draw of the frame graph. Its program, geometry and
// bindings are fixed at construction; only uniform values change per tick.
type RenderPass struct {
	name        string
	program     gpu.Program
	geometry    *gpu.Geometry
	bindings    map[string]Binding
	destination Destination
	blend       gpu.Blend
	clear       *mgl32.Vec4
	model       func(f *FrameState) mgl32.Mat4
	enabled     func(f *FrameState) bool

	uniforms gpu.Uniforms
}

// NewRenderPass checks the configuration and builds the pass. Every uniform
// the program declares must have a binding, and a pass drawing into the
// current target may not also sample it.
func NewRenderPass(cfg PassConfig) (*RenderPass, error) {
	if cfg.Program == nil {
		return nil, fmt.Errorf("pass %s: no program", cfg.Name)
	}
	if cfg.Geometry == nil {
		return nil, fmt.Errorf("pass %s: no geometry", cfg.Name)
	}
	for _, name := range cfg.Program.Source().Uniforms {
		if _, ok := cfg.Bindings[name]; !ok {
			return nil, fmt.Errorf("pass %s: %w: %s", cfg.Name, gpu.ErrUnboundUniform, name)
		}
	}
	for name, b := range cfg.Bindings {
		switch b.Source {
		case SourceCurrent:
			if cfg.Destination == ToCurrent {
				return nil, fmt.Errorf("pass %s: uniform %s samples the target it draws into", cfg.Name, name)
			}
		case SourceTunable:
			if b.Tunable == nil {
				return nil, fmt.Errorf("pass %s: tunable binding %s has no accessor", cfg.Name, name)
			}
		case SourceTexture:
			if b.Texture == nil {
				return nil, fmt.Errorf("pass %s: texture binding %s has no texture", cfg.Name, name)
			}
		}
	}
	return &RenderPass{
		name:        cfg.Name,
		program:     cfg.Program,
		geometry:    cfg.Geometry,
		bindings:    cfg.Bindings,
		destination: cfg.Destination,
		blend:       cfg.Blend,
		clear:       cfg.Clear,
		model:       cfg.Model,
		enabled:     cfg.Enabled,
		uniforms:    make(gpu.Uniforms, len(cfg.Bindings)),
	}, nil
}

// Name returns the pass name.
func (p *RenderPass) Name() string { return p.name }

// Geometry returns the pass geometry.
func (p *RenderPass) Geometry() *gpu.Geometry { return p.geometry }

// Destination returns where the pass draws.
func (p *RenderPass) Destination() Destination { return p.destination }

// Execute draws the pass for one tick. viewProjection comes from the camera.
func (p *RenderPass) Execute(dev gpu.Device, f *FrameState, viewProjection mgl32.Mat4) error {
	if p.enabled != nil && !p.enabled(f) {
		return nil
	}

	var target gpu.RenderTarget
	var width, height int
	if p.destination == ToCurrent {
		if f.Current == nil {
			return fmt.Errorf("pass %s: no current target", p.name)
		}
		target = f.Current
		width, height = target.Size()
	} else {
		width, height = dev.ScreenSize()
	}

	if err := p.updateUniforms(f, width, height); err != nil {
		return err
	}

	mvp := viewProjection
	if p.model != nil {
		mvp = viewProjection.Mul4(p.model(f))
	}

	dev.Bind(target)
	if p.clear != nil {
		if err := dev.Clear(*p.clear); err != nil {
			return fmt.Errorf("pass %s: %w", p.name, err)
		}
	}
	err := dev.Draw(&gpu.DrawCall{
		Program:  p.program,
		Geometry: p.geometry,
		MVP:      mvp,
		Uniforms: p.uniforms,
		Blend:    p.blend,
	})
	if err != nil {
		return fmt.Errorf("pass %s: %w", p.name, err)
	}
	return nil
}

func (p *RenderPass) updateUniforms(f *FrameState, width, height int) error {
	for name, b := range p.bindings {
		switch b.Source {
		case SourceConstant:
			p.uniforms[name] = b.Value
		case SourceTime:
			p.uniforms[name] = float32(f.Elapsed)
		case SourcePointer:
			p.uniforms[name] = f.Pointer
		case SourceResolution:
			p.uniforms[name] = mgl32.Vec2{float32(width), float32(height)}
		case SourceTunable:
			p.uniforms[name] = b.Tunable(f)
		case SourceTexture:
			p.uniforms[name] = b.Texture
		case SourcePrevious, SourceCurrent:
			tex := f.Previous
			if b.Source == SourceCurrent {
				tex = f.Current
			}
			if tex == nil {
				return fmt.Errorf("pass %s: uniform %s: no %s target", p.name, name, b.Source)
			}
			if tw, th := tex.Size(); tw != width || th != height {
				return fmt.Errorf("pass %s: uniform %s is %dx%d, destination is %dx%d: %w",
					p.name, name, tw, th, width, height, gpu.ErrSizeMismatch)
			}
			p.uniforms[name] = gpu.Texture(tex)
		}
	}
	return nil
}
