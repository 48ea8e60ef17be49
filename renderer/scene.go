package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
	"github.com/richinsley/feedbacktoy/shader"
	"go.uber.org/zap"
)

// Programs selects the program of each pass. Nil entries use the built-ins.
type Programs struct {
	Feedback *gpu.ProgramSource
	Scene    *gpu.ProgramSource
	Post     *gpu.ProgramSource
}

func (p Programs) withDefaults() Programs {
	if p.Feedback == nil {
		p.Feedback = shader.Feedback()
	}
	if p.Scene == nil {
		p.Scene = shader.Scene()
	}
	if p.Post == nil {
		p.Post = shader.Post()
	}
	return p
}

var (
	transparent = mgl32.Vec4{0, 0, 0, 0}
	opaqueBlack = mgl32.Vec4{0, 0, 0, 1}
)

// Scene is the frame graph: feedback into current, scene blended over it,
// then post from current to the screen. The order is fixed.
type Scene struct {
	logger *zap.Logger

	feedback *RenderPass
	scene    *RenderPass
	post     *RenderPass
	passes   []*RenderPass
	programs []gpu.Program

	// quad covers the viewport; feedback and post draw it.
	quad *gpu.Geometry
	// plane is the max(w,h) square carrying the label.
	plane *gpu.Geometry
}

// NewScene compiles the programs and builds the three passes for a
// width x height viewport. label is the scene pass's texture.
func NewScene(dev gpu.Device, logger *zap.Logger, programs Programs, label gpu.Texture, blend gpu.Blend, width, height int) (*Scene, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	programs = programs.withDefaults()
	s := &Scene{
		logger: logger,
		quad:   gpu.Plane(float32(width), float32(height)),
		plane:  gpu.Plane(planeSide(width, height), planeSide(width, height)),
	}

	compile := func(src *gpu.ProgramSource) (gpu.Program, error) {
		p, err := dev.NewProgram(src)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s program: %w", src.Name, err)
		}
		s.programs = append(s.programs, p)
		return p, nil
	}

	feedbackProgram, err := compile(programs.Feedback)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	sceneProgram, err := compile(programs.Scene)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	postProgram, err := compile(programs.Post)
	if err != nil {
		s.Destroy()
		return nil, err
	}

	clearTransparent, clearBlack := transparent, opaqueBlack

	s.feedback, err = NewRenderPass(PassConfig{
		Name:     "feedback",
		Program:  feedbackProgram,
		Geometry: s.quad,
		Bindings: map[string]Binding{
			shader.UniformPrevious:     Previous(),
			shader.UniformTexture:      Previous(),
			shader.UniformTime:         Time(),
			shader.UniformResolution:   Resolution(),
			shader.UniformRGBPersist:   Tunable(func(f *FrameState) any { return f.Settings.RGBPersist }),
			shader.UniformAlphaPersist: Tunable(func(f *FrameState) any { return f.Settings.AlphaPersist }),
			shader.UniformNoiseFactor:  Tunable(func(f *FrameState) any { return f.Settings.NoiseFactor }),
			shader.UniformNoiseScale:   Tunable(func(f *FrameState) any { return f.Settings.NoiseScale }),
		},
		Destination: ToCurrent,
		Blend:       gpu.BlendNone,
		Clear:       &clearTransparent,
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}

	s.scene, err = NewRenderPass(PassConfig{
		Name:     "scene",
		Program:  sceneProgram,
		Geometry: s.plane,
		Bindings: map[string]Binding{
			shader.UniformTexture:    StaticTexture(label),
			shader.UniformPrevious:   Previous(),
			shader.UniformTime:       Time(),
			shader.UniformResolution: Resolution(),
			shader.UniformColor:      Tunable(func(f *FrameState) any { return f.Color }),
			shader.UniformLight:      Tunable(func(f *FrameState) any { return f.Light }),
		},
		Destination: ToCurrent,
		Blend:       blend,
		Model: func(f *FrameState) mgl32.Mat4 {
			return mgl32.Translate3D(0, f.Settings.YPosition, 0).Mul4(mgl32.HomogRotate3DY(f.Rotation))
		},
		Enabled: func(f *FrameState) bool { return f.Settings.Visible },
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}

	s.post, err = NewRenderPass(PassConfig{
		Name:     "post",
		Program:  postProgram,
		Geometry: s.quad,
		Bindings: map[string]Binding{
			shader.UniformCurrent:    Current(),
			shader.UniformTexture:    Current(),
			shader.UniformTime:       Time(),
			shader.UniformResolution: Resolution(),
			shader.UniformMouse:      Pointer(),
			shader.UniformIntensity:  Tunable(func(f *FrameState) any { return f.Settings.PostIntensity }),
		},
		Destination: ToScreen,
		Blend:       gpu.BlendNone,
		Clear:       &clearBlack,
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}

	s.passes = []*RenderPass{s.feedback, s.scene, s.post}
	return s, nil
}

func planeSide(width, height int) float32 {
	return float32(max(width, height))
}

// Passes returns the passes in execution order.
func (s *Scene) Passes() []*RenderPass { return s.passes }

// SetSceneBlend changes how the scene pass composites over the feedback
// pixels. Call it between ticks.
func (s *Scene) SetSceneBlend(b gpu.Blend) { s.scene.blend = b }

// Execute runs every pass in order. It stops at the first failing pass; the
// caller still swaps the pool.
func (s *Scene) Execute(dev gpu.Device, f *FrameState, camera *Camera) error {
	vp := camera.ViewProjection()
	for _, pass := range s.passes {
		if err := pass.Execute(dev, f, vp); err != nil {
			return err
		}
	}
	return nil
}

// Resize regenerates the viewport-derived geometry.
func (s *Scene) Resize(width, height int) {
	s.quad.SetPlane(float32(width), float32(height))
	side := planeSide(width, height)
	s.plane.SetPlane(side, side)
	s.logger.Debug("Scene geometry resized", zap.Int("width", width), zap.Int("height", height))
}

// Destroy releases the programs.
func (s *Scene) Destroy() {
	if s == nil {
		return
	}
	for _, p := range s.programs {
		p.Destroy()
	}
	s.programs = nil
}
