// Package renderer runs the feedback trail pipeline: a fixed frame graph over
// a ping-pong pair of render targets, driven one tick at a time.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/clock"
	"github.com/richinsley/feedbacktoy/gpu"
	"github.com/richinsley/feedbacktoy/inputs"
	"github.com/richinsley/feedbacktoy/panel"
	"go.uber.org/zap"
)

// spinDuration is how long one spin takes, in seconds.
const spinDuration = 1.0

// PointerSource supplies the normalized pointer position.
type PointerSource interface {
	Get() (x, y float32)
}

// PointerFunc adapts a function such as graphics.Context.Pointer to a
// PointerSource.
type PointerFunc func() (x, y float32)

func (f PointerFunc) Get() (float32, float32) { return f() }

// Config collects what a Renderer needs. Device, Width and Height are
// required; everything else has a default.
type Config struct {
	Device gpu.Device
	Width  int
	Height int

	// Label is the scene texture. Nil uses a 1x1 opaque white image.
	Label    image.Image
	Settings *panel.Settings
	Programs Programs

	Clock   *clock.Clock
	Pointer PointerSource
	Queue   *panel.Queue
	Rand    *rand.Rand
	Logger  *zap.Logger
}

// Renderer owns the target pool, the frame graph and all per-tick state.
// RenderFrame, Resize and Shutdown run on the render goroutine;
// RequestResize and the queue may be used from anywhere.
type Renderer struct {
	dev    gpu.Device
	logger *zap.Logger

	pool   *inputs.Buffer
	camera *Camera
	scene  *Scene
	label  inputs.IChannel

	clock   *clock.Clock
	pointer PointerSource
	queue   *panel.Queue
	rng     *rand.Rand

	settings      panel.Settings
	color         mgl32.Vec3
	colorTarget   mgl32.Vec3
	sinceRetarget float64
	spin          Tween
	rotation      float32

	resizeMu      sync.Mutex
	pendingResize *[2]int

	frames uint64
}

var _ PointerSource = (*inputs.Pointer)(nil)

// New creates the pool, uploads the label and builds the frame graph.
func New(cfg Config) (*Renderer, error) {
	if cfg.Device == nil {
		return nil, fmt.Errorf("renderer needs a device")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", gpu.ErrInvalidSize, cfg.Width, cfg.Height)
	}

	r := &Renderer{
		dev:     cfg.Device,
		logger:  cfg.Logger,
		clock:   cfg.Clock,
		pointer: cfg.Pointer,
		queue:   cfg.Queue,
		rng:     cfg.Rand,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.clock == nil {
		r.clock = clock.New(nil)
	}
	if r.pointer == nil {
		r.pointer = &inputs.Pointer{}
	}
	if r.queue == nil {
		r.queue = &panel.Queue{}
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	r.settings = panel.DefaultSettings()
	if cfg.Settings != nil {
		r.settings = *cfg.Settings
	}
	if err := r.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	start, _ := panel.ParseHexColor(r.settings.Color)
	r.color, r.colorTarget = start, start
	blend, _ := r.settings.Blend()

	label := cfg.Label
	if label == nil {
		img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
		img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		label = img
	}

	var err error
	r.dev.ResizeScreen(cfg.Width, cfg.Height)
	r.pool, err = inputs.NewBuffer(r.dev, cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to create target pool: %w", err)
	}
	r.label, err = inputs.NewImageChannel(r.dev, label)
	if err != nil {
		r.pool.Destroy()
		return nil, fmt.Errorf("failed to create label texture: %w", err)
	}
	r.camera = NewCamera(cfg.Width, cfg.Height)
	r.scene, err = NewScene(r.dev, r.logger, cfg.Programs, r.label.Texture(), blend, cfg.Width, cfg.Height)
	if err != nil {
		r.label.Destroy()
		r.pool.Destroy()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	labelRes := r.label.ChannelRes()
	r.logger.Info("Renderer created",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Float32s("label", labelRes[:2]),
		zap.Stringer("sceneBlend", blend))
	return r, nil
}

// RequestResize records a new viewport size to apply at the start of the next
// tick. The last request before a tick wins.
func (r *Renderer) RequestResize(width, height int) {
	r.resizeMu.Lock()
	r.pendingResize = &[2]int{width, height}
	r.resizeMu.Unlock()
}

// Resize updates the screen, the pool, the camera and the viewport geometry.
// It must run between ticks. Repeating the current size changes nothing.
func (r *Renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", gpu.ErrInvalidSize, width, height)
	}
	if err := r.pool.Resize(width, height); err != nil {
		return fmt.Errorf("failed to resize target pool: %w", err)
	}
	r.dev.ResizeScreen(width, height)
	r.camera.SetViewport(width, height)
	r.scene.Resize(width, height)
	return nil
}

func (r *Renderer) applyPendingResize() {
	r.resizeMu.Lock()
	pending := r.pendingResize
	r.pendingResize = nil
	r.resizeMu.Unlock()
	if pending == nil {
		return
	}
	if err := r.Resize(pending[0], pending[1]); err != nil {
		r.logger.Warn("Ignoring resize", zap.Error(err))
		return
	}
	r.logger.Debug("Resized", zap.Int("width", pending[0]), zap.Int("height", pending[1]))
}

func (r *Renderer) applyEvents() {
	for _, e := range r.queue.Drain() {
		switch e.Kind {
		case panel.ApplySettings:
			s := e.Settings
			if err := s.Validate(); err != nil {
				r.logger.Warn("Ignoring invalid settings", zap.Error(err))
				continue
			}
			if s.Color != r.settings.Color {
				if c, err := panel.ParseHexColor(s.Color); err == nil {
					r.colorTarget = c
				}
			}
			r.settings = s
			b, _ := s.Blend()
			r.scene.SetSceneBlend(b)
		case panel.Spin:
			from := float64(r.rotation)
			r.spin.Start(from, from+2*math.Pi, spinDuration)
		case panel.ToggleVisibility:
			r.settings.Visible = !r.settings.Visible
		case panel.RetargetColor:
			r.retarget()
		}
		r.logger.Debug("Panel event applied", zap.Stringer("kind", e.Kind))
	}
}

func (r *Renderer) retarget() {
	r.colorTarget = randomColor(r.rng)
	r.sinceRetarget = 0
}

// animate advances the color and spin state by delta seconds.
func (r *Renderer) animate(delta float64) {
	if interval := r.settings.RetargetInterval; interval > 0 {
		r.sinceRetarget += delta
		if r.sinceRetarget >= interval {
			r.retarget()
		}
	}
	r.color = SmoothVec3(r.color, r.colorTarget, float32(delta))
	if r.spin.Active() {
		r.rotation = float32(r.spin.Step(delta))
	}
}

// RenderFrame runs one tick: pending resize and panel events, clock, state
// update, the frame graph, then the swap. The swap happens even when a pass
// fails, so the roles still flip exactly once per tick.
func (r *Renderer) RenderFrame() error {
	r.applyPendingResize()
	r.applyEvents()

	elapsed, delta := r.clock.Tick()
	r.animate(delta)

	px, py := r.pointer.Get()
	frame := &FrameState{
		Elapsed:  elapsed,
		Delta:    delta,
		Pointer:  mgl32.Vec2{px, py},
		Previous: r.pool.Previous(),
		Current:  r.pool.Current(),
		Settings: &r.settings,
		Color:    r.color,
		Light:    Lighting(&r.settings, r.rotation),
		Rotation: r.rotation,
	}

	err := r.scene.Execute(r.dev, frame, r.camera)
	r.pool.SwapBuffers()
	r.frames++
	if err != nil {
		return fmt.Errorf("frame %d: %w", r.frames, err)
	}
	return nil
}

// Pool returns the target pool.
func (r *Renderer) Pool() *inputs.Buffer { return r.pool }

// Queue returns the panel queue the renderer drains.
func (r *Renderer) Queue() *panel.Queue { return r.queue }

// Camera returns the camera.
func (r *Renderer) Camera() *Camera { return r.camera }

// Scene returns the frame graph.
func (r *Renderer) Scene() *Scene { return r.scene }

// Settings returns a copy of the current settings.
func (r *Renderer) Settings() panel.Settings { return r.settings }

// Color returns the smoothed persist color.
func (r *Renderer) Color() mgl32.Vec3 { return r.color }

// ColorTarget returns the color the persist color is moving toward.
func (r *Renderer) ColorTarget() mgl32.Vec3 { return r.colorTarget }

// Rotation returns the plane's rotation about y in radians.
func (r *Renderer) Rotation() float32 { return r.rotation }

// Frames returns the number of ticks run.
func (r *Renderer) Frames() uint64 { return r.frames }

// Shutdown releases every resource the renderer created. The device is left
// to its owner.
func (r *Renderer) Shutdown() {
	r.scene.Destroy()
	r.label.Destroy()
	r.pool.Destroy()
	r.logger.Info("Renderer shut down", zap.Uint64("frames", r.frames))
}
