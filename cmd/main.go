package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	glfw "github.com/go-gl/glfw/v3.3/glfw"
	"github.com/richinsley/feedbacktoy/assets"
	"github.com/richinsley/feedbacktoy/clock"
	"github.com/richinsley/feedbacktoy/encoder"
	"github.com/richinsley/feedbacktoy/glfwcontext"
	"github.com/richinsley/feedbacktoy/gpu"
	"github.com/richinsley/feedbacktoy/gpu/opengl"
	"github.com/richinsley/feedbacktoy/gpu/soft"
	"github.com/richinsley/feedbacktoy/graphics"
	"github.com/richinsley/feedbacktoy/headless"
	"github.com/richinsley/feedbacktoy/options"
	"github.com/richinsley/feedbacktoy/panel"
	"github.com/richinsley/feedbacktoy/renderer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func init() {
	runtime.LockOSThread()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// surfaceAndDevice creates the presentation surface and the matching device.
// The returned cleanup tears both down in reverse order.
func surfaceAndDevice(o *options.Options, frames uint64, logger *zap.Logger) (graphics.Context, gpu.Device, func(), error) {
	if *o.Backend == "soft" {
		surface := headless.New(*o.Width, *o.Height, frames)
		dev, err := soft.New(*o.Width, *o.Height)
		if err != nil {
			return nil, nil, nil, err
		}
		return surface, dev, func() { dev.Destroy() }, nil
	}

	if err := glfwcontext.InitGraphics(logger); err != nil {
		return nil, nil, nil, err
	}
	win, err := glfwcontext.New(*o.Width, *o.Height, "feedbacktoy", logger)
	if err != nil {
		glfwcontext.TerminateGraphics(logger)
		return nil, nil, nil, err
	}
	win.MakeCurrent()
	fbw, fbh := win.GetFramebufferSize()
	dev, err := opengl.New(fbw, fbh, false)
	if err != nil {
		win.Shutdown()
		glfwcontext.TerminateGraphics(logger)
		return nil, nil, nil, err
	}
	cleanup := func() {
		dev.Destroy()
		win.Shutdown()
		glfwcontext.TerminateGraphics(logger)
	}
	return win, dev, cleanup, nil
}

// requestClose asks the surface to end the loop once the current frame ends.
func requestClose(surface graphics.Context) {
	switch s := surface.(type) {
	case *glfwcontext.Context:
		s.RequestClose()
	case *headless.Context:
		s.Close()
	}
}

func loadSettings(path string) (*panel.Settings, error) {
	if path == "" {
		s := panel.DefaultSettings()
		return &s, nil
	}
	s, err := panel.Load(path)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func run(ctx context.Context, o *options.Options, logger *zap.Logger) error {
	record := *o.Mode == "record"
	var frames uint64
	if record {
		frames = o.Frames()
	}

	settings, err := loadSettings(*o.SettingsFile)
	if err != nil {
		return err
	}

	// The CPU device samples the label per pixel, a smaller texture keeps it fast.
	labelSize, fontSize := assets.DefaultLabelSize, float64(assets.DefaultLabelFontSize)
	if *o.Backend == "soft" {
		labelSize, fontSize = labelSize/4, fontSize/4
	}
	label, err := assets.Label(*o.Label, labelSize, fontSize)
	if err != nil {
		return err
	}

	surface, dev, cleanup, err := surfaceAndDevice(o, frames, logger)
	if err != nil {
		return fmt.Errorf("failed to create surface: %w", err)
	}
	defer cleanup()

	clk := clock.New(nil)
	if record {
		clk = clock.New(clock.NewFixedStep(time.Now(), *o.FPS))
	}

	width, height := surface.GetFramebufferSize()
	r, err := renderer.New(renderer.Config{
		Device:   dev,
		Width:    width,
		Height:   height,
		Label:    label,
		Settings: settings,
		Clock:    clk,
		Pointer:  renderer.PointerFunc(surface.Pointer),
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Shutdown()
	surface.SetResizeCallback(r.RequestResize)

	if win, ok := surface.(*glfwcontext.Context); ok {
		queue := r.Queue()
		win.RegisterKeyCallback(glfw.KeySpace, func() { queue.Trigger(panel.Spin) })
		win.RegisterKeyCallback(glfw.KeyV, func() { queue.Trigger(panel.ToggleVisibility) })
		win.RegisterKeyCallback(glfw.KeyC, func() { queue.Trigger(panel.RetargetColor) })
		if path := *o.SettingsFile; path != "" {
			win.RegisterKeyCallback(glfw.KeyR, func() {
				s, err := panel.Load(path)
				if err != nil {
					logger.Warn("Ignoring settings reload", zap.Error(err))
					return
				}
				queue.Apply(s)
			})
		}
	}

	if *o.WatchSettings {
		w, err := panel.NewWatcher(logger, *o.SettingsFile, r.Queue(), 0)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		defer w.Stop()
	}

	tick := r.RenderFrame
	var rec *encoder.Recorder
	var sched *renderer.Scheduler
	if record {
		rec, err = encoder.Start(encoder.Config{
			Width:      width,
			Height:     height,
			FPS:        *o.FPS,
			OutputFile: *o.OutputFile,
			Codec:      *o.Codec,
			FFMPEGPath: *o.FFMPEGPath,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("failed to start recorder: %w", err)
		}
		// A recording has a fixed frame size, so window resizes are ignored.
		surface.SetResizeCallback(nil)
		tick = func() error {
			frameErr := r.RenderFrame()
			img, err := dev.ReadScreen()
			if err != nil {
				return errors.Join(frameErr, err)
			}
			if err := rec.WriteFrame(img); err != nil {
				sched.Stop()
				return errors.Join(frameErr, err)
			}
			if uint64(rec.Frames()) >= frames {
				requestClose(surface)
			}
			return frameErr
		}
	}

	sched = renderer.NewScheduler(surface, tick, logger)
	runErr := sched.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	if rec != nil {
		if err := rec.Close(); err != nil {
			return err
		}
		logger.Info("Recording written", zap.String("output", *o.OutputFile), zap.Int64("frames", rec.Frames()))
	}
	return runErr
}

func main() {
	fs := flag.CommandLine
	o := options.Register(fs)
	flag.Parse()

	if *o.Help {
		fmt.Println("feedbacktoy: feedback trail renderer")
		flag.PrintDefaults()
		return
	}

	logger, err := newLogger(*o.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := o.Validate(); err != nil {
		logger.Fatal("Invalid options", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, logger); err != nil {
		logger.Fatal("Run failed", zap.Error(err))
	}
}
