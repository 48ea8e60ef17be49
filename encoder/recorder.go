// Package encoder pipes rendered frames to an ffmpeg process as raw RGBA
// video and lets ffmpeg encode them into the output file.
package encoder

import (
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// ErrClosed is returned by WriteFrame after Close.
var ErrClosed = errors.New("recorder is closed")

// Config describes the recording.
type Config struct {
	Width      int
	Height     int
	FPS        int
	OutputFile string
	// Codec is "h264" (default) or "hevc".
	Codec string
	// FFMPEGPath overrides the ffmpeg binary looked up on PATH.
	FFMPEGPath string
	Logger     *zap.Logger
}

func (c *Config) validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid recording size %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid recording fps %d", c.FPS)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("no output file")
	}
	switch c.Codec {
	case "", "h264", "hevc":
	default:
		return fmt.Errorf("unsupported codec %q", c.Codec)
	}
	return nil
}

func (c *Config) getArgs() (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	inputArgs = ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", c.Width, c.Height),
		"framerate": strconv.Itoa(c.FPS),
	}
	outputArgs = ffmpeg.KwArgs{
		"pix_fmt": "yuv420p",
	}
	if c.Codec == "hevc" {
		outputArgs["c:v"] = "libx265"
	} else {
		outputArgs["c:v"] = "libx264"
	}
	return inputArgs, outputArgs
}

// stream builds the ffmpeg command reading frames from input.
func (c *Config) stream(input io.Reader) *ffmpeg.Stream {
	inputArgs, outputArgs := c.getArgs()
	cmd := ffmpeg.Input("pipe:", inputArgs).
		Output(c.OutputFile, outputArgs).
		OverWriteOutput().WithInput(input).ErrorToStdOut()
	if c.FFMPEGPath != "" {
		cmd = cmd.SetFfmpegPath(c.FFMPEGPath)
	}
	return cmd
}

// runner executes a built command; tests swap it for one that reads the pipe.
type runner func(cmd *ffmpeg.Stream, input io.Reader) error

func runFFmpeg(cmd *ffmpeg.Stream, _ io.Reader) error { return cmd.Run() }

// Recorder feeds frames to a running ffmpeg process.
type Recorder struct {
	cfg    Config
	logger *zap.Logger

	pipeWriter *io.PipeWriter
	errc       chan error

	mu     sync.Mutex
	frames int64
	closed bool
}

// Start launches ffmpeg.
func Start(cfg Config) (*Recorder, error) {
	return start(cfg, runFFmpeg)
}

func start(cfg Config, run runner) (*Recorder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pipeReader, pipeWriter := io.Pipe()
	cmd := cfg.stream(pipeReader)
	logger.Info("Starting ffmpeg",
		zap.String("output", cfg.OutputFile),
		zap.Strings("args", cmd.GetArgs()))

	r := &Recorder{
		cfg:        cfg,
		logger:     logger,
		pipeWriter: pipeWriter,
		errc:       make(chan error, 1),
	}
	go func() {
		err := run(cmd, pipeReader)
		// Unblock a writer if ffmpeg exits early.
		pipeReader.CloseWithError(errors.Join(err, io.ErrClosedPipe))
		r.errc <- err
	}()
	return r, nil
}

// WriteFrame sends one top-down RGBA frame. Its size must match the
// configured size.
func (r *Recorder) WriteFrame(img *image.RGBA) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	size := img.Rect.Size()
	if size.X != r.cfg.Width || size.Y != r.cfg.Height {
		return fmt.Errorf("frame is %dx%d, recording is %dx%d", size.X, size.Y, r.cfg.Width, r.cfg.Height)
	}
	rowSize := size.X * 4
	if img.Stride == rowSize {
		if _, err := r.pipeWriter.Write(img.Pix[:rowSize*size.Y]); err != nil {
			return fmt.Errorf("failed to write frame %d to ffmpeg: %w", r.frames, err)
		}
	} else {
		for y := 0; y < size.Y; y++ {
			if _, err := r.pipeWriter.Write(img.Pix[y*img.Stride : y*img.Stride+rowSize]); err != nil {
				return fmt.Errorf("failed to write frame %d to ffmpeg: %w", r.frames, err)
			}
		}
	}
	r.frames++
	return nil
}

// Frames returns the number of frames written.
func (r *Recorder) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close ends the input stream and waits for ffmpeg to finish.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.pipeWriter.Close()
	err := <-r.errc
	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	r.logger.Info("Recording finished", zap.Int64("frames", r.frames), zap.String("output", r.cfg.OutputFile))
	return nil
}
