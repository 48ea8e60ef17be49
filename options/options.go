package options

import (
	"flag"
	"fmt"
)

// Options holds the command-line settings. Fields are pointers filled in by
// the flag package.
type Options struct {
	Help          *bool
	Backend       *string // "gl" or "soft"
	Mode          *string // "window" or "record"
	Duration      *float64
	FPS           *int
	Width         *int
	Height        *int
	OutputFile    *string
	FFMPEGPath    *string
	Codec         *string
	Label         *string
	SettingsFile  *string
	WatchSettings *bool
	Verbose       *bool
}

// Register defines every flag on fs and returns the options they fill.
func Register(fs *flag.FlagSet) *Options {
	return &Options{
		Help:          fs.Bool("help", false, "Show help message"),
		Backend:       fs.String("backend", "gl", "Rendering backend: gl (window) or soft (CPU, headless)"),
		Mode:          fs.String("mode", "window", "Run mode: window or record"),
		Duration:      fs.Float64("duration", 10.0, "Duration to record in seconds"),
		FPS:           fs.Int("fps", 60, "Frames per second for recording"),
		Width:         fs.Int("width", 1280, "Width of the output"),
		Height:        fs.Int("height", 720, "Height of the output"),
		OutputFile:    fs.String("output", "output.mp4", "Output file name for recording"),
		FFMPEGPath:    fs.String("ffmpeg", "", "Path to ffmpeg executable"),
		Codec:         fs.String("codec", "h264", "Video codec for recording: h264 or hevc"),
		Label:         fs.String("label", "hehe", "Text drawn on the scene plane"),
		SettingsFile:  fs.String("settings", "", "YAML settings file"),
		WatchSettings: fs.Bool("watch", false, "Reload the settings file when it changes"),
		Verbose:       fs.Bool("verbose", false, "Enable debug logging"),
	}
}

// Validate checks option combinations.
func (o *Options) Validate() error {
	switch *o.Backend {
	case "gl", "soft":
	default:
		return fmt.Errorf("unknown backend %q", *o.Backend)
	}
	switch *o.Mode {
	case "window", "record":
	default:
		return fmt.Errorf("unknown mode %q", *o.Mode)
	}
	if *o.Width <= 0 || *o.Height <= 0 {
		return fmt.Errorf("invalid size %dx%d", *o.Width, *o.Height)
	}
	if *o.Mode == "record" {
		if *o.FPS <= 0 {
			return fmt.Errorf("invalid fps %d", *o.FPS)
		}
		if *o.Duration <= 0 {
			return fmt.Errorf("invalid duration %v", *o.Duration)
		}
	}
	if *o.WatchSettings && *o.SettingsFile == "" {
		return fmt.Errorf("-watch needs -settings")
	}
	return nil
}

// Frames returns the number of frames a recording of Duration at FPS holds.
func (o *Options) Frames() uint64 {
	n := *o.Duration * float64(*o.FPS)
	if n < 1 {
		return 1
	}
	return uint64(n + 0.5)
}
