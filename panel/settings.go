// Package panel is the control surface of the renderer: the tunable settings,
// the event queue that carries trigger actions into the render loop, and an
// optional file watcher that reloads settings from YAML.
package panel

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
	"gopkg.in/yaml.v3"
)

// Limits of the bounded tunables.
const (
	MinYPosition        = -2.0
	MaxYPosition        = 2.0
	MaxAmbientIntensity = 10.0
)

// Settings holds every tunable of the pipeline. The renderer owns one value;
// changes reach it through the Queue and apply at the start of a tick.
type Settings struct {
	Color                     string  `yaml:"color"`
	AmbientLightColor         string  `yaml:"ambient_light_color"`
	AmbientLightIntensity     float32 `yaml:"ambient_light_intensity"`
	DirectionalLightIntensity float32 `yaml:"directional_light_intensity"`
	YPosition                 float32 `yaml:"y_position"`
	Visible                   bool    `yaml:"visible"`

	PostIntensity float32 `yaml:"post_intensity"`

	RGBPersist   float32 `yaml:"rgb_persist"`
	AlphaPersist float32 `yaml:"alpha_persist"`
	NoiseFactor  float32 `yaml:"noise_factor"`
	NoiseScale   float32 `yaml:"noise_scale"`

	// RetargetInterval is the number of seconds between random color targets.
	// Zero disables retargeting.
	RetargetInterval float64 `yaml:"retarget_interval"`
	// SceneBlend is "alpha" or "additive".
	SceneBlend string `yaml:"scene_blend"`
}

// DefaultSettings returns the settings the renderer starts with.
func DefaultSettings() Settings {
	return Settings{
		Color:                     "#362cb7",
		AmbientLightColor:         "#ffffff",
		AmbientLightIntensity:     0.5,
		DirectionalLightIntensity: 2,
		YPosition:                 0,
		Visible:                   true,
		PostIntensity:             1,
		RGBPersist:                0.98,
		AlphaPersist:              0.97,
		NoiseFactor:               1,
		NoiseScale:                0.0032,
		RetargetInterval:          3,
		SceneBlend:                "alpha",
	}
}

// Validate clamps bounded values into range and rejects values that cannot be
// used at all.
func (s *Settings) Validate() error {
	var errs []error
	if _, err := ParseHexColor(s.Color); err != nil {
		errs = append(errs, fmt.Errorf("color: %w", err))
	}
	if _, err := ParseHexColor(s.AmbientLightColor); err != nil {
		errs = append(errs, fmt.Errorf("ambient_light_color: %w", err))
	}
	if _, err := s.Blend(); err != nil {
		errs = append(errs, err)
	}
	if s.RetargetInterval < 0 {
		errs = append(errs, fmt.Errorf("retarget_interval must not be negative, got %v", s.RetargetInterval))
	}
	s.YPosition = mgl32.Clamp(s.YPosition, MinYPosition, MaxYPosition)
	s.AmbientLightIntensity = mgl32.Clamp(s.AmbientLightIntensity, 0, MaxAmbientIntensity)
	s.RGBPersist = mgl32.Clamp(s.RGBPersist, 0, 1)
	s.AlphaPersist = mgl32.Clamp(s.AlphaPersist, 0, 1)
	return errors.Join(errs...)
}

// Blend maps SceneBlend to a blend mode; empty means alpha.
func (s *Settings) Blend() (gpu.Blend, error) {
	switch strings.ToLower(s.SceneBlend) {
	case "", "alpha":
		return gpu.BlendAlpha, nil
	case "additive":
		return gpu.BlendAdditive, nil
	default:
		return gpu.BlendNone, fmt.Errorf("unknown scene_blend %q", s.SceneBlend)
	}
}

// ParseHexColor parses "#rrggbb" (the leading # is optional) into linear
// 0..1 components.
func ParseHexColor(s string) (mgl32.Vec3, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return mgl32.Vec3{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return mgl32.Vec3{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return mgl32.Vec3{
		float32(v>>16&0xff) / 255,
		float32(v>>8&0xff) / 255,
		float32(v&0xff) / 255,
	}, nil
}

// FormatHexColor is the inverse of ParseHexColor, clamping components.
func FormatHexColor(c mgl32.Vec3) string {
	b := func(v float32) int { return int(mgl32.Clamp(v, 0, 1)*255 + 0.5) }
	return fmt.Sprintf("#%02x%02x%02x", b(c[0]), b(c[1]), b(c[2]))
}

// Parse decodes YAML over the defaults, so a file only needs the keys it
// changes.
func Parse(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// Load reads a settings file.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
