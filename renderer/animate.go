package renderer

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/panel"
)

// Smooth moves value toward target by the fraction delta. It is a first-order
// step: delta 1 lands on target, delta 0 leaves value alone, and deltas above 1
// overshoot.
func Smooth(value, target, delta float32) float32 {
	return value + (target-value)*delta
}

// SmoothVec3 applies Smooth per component.
func SmoothVec3(value, target mgl32.Vec3, delta float32) mgl32.Vec3 {
	return mgl32.Vec3{
		Smooth(value[0], target[0], delta),
		Smooth(value[1], target[1], delta),
		Smooth(value[2], target[2], delta),
	}
}

// EaseOut is the quadratic ease-out curve on [0,1].
func EaseOut(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	return 1 - (1-t)*(1-t)
}

// Tween interpolates a value from one point to another over a duration,
// advanced by clock deltas.
type Tween struct {
	from, to float64
	duration float64
	elapsed  float64
	active   bool
}

// Start begins a tween from from to to. Starting while a tween is running
// replaces it, so callers pass the value it had reached as from.
func (t *Tween) Start(from, to, duration float64) {
	t.from, t.to = from, to
	t.duration = duration
	t.elapsed = 0
	t.active = true
}

// Active reports whether the tween still has time left.
func (t *Tween) Active() bool { return t.active }

// Step advances by delta seconds and returns the new value. A finished tween
// returns its end value.
func (t *Tween) Step(delta float64) float64 {
	if !t.active {
		return t.to
	}
	t.elapsed += delta
	if t.duration <= 0 || t.elapsed >= t.duration {
		t.active = false
		return t.to
	}
	return t.from + (t.to-t.from)*EaseOut(t.elapsed/t.duration)
}

// lightDirection points from the plane toward the directional light at (5,5,5).
var lightDirection = mgl32.Vec3{5, 5, 5}.Normalize()

// Lighting returns the combined light tint for a plane rotated by rotation
// radians about y. Both faces are lit, so the facing term is |n·l|.
func Lighting(s *panel.Settings, rotation float32) mgl32.Vec3 {
	ambient, err := panel.ParseHexColor(s.AmbientLightColor)
	if err != nil {
		ambient = mgl32.Vec3{1, 1, 1}
	}
	ambient = ambient.Mul(s.AmbientLightIntensity)

	sin, cos := math.Sincos(float64(rotation))
	normal := mgl32.Vec3{float32(sin), 0, float32(cos)}
	facing := float32(math.Abs(float64(normal.Dot(lightDirection))))
	d := s.DirectionalLightIntensity * facing
	return ambient.Add(mgl32.Vec3{d, d, d})
}

// randomColor picks a uniformly random rgb color.
func randomColor(rng *rand.Rand) mgl32.Vec3 {
	return mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}
}
