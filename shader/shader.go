// Package shader holds the built-in programs of the trail pipeline. Each one
// ships as GLSL ES 3.00 for the GL device and as an equivalent Go fragment
// function for the software device; the two are kept in step by hand.
package shader

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
)

// Uniform names shared by the built-in programs.
const (
	UniformPrevious     = "u_previous"
	UniformCurrent      = "u_current"
	UniformTexture      = "u_texture"
	UniformTime         = "u_time"
	UniformResolution   = "u_resolution"
	UniformRGBPersist   = "u_rgbPersist"
	UniformAlphaPersist = "u_alphaPersist"
	UniformNoiseFactor  = "u_noiseFactor"
	UniformNoiseScale   = "u_noiseScale"
	UniformColor        = "u_color"
	UniformLight        = "u_light"
	UniformMouse        = "u_mouse"
	UniformIntensity    = "u_intensity"
)

const tau = 2 * math.Pi

// ────────────────────────────────── Feedback ──────────────────────────────────

const feedbackFragmentSource = `#version 300 es
precision highp float;

in vec2 frag_uv;
out vec4 fragColor;

uniform sampler2D u_previous;
uniform float u_time;
uniform float u_rgbPersist;
uniform float u_alphaPersist;
uniform float u_noiseFactor;
uniform float u_noiseScale;
uniform vec2  u_resolution;

const float TAU = 6.28318530718;

void main() {
    vec2 p = frag_uv * u_resolution * u_noiseScale;
    float n1 = sin(p.x * TAU + u_time) * cos(p.y * TAU - 0.7 * u_time);
    float n2 = cos(p.x * TAU * 1.3 - 0.9 * u_time) * sin(p.y * TAU * 0.8 + u_time);
    vec2 offset = vec2(n1, n2) * u_noiseFactor / u_resolution;
    vec4 prev = texture(u_previous, frag_uv + offset);
    fragColor = vec4(prev.rgb * u_rgbPersist, prev.a * u_alphaPersist);
}
`

// FeedbackOffset is the noise displacement, in uv units, applied when the
// feedback pass samples the previous frame at uv.
func FeedbackOffset(uv, resolution mgl32.Vec2, t, factor, scale float32) mgl32.Vec2 {
	if resolution[0] == 0 || resolution[1] == 0 {
		return mgl32.Vec2{}
	}
	px := float64(uv[0] * resolution[0] * scale)
	py := float64(uv[1] * resolution[1] * scale)
	tt := float64(t)
	n1 := math.Sin(px*tau+tt) * math.Cos(py*tau-0.7*tt)
	n2 := math.Cos(px*tau*1.3-0.9*tt) * math.Sin(py*tau*0.8+tt)
	return mgl32.Vec2{
		float32(n1) * factor / resolution[0],
		float32(n2) * factor / resolution[1],
	}
}

func shadeFeedback(in *gpu.FragmentInput) mgl32.Vec4 {
	u := in.Uniforms
	res := u.Vec2(UniformResolution)
	offset := FeedbackOffset(in.UV, res, u.Float(UniformTime), u.Float(UniformNoiseFactor), u.Float(UniformNoiseScale))
	prev := in.Sample(u.Texture(UniformPrevious), in.UV.Add(offset))
	rgb := u.Float(UniformRGBPersist)
	return mgl32.Vec4{prev[0] * rgb, prev[1] * rgb, prev[2] * rgb, prev[3] * u.Float(UniformAlphaPersist)}
}

// Feedback decays the previous frame and drifts it along a slow noise field.
func Feedback() *gpu.ProgramSource {
	return &gpu.ProgramSource{
		Name:     "feedback",
		Fragment: feedbackFragmentSource,
		Shade:    shadeFeedback,
		Uniforms: []string{
			UniformPrevious, UniformTime, UniformRGBPersist, UniformAlphaPersist,
			UniformNoiseFactor, UniformNoiseScale, UniformResolution,
		},
	}
}

// ─────────────────────────────────── Scene ───────────────────────────────────

const sceneFragmentSource = `#version 300 es
precision highp float;

in vec2 frag_uv;
out vec4 fragColor;

uniform sampler2D u_texture;
uniform vec3 u_color;
uniform vec3 u_light;

void main() {
    vec4 tex = texture(u_texture, frag_uv);
    fragColor = vec4(tex.rgb * u_color * u_light, tex.a);
}
`

func shadeScene(in *gpu.FragmentInput) mgl32.Vec4 {
	u := in.Uniforms
	tex := in.Sample(u.Texture(UniformTexture), in.UV)
	c, l := u.Vec3(UniformColor), u.Vec3(UniformLight)
	return mgl32.Vec4{tex[0] * c[0] * l[0], tex[1] * c[1] * l[1], tex[2] * c[2] * l[2], tex[3]}
}

// Scene tints the label texture with the persist color and the light
// contribution computed on the CPU.
func Scene() *gpu.ProgramSource {
	return &gpu.ProgramSource{
		Name:     "scene",
		Fragment: sceneFragmentSource,
		Shade:    shadeScene,
		Uniforms: []string{UniformTexture, UniformColor, UniformLight},
	}
}

// ──────────────────────────────────── Post ────────────────────────────────────

const postFragmentSource = `#version 300 es
precision highp float;

in vec2 frag_uv;
out vec4 fragColor;

uniform sampler2D u_current;
uniform float u_time;
uniform vec2  u_mouse;
uniform float u_intensity;
uniform vec2  u_resolution;

void main() {
    vec2 d = frag_uv - (u_mouse * 0.5 + 0.5);
    d.x *= u_resolution.x / u_resolution.y;
    float dist = length(d);
    vec2 dir = dist > 0.0 ? d / dist : vec2(0.0);
    float wave = sin(dist * 40.0 - u_time * 4.0) * exp(-dist * 6.0);
    vec4 c = texture(u_current, frag_uv + dir * wave * 0.01 * u_intensity);
    fragColor = vec4(c.rgb, 1.0);
}
`

// RippleOffset is the uv displacement of the pointer ripple at uv. It is zero
// everywhere when intensity is zero.
func RippleOffset(uv, mouse, resolution mgl32.Vec2, t, intensity float32) mgl32.Vec2 {
	if intensity == 0 || resolution[1] == 0 {
		return mgl32.Vec2{}
	}
	dx := uv[0] - (mouse[0]*0.5 + 0.5)
	dy := uv[1] - (mouse[1]*0.5 + 0.5)
	dx *= resolution[0] / resolution[1]
	dist := float32(math.Hypot(float64(dx), float64(dy)))
	if dist == 0 {
		return mgl32.Vec2{}
	}
	wave := float32(math.Sin(float64(dist*40-t*4)) * math.Exp(float64(-dist*6)))
	k := wave * 0.01 * intensity / dist
	return mgl32.Vec2{dx * k, dy * k}
}

func shadePost(in *gpu.FragmentInput) mgl32.Vec4 {
	u := in.Uniforms
	offset := RippleOffset(in.UV, u.Vec2(UniformMouse), u.Vec2(UniformResolution), u.Float(UniformTime), u.Float(UniformIntensity))
	c := in.Sample(u.Texture(UniformCurrent), in.UV.Add(offset))
	return mgl32.Vec4{c[0], c[1], c[2], 1}
}

// Post presents the current target on screen with a ripple centered on the
// pointer.
func Post() *gpu.ProgramSource {
	return &gpu.ProgramSource{
		Name:     "post",
		Fragment: postFragmentSource,
		Shade:    shadePost,
		Uniforms: []string{UniformCurrent, UniformTime, UniformMouse, UniformIntensity, UniformResolution},
	}
}

// ────────────────────────────────── Identity ──────────────────────────────────

const identityFragmentSource = `#version 300 es
precision mediump float;
in vec2 frag_uv;
out vec4 fragColor;
uniform sampler2D u_texture;
void main() { fragColor = texture(u_texture, frag_uv); }
`

func shadeIdentity(in *gpu.FragmentInput) mgl32.Vec4 {
	return in.Sample(in.Uniforms.Texture(UniformTexture), in.UV)
}

// Identity copies u_texture unchanged.
func Identity() *gpu.ProgramSource {
	return &gpu.ProgramSource{
		Name:     "identity",
		Fragment: identityFragmentSource,
		Shade:    shadeIdentity,
		Uniforms: []string{UniformTexture},
	}
}
