package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// FragmentInput is what a software fragment function sees for one pixel.
type FragmentInput struct {
	// UV is the interpolated texture coordinate, origin bottom-left.
	UV mgl32.Vec2
	// FragCoord is the pixel center in window coordinates, origin bottom-left.
	FragCoord mgl32.Vec2
	// Resolution is the destination size in pixels.
	Resolution mgl32.Vec2
	Uniforms   Uniforms
	// Sample reads a texture with bilinear filtering and clamp-to-edge wrap.
	Sample func(tex Texture, uv mgl32.Vec2) mgl32.Vec4
}

// FragmentFunc is the software rendition of a fragment shader.
type FragmentFunc func(in *FragmentInput) mgl32.Vec4

// ProgramSource describes a shader program for both devices. Fragment is GLSL
// ES 3.00 source compiled by the GL device; Shade is its Go equivalent run by
// the software device. Uniforms lists the uniform names the program reads,
// which every pass using it must bind.
type ProgramSource struct {
	Name     string
	Fragment string
	Shade    FragmentFunc
	Uniforms []string
}

// Validate checks that the source is usable by at least one device.
func (p *ProgramSource) Validate() error {
	if p == nil {
		return fmt.Errorf("program source is nil")
	}
	if p.Name == "" {
		return fmt.Errorf("program source has no name")
	}
	if p.Fragment == "" && p.Shade == nil {
		return fmt.Errorf("program %s has neither GLSL nor Go fragment", p.Name)
	}
	return nil
}

// Uniforms maps uniform names to values. Supported value types are float32,
// int32, mgl32.Vec2, mgl32.Vec3, mgl32.Vec4, mgl32.Mat4 and Texture.
type Uniforms map[string]any

// Float returns the named float uniform, or 0.
func (u Uniforms) Float(name string) float32 {
	v, _ := u[name].(float32)
	return v
}

// Vec2 returns the named vec2 uniform, or the zero vector.
func (u Uniforms) Vec2(name string) mgl32.Vec2 {
	v, _ := u[name].(mgl32.Vec2)
	return v
}

// Vec3 returns the named vec3 uniform, or the zero vector.
func (u Uniforms) Vec3(name string) mgl32.Vec3 {
	v, _ := u[name].(mgl32.Vec3)
	return v
}

// Vec4 returns the named vec4 uniform, or the zero vector.
func (u Uniforms) Vec4(name string) mgl32.Vec4 {
	v, _ := u[name].(mgl32.Vec4)
	return v
}

// Texture returns the named sampler uniform, or nil.
func (u Uniforms) Texture(name string) Texture {
	v, _ := u[name].(Texture)
	return v
}
