package opengl

import (
	"fmt"
	"strings"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
	xlate "github.com/richinsley/feedbacktoy/translator"
)

const vertexShaderSource = `#version 300 es
layout (location = 0) in vec3 in_pos;
layout (location = 1) in vec2 in_uv;
uniform mat4 u_mvp;
out vec2 frag_uv;
void main() {
    frag_uv = in_uv;
    gl_Position = u_mvp * vec4(in_pos, 1.0);
}
`

type program struct {
	src       *gpu.ProgramSource
	id        uint32
	names     map[string]string
	locations map[string]int32
}

func (p *program) Source() *gpu.ProgramSource { return p.src }

func (p *program) Destroy() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
}

// location resolves a uniform through the translator's name mapping and caches
// the result; -1 means the uniform was optimized out or never declared.
func (p *program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	mapped := name
	if m, ok := p.names[name]; ok {
		mapped = m
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(mapped+"\x00"))
	p.locations[name] = loc
	return loc
}

func (d *Device) NewProgram(src *gpu.ProgramSource) (gpu.Program, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if src.Fragment == "" {
		return nil, fmt.Errorf("program %s has no GLSL fragment source", src.Name)
	}
	vs, err := xlate.Translate(vertexShaderSource, "vertex", d.gles)
	if err != nil {
		return nil, err
	}
	fs, err := xlate.Translate(src.Fragment, "fragment", d.gles)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", src.Name, err)
	}
	id, err := newProgram(vs.Code, fs.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program %s: %w", src.Name, err)
	}
	names := make(map[string]string, len(vs.Names)+len(fs.Names))
	for k, v := range vs.Names {
		names[k] = v
	}
	for k, v := range fs.Names {
		names[k] = v
	}
	return &program{
		src:       src,
		id:        id,
		names:     names,
		locations: make(map[string]int32),
	}, nil
}

func (d *Device) setUniforms(p *program, uniforms gpu.Uniforms, mvp mgl32.Mat4) (units int, err error) {
	if loc := p.location(gpu.MVPUniform); loc != -1 {
		gl.UniformMatrix4fv(loc, 1, false, &mvp[0])
	}
	for name, value := range uniforms {
		loc := p.location(name)
		if loc == -1 {
			continue
		}
		switch v := value.(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case int32:
			gl.Uniform1i(loc, v)
		case mgl32.Vec2:
			gl.Uniform2f(loc, v[0], v[1])
		case mgl32.Vec3:
			gl.Uniform3f(loc, v[0], v[1], v[2])
		case mgl32.Vec4:
			gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
		case mgl32.Mat4:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		case gpu.Texture:
			id, ok := textureID(v)
			if !ok {
				return units, fmt.Errorf("uniform %s: texture was not created by the GL device", name)
			}
			gl.ActiveTexture(gl.TEXTURE0 + uint32(units))
			gl.BindTexture(gl.TEXTURE_2D, id)
			gl.Uniform1i(loc, int32(units))
			units++
		default:
			return units, fmt.Errorf("uniform %s: unsupported value type %T", name, value)
		}
	}
	return units, nil
}

func unbindTextures(units int) {
	for i := 0; i < units; i++ {
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return shader, nil
}
