package soft

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
)

type rasterizer struct {
	dst      *Texture
	mvp      mgl32.Mat4
	shade    gpu.FragmentFunc
	blend    gpu.Blend
	uniforms gpu.Uniforms
}

// subpixelBits is the fixed-point precision of projected vertices. Edge
// functions are evaluated in integers so a shared edge yields exactly negated
// values in both triangles and the fill rule sees every pixel on it.
const subpixelBits = 8

const (
	subpixel = 1 << subpixelBits
	half     = subpixel / 2
	// coordLimit keeps edge products inside int64.
	coordLimit = 1 << 28
)

type screenVertex struct {
	x, y int64
	uv   mgl32.Vec2
}

func snap(v float64) int64 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v * subpixel)
	return int64(math.Max(-coordLimit, math.Min(coordLimit, v)))
}

func (r *rasterizer) project(v gpu.Vertex) screenVertex {
	clip := r.mvp.Mul4x1(v.Pos.Vec4(1))
	w := clip[3]
	if w == 0 {
		w = 1
	}
	return screenVertex{
		x:  snap(float64((clip[0]/w+1)/2) * float64(r.dst.width)),
		y:  snap(float64((clip[1]/w+1)/2) * float64(r.dst.height)),
		uv: v.UV,
	}
}

func edge(a, b screenVertex, px, py int64) int64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether edge a->b of a counter-clockwise triangle owns the
// pixels that fall exactly on it, so shared edges are drawn once.
func topLeft(a, b screenVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return (dy == 0 && dx < 0) || dy < 0
}

func (r *rasterizer) triangle(v0, v1, v2 gpu.Vertex) {
	a, b, c := r.project(v0), r.project(v1), r.project(v2)
	area := edge(a, b, c.x, c.y)
	if area == 0 {
		return
	}
	// Both faces are drawn; normalize winding to counter-clockwise.
	if area < 0 {
		b, c = c, b
		area = -area
	}

	// Arithmetic shifts floor, which is what negative coordinates need.
	minX := clampInt(int(min(a.x, b.x, c.x)>>subpixelBits), 0, r.dst.width-1)
	maxX := clampInt(int((max(a.x, b.x, c.x)+subpixel-1)>>subpixelBits), 0, r.dst.width-1)
	minY := clampInt(int(min(a.y, b.y, c.y)>>subpixelBits), 0, r.dst.height-1)
	maxY := clampInt(int((max(a.y, b.y, c.y)+subpixel-1)>>subpixelBits), 0, r.dst.height-1)

	ownBC, ownCA, ownAB := topLeft(b, c), topLeft(c, a), topLeft(a, b)
	res := mgl32.Vec2{float32(r.dst.width), float32(r.dst.height)}
	in := &gpu.FragmentInput{
		Resolution: res,
		Uniforms:   r.uniforms,
		Sample:     sample,
	}
	inv := 1 / float64(area)

	for y := minY; y <= maxY; y++ {
		py := int64(y)<<subpixelBits + half
		for x := minX; x <= maxX; x++ {
			px := int64(x)<<subpixelBits + half
			w0 := edge(b, c, px, py)
			w1 := edge(c, a, px, py)
			w2 := edge(a, b, px, py)
			if !inside(w0, ownBC) || !inside(w1, ownCA) || !inside(w2, ownAB) {
				continue
			}
			b0, b1, b2 := float32(float64(w0)*inv), float32(float64(w1)*inv), float32(float64(w2)*inv)
			in.UV = a.uv.Mul(b0).Add(b.uv.Mul(b1)).Add(c.uv.Mul(b2))
			in.FragCoord = mgl32.Vec2{float32(x) + 0.5, float32(y) + 0.5}
			r.write(x, y, r.shade(in))
		}
	}
}

func inside(w int64, owns bool) bool {
	return w > 0 || (w == 0 && owns)
}

func (r *rasterizer) write(x, y int, src mgl32.Vec4) {
	switch r.blend {
	case gpu.BlendAlpha:
		dst := r.dst.At(x, y)
		sa := src[3]
		r.dst.set(x, y, mgl32.Vec4{
			src[0]*sa + dst[0]*(1-sa),
			src[1]*sa + dst[1]*(1-sa),
			src[2]*sa + dst[2]*(1-sa),
			sa + dst[3]*(1-sa),
		})
	case gpu.BlendAdditive:
		dst := r.dst.At(x, y)
		sa := src[3]
		r.dst.set(x, y, mgl32.Vec4{
			dst[0] + src[0]*sa,
			dst[1] + src[1]*sa,
			dst[2] + src[2]*sa,
			dst[3] + sa,
		})
	default:
		r.dst.set(x, y, src)
	}
}

func sample(tex gpu.Texture, uv mgl32.Vec2) mgl32.Vec4 {
	src, ok := tex.(texelSource)
	if !ok || src.texels() == nil {
		return mgl32.Vec4{}
	}
	return src.texels().Sample(uv)
}
