package gpu

import "github.com/go-gl/mathgl/mgl32"

// Vertex is a position in world units plus a texture coordinate.
type Vertex struct {
	Pos mgl32.Vec3
	UV  mgl32.Vec2
}

// Geometry is a triangle list. Revision is bumped on every in-place change so
// devices holding uploaded copies know to refresh them.
type Geometry struct {
	Vertices []Vertex
	Revision uint64

	width, height float32
}

// Plane returns a width x height quad centered on the origin in the z=0 plane,
// uv (0,0) at the bottom-left corner.
func Plane(width, height float32) *Geometry {
	g := &Geometry{}
	g.SetPlane(width, height)
	return g
}

// SetPlane rebuilds the geometry as a width x height plane. Setting the same
// size again leaves the geometry and its revision untouched.
func (g *Geometry) SetPlane(width, height float32) {
	if g.Vertices != nil && g.width == width && g.height == height {
		return
	}
	hw, hh := width/2, height/2
	bl := Vertex{Pos: mgl32.Vec3{-hw, -hh, 0}, UV: mgl32.Vec2{0, 0}}
	br := Vertex{Pos: mgl32.Vec3{hw, -hh, 0}, UV: mgl32.Vec2{1, 0}}
	tr := Vertex{Pos: mgl32.Vec3{hw, hh, 0}, UV: mgl32.Vec2{1, 1}}
	tl := Vertex{Pos: mgl32.Vec3{-hw, hh, 0}, UV: mgl32.Vec2{0, 1}}
	g.Vertices = append(g.Vertices[:0], bl, br, tr, bl, tr, tl)
	g.width, g.height = width, height
	g.Revision++
}

// PlaneSize returns the dimensions passed to the last SetPlane.
func (g *Geometry) PlaneSize() (width, height float32) {
	return g.width, g.height
}
