package inputs

import (
	"math"
	"sync/atomic"
)

// Pointer holds the last normalized pointer position in [-1,1]x[-1,1]. Writes
// come from input callbacks, reads from the render loop; the last write wins.
type Pointer struct {
	bits atomic.Uint64
}

// Set stores a position, clamping it to [-1,1].
func (p *Pointer) Set(x, y float32) {
	x, y = clampUnit(x), clampUnit(y)
	p.bits.Store(uint64(math.Float32bits(x))<<32 | uint64(math.Float32bits(y)))
}

// Get returns the last stored position; the zero Pointer reads as (0,0).
func (p *Pointer) Get() (x, y float32) {
	v := p.bits.Load()
	return math.Float32frombits(uint32(v >> 32)), math.Float32frombits(uint32(v))
}

// SetFromWindow stores a position given in window pixels with the origin at
// the top-left corner.
func (p *Pointer) SetFromWindow(px, py float64, width, height int) {
	x, y := NormalizePointer(px, py, width, height)
	p.Set(x, y)
}

// NormalizePointer maps window pixels (origin top-left) to [-1,1] with +y up.
func NormalizePointer(px, py float64, width, height int) (x, y float32) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	x = float32(px/float64(width)*2 - 1)
	y = float32((1-py/float64(height))*2 - 1)
	return clampUnit(x), clampUnit(y)
}

func clampUnit(v float32) float32 {
	if v != v {
		return 0
	}
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
