package inputs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePointer(t *testing.T) {
	tests := []struct {
		name   string
		px, py float64
		wantX  float32
		wantY  float32
	}{
		{"top-left", 0, 0, -1, 1},
		{"bottom-right", 800, 600, 1, -1},
		{"center", 400, 300, 0, 0},
		{"quarter", 200, 450, -0.5, -0.5},
		{"outside clamps", -100, 1200, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := NormalizePointer(tt.px, tt.py, 800, 600)
			assert.InDelta(t, tt.wantX, x, 1e-6)
			assert.InDelta(t, tt.wantY, y, 1e-6)
		})
	}
}

func TestNormalizePointerZeroWindow(t *testing.T) {
	x, y := NormalizePointer(10, 10, 0, 0)
	assert.Equal(t, float32(0), x)
	assert.Equal(t, float32(0), y)
}

func TestPointerLastWriteWins(t *testing.T) {
	var p Pointer
	x, y := p.Get()
	assert.Equal(t, float32(0), x)
	assert.Equal(t, float32(0), y)

	p.Set(0.25, -0.5)
	p.Set(-0.75, 0.125)
	x, y = p.Get()
	assert.Equal(t, float32(-0.75), x)
	assert.Equal(t, float32(0.125), y)

	p.Set(float32(math.NaN()), 3)
	x, y = p.Get()
	assert.Equal(t, float32(0), x)
	assert.Equal(t, float32(1), y)

	p.SetFromWindow(800, 0, 800, 600)
	x, y = p.Get()
	assert.Equal(t, float32(1), x)
	assert.Equal(t, float32(1), y)
}
