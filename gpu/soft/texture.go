package soft

import (
	"fmt"
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
)

// Texture is a float RGBA image, rows stored bottom-up like a GL texture.
type Texture struct {
	width  int
	height int
	pix    []float32
}

func newTexture(width, height int) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", gpu.ErrInvalidSize, width, height)
	}
	return &Texture{
		width:  width,
		height: height,
		pix:    make([]float32, width*height*4),
	}, nil
}

func (t *Texture) Size() (int, int) { return t.width, t.height }

func (t *Texture) texels() *Texture { return t }

// At returns the texel at (x, y), y counted from the bottom row.
func (t *Texture) At(x, y int) mgl32.Vec4 {
	i := (y*t.width + x) * 4
	return mgl32.Vec4{t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3]}
}

func (t *Texture) set(x, y int, c mgl32.Vec4) {
	i := (y*t.width + x) * 4
	t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3] = c[0], c[1], c[2], c[3]
}

func (t *Texture) fill(c mgl32.Vec4) {
	for i := 0; i < len(t.pix); i += 4 {
		t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3] = c[0], c[1], c[2], c[3]
	}
}

// Sample reads the texture at uv with bilinear filtering and clamp-to-edge.
func (t *Texture) Sample(uv mgl32.Vec2) mgl32.Vec4 {
	fx := uv[0]*float32(t.width) - 0.5
	fy := uv[1]*float32(t.height) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	ax := fx - float32(x0)
	ay := fy - float32(y0)

	c00 := t.At(t.clampX(x0), t.clampY(y0))
	c10 := t.At(t.clampX(x0+1), t.clampY(y0))
	c01 := t.At(t.clampX(x0), t.clampY(y0+1))
	c11 := t.At(t.clampX(x0+1), t.clampY(y0+1))

	bottom := c00.Mul(1 - ax).Add(c10.Mul(ax))
	top := c01.Mul(1 - ax).Add(c11.Mul(ax))
	return bottom.Mul(1 - ay).Add(top.Mul(ay))
}

func (t *Texture) clampX(x int) int { return clampInt(x, 0, t.width-1) }
func (t *Texture) clampY(y int) int { return clampInt(y, 0, t.height-1) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Image converts the texture to a top-down 8-bit image.
func (t *Texture) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	for y := 0; y < t.height; y++ {
		row := img.Pix[(t.height-1-y)*img.Stride:]
		for x := 0; x < t.width; x++ {
			c := t.At(x, y)
			a := to8(c[3])
			// image.RGBA is alpha-premultiplied.
			row[x*4+0] = to8(c[0] * clamp01(c[3]))
			row[x*4+1] = to8(c[1] * clamp01(c[3]))
			row[x*4+2] = to8(c[2] * clamp01(c[3]))
			row[x*4+3] = a
		}
	}
	return img
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to8(v float32) uint8 {
	return uint8(math.Round(float64(clamp01(v)) * 255))
}

// Target is a render target backed by a Texture. Its identity never changes;
// Resize swaps the backing storage.
type Target struct {
	tex       *Texture
	destroyed bool
}

func (t *Target) Size() (int, int) { return t.tex.Size() }

func (t *Target) texels() *Texture { return t.tex }

// At returns the texel at (x, y), y counted from the bottom row.
func (t *Target) At(x, y int) mgl32.Vec4 { return t.tex.At(x, y) }

// Image converts the target contents to a top-down 8-bit image.
func (t *Target) Image() *image.RGBA { return t.tex.Image() }

func (t *Target) Resize(width, height int) error {
	if t.destroyed {
		return fmt.Errorf("resize of destroyed render target")
	}
	tex, err := newTexture(width, height)
	if err != nil {
		return err
	}
	t.tex = tex
	return nil
}

func (t *Target) Destroy() {
	t.destroyed = true
}

type texelSource interface {
	texels() *Texture
}
