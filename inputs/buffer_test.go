package inputs

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
	"github.com/richinsley/feedbacktoy/gpu/soft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T, width, height int) *Buffer {
	t.Helper()
	dev, err := soft.New(width, height)
	require.NoError(t, err)
	b, err := NewBuffer(dev, width, height)
	require.NoError(t, err)
	t.Cleanup(b.Destroy)
	return b
}

func TestBufferCurrentAndPreviousNeverAlias(t *testing.T) {
	b := newTestBuffer(t, 4, 4)
	for tick := 0; tick < 10; tick++ {
		assert.NotSame(t, b.Current(), b.Previous(), "tick %d", tick)
		b.SwapBuffers()
	}
}

func TestBufferSwapFlipsRoles(t *testing.T) {
	b := newTestBuffer(t, 4, 4)
	current, previous := b.Current(), b.Previous()

	b.SwapBuffers()
	assert.Same(t, previous, b.Current())
	assert.Same(t, current, b.Previous())

	b.SwapBuffers()
	assert.Same(t, current, b.Current())
	assert.Same(t, previous, b.Previous())
}

func TestBufferResizeKeepsTargetsCongruent(t *testing.T) {
	b := newTestBuffer(t, 4, 4)
	current, previous := b.Current(), b.Previous()

	for _, size := range [][2]int{{800, 600}, {3, 7}, {1024, 1}} {
		require.NoError(t, b.Resize(size[0], size[1]))
		cw, ch := b.Current().Size()
		pw, ph := b.Previous().Size()
		assert.Equal(t, size[0], cw)
		assert.Equal(t, size[0], pw)
		assert.Equal(t, size[1], ch)
		assert.Equal(t, size[1], ph)
		w, h := b.Size()
		assert.Equal(t, size[0], w)
		assert.Equal(t, size[1], h)
	}

	// Resize mutates in place.
	assert.Same(t, current, b.Current())
	assert.Same(t, previous, b.Previous())
}

func TestBufferResizeIsIdempotent(t *testing.T) {
	b := newTestBuffer(t, 4, 4)
	require.NoError(t, b.Resize(800, 600))
	w1, h1 := b.Size()
	require.NoError(t, b.Resize(800, 600))
	w2, h2 := b.Size()
	assert.Equal(t, w1, w2)
	assert.Equal(t, h1, h2)
	cw, ch := b.Current().Size()
	assert.Equal(t, 800, cw)
	assert.Equal(t, 600, ch)
}

func TestBufferResizeRejectsInvalidSize(t *testing.T) {
	b := newTestBuffer(t, 4, 4)
	err := b.Resize(0, 10)
	assert.ErrorIs(t, err, gpu.ErrInvalidSize)
	w, h := b.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 4, h)
}

func TestBufferPreviousIsSeededTransparent(t *testing.T) {
	b := newTestBuffer(t, 3, 2)
	prev := b.Previous().(*soft.Target)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			assert.Equal(t, mgl32.Vec4{}, prev.At(x, y))
		}
	}
}

// flakyTarget fails every resize after the first failAfter calls.
type flakyTarget struct {
	width, height int
	resizes       int
	failAfter     int
}

func (f *flakyTarget) Size() (int, int) { return f.width, f.height }
func (f *flakyTarget) Destroy()         {}
func (f *flakyTarget) Resize(w, h int) error {
	f.resizes++
	if f.failAfter >= 0 && f.resizes > f.failAfter {
		return errors.New("out of memory")
	}
	f.width, f.height = w, h
	return nil
}

type flakyDevice struct {
	gpu.Device
	targets []*flakyTarget
	failNew int
}

func (d *flakyDevice) NewRenderTarget(w, h int) (gpu.RenderTarget, error) {
	if len(d.targets) == d.failNew {
		return nil, errors.New("allocation failed")
	}
	t := &flakyTarget{width: w, height: h, failAfter: -1}
	d.targets = append(d.targets, t)
	return t, nil
}

func (d *flakyDevice) NewTexture(*image.NRGBA) (gpu.Texture, error) { return nil, nil }

func TestBufferResizeFailureRollsBack(t *testing.T) {
	dev := &flakyDevice{failNew: -1}
	b, err := NewBuffer(dev, 10, 10)
	require.NoError(t, err)
	dev.targets[1].failAfter = 0

	err = b.Resize(20, 20)
	require.Error(t, err)

	w0, h0 := dev.targets[0].Size()
	w1, h1 := dev.targets[1].Size()
	assert.Equal(t, [2]int{10, 10}, [2]int{w0, h0})
	assert.Equal(t, [2]int{w0, h0}, [2]int{w1, h1})
	w, h := b.Size()
	assert.Equal(t, [2]int{10, 10}, [2]int{w, h})
}

func TestNewBufferAllocationFailure(t *testing.T) {
	dev := &flakyDevice{failNew: 1}
	_, err := NewBuffer(dev, 10, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render target 1")
}
