package soft

import (
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/feedbacktoy/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(c mgl32.Vec4) *gpu.ProgramSource {
	return &gpu.ProgramSource{
		Name:  "solid",
		Shade: func(*gpu.FragmentInput) mgl32.Vec4 { return c },
	}
}

// fullscreen is a 2x2 plane, which covers clip space under an identity MVP.
func fullscreen() *gpu.Geometry { return gpu.Plane(2, 2) }

func draw(t *testing.T, d *Device, src *gpu.ProgramSource, blend gpu.Blend, u gpu.Uniforms) {
	t.Helper()
	p, err := d.NewProgram(src)
	require.NoError(t, err)
	require.NoError(t, d.Draw(&gpu.DrawCall{
		Program:  p,
		Geometry: fullscreen(),
		MVP:      mgl32.Ident4(),
		Uniforms: u,
		Blend:    blend,
	}))
}

func assertEvery(t *testing.T, tex *Texture, want mgl32.Vec4) {
	t.Helper()
	w, h := tex.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			got := tex.At(x, y)
			for i := range want {
				require.InDelta(t, want[i], got[i], 1e-5, "pixel %d,%d channel %d", x, y, i)
			}
		}
	}
}

func TestDrawCoversEveryPixelOnce(t *testing.T) {
	d, err := New(4, 4)
	require.NoError(t, err)

	// Additive onto transparent shows any pixel drawn twice along the diagonal.
	draw(t, d, solid(mgl32.Vec4{0.1, 0.2, 0.3, 1}), gpu.BlendAdditive, nil)
	assertEvery(t, d.Screen(), mgl32.Vec4{0.1, 0.2, 0.3, 1})
}

// sceneView is the ortho view-projection the scene pass uses for a w x h
// viewport: pixel units centered on the origin, eye at z=1.
func sceneView(w, h int) mgl32.Mat4 {
	hw, hh := float32(w)/2, float32(h)/2
	return mgl32.Ortho(-hw, hw, -hh, hh, -1000, 1000).Mul4(mgl32.Translate3D(0, 0, -1))
}

func TestOversizedPlaneCoversEveryPixelOnce(t *testing.T) {
	for _, size := range [][2]int{{8, 6}, {1280, 720}, {800, 600}, {6, 8}, {8, 8}} {
		w, h := size[0], size[1]
		t.Run(fmt.Sprintf("%dx%d", w, h), func(t *testing.T) {
			d, err := New(w, h)
			require.NoError(t, err)
			p, err := d.NewProgram(solid(mgl32.Vec4{0.25, 0, 0, 1}))
			require.NoError(t, err)
			side := float32(max(w, h))
			require.NoError(t, d.Draw(&gpu.DrawCall{
				Program:  p,
				Geometry: gpu.Plane(side, side),
				MVP:      sceneView(w, h),
				Blend:    gpu.BlendAdditive,
			}))

			var missed, doubled int
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					switch a := d.Screen().At(x, y)[3]; {
					case a == 0:
						missed++
					case a > 1:
						doubled++
					}
				}
			}
			assert.Zero(t, missed, "uncovered pixels")
			assert.Zero(t, doubled, "pixels drawn twice")
		})
	}
}

func TestRotatedPlaneSharedEdgeDrawnOnce(t *testing.T) {
	d, err := New(64, 48)
	require.NoError(t, err)
	p, err := d.NewProgram(solid(mgl32.Vec4{0.25, 0, 0, 1}))
	require.NoError(t, err)
	// Half-size view, so one world unit is two pixels.
	require.NoError(t, d.Draw(&gpu.DrawCall{
		Program:  p,
		Geometry: gpu.Plane(12, 12),
		MVP:      sceneView(32, 24).Mul4(mgl32.HomogRotate3DZ(0.3)),
		Blend:    gpu.BlendAdditive,
	}))

	var inked int
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			a := d.Screen().At(x, y)[3]
			require.LessOrEqual(t, a, float32(1), "pixel %d,%d drawn twice", x, y)
			if a > 0 {
				inked++
			}
		}
	}
	// A 24x24 pixel square.
	assert.InDelta(t, 576, inked, 40)
}

func TestBlendModes(t *testing.T) {
	d, err := New(2, 2)
	require.NoError(t, err)

	require.NoError(t, d.Clear(mgl32.Vec4{0, 0, 1, 1}))
	draw(t, d, solid(mgl32.Vec4{1, 0, 0, 0.5}), gpu.BlendAlpha, nil)
	assertEvery(t, d.Screen(), mgl32.Vec4{0.5, 0, 0.5, 1})

	require.NoError(t, d.Clear(mgl32.Vec4{0.2, 0.2, 0.2, 1}))
	draw(t, d, solid(mgl32.Vec4{0.5, 0.5, 0.5, 1}), gpu.BlendAdditive, nil)
	assertEvery(t, d.Screen(), mgl32.Vec4{0.7, 0.7, 0.7, 2})

	require.NoError(t, d.Clear(mgl32.Vec4{1, 1, 1, 1}))
	draw(t, d, solid(mgl32.Vec4{0, 0.5, 0, 0}), gpu.BlendNone, nil)
	assertEvery(t, d.Screen(), mgl32.Vec4{0, 0.5, 0, 0})
}

func TestDrawIntoTargetAndSample(t *testing.T) {
	d, err := New(3, 3)
	require.NoError(t, err)
	target, err := d.NewRenderTarget(3, 3)
	require.NoError(t, err)

	d.Bind(target)
	draw(t, d, solid(mgl32.Vec4{0.25, 0.5, 0.75, 1}), gpu.BlendNone, nil)
	assertEvery(t, d.Screen(), mgl32.Vec4{})

	copyProgram := &gpu.ProgramSource{
		Name: "copy",
		Shade: func(in *gpu.FragmentInput) mgl32.Vec4 {
			return in.Sample(in.Uniforms.Texture("src"), in.UV)
		},
	}
	d.Bind(nil)
	draw(t, d, copyProgram, gpu.BlendNone, gpu.Uniforms{"src": gpu.Texture(target)})
	assertEvery(t, d.Screen(), mgl32.Vec4{0.25, 0.5, 0.75, 1})
}

func TestFragmentInputCoordinates(t *testing.T) {
	d, err := New(4, 2)
	require.NoError(t, err)
	seen := map[[2]int]mgl32.Vec2{}
	src := &gpu.ProgramSource{
		Name: "coords",
		Shade: func(in *gpu.FragmentInput) mgl32.Vec4 {
			seen[[2]int{int(in.FragCoord[0]), int(in.FragCoord[1])}] = in.UV
			assert.Equal(t, mgl32.Vec2{4, 2}, in.Resolution)
			return mgl32.Vec4{}
		},
	}
	draw(t, d, src, gpu.BlendNone, nil)
	require.Len(t, seen, 8)
	uv := seen[[2]int{0, 0}]
	assert.InDelta(t, 0.125, uv[0], 1e-5)
	assert.InDelta(t, 0.25, uv[1], 1e-5)
	uv = seen[[2]int{3, 1}]
	assert.InDelta(t, 0.875, uv[0], 1e-5)
	assert.InDelta(t, 0.75, uv[1], 1e-5)
}

func TestNewTextureKeepsStraightAlpha(t *testing.T) {
	d, err := New(1, 1)
	require.NoError(t, err)
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 51})
	img.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})

	tex, err := d.NewTexture(img)
	require.NoError(t, err)
	st := tex.(*Texture)
	assert.InDelta(t, 1, st.At(0, 0)[0], 1e-6)
	assert.InDelta(t, 0.2, st.At(0, 0)[3], 1e-6)
	assert.Equal(t, mgl32.Vec4{0, 0, 1, 1}, st.At(1, 0))

	// Texel centers sample exactly; the midpoint blends.
	assert.InDelta(t, 1, st.Sample(mgl32.Vec2{0.25, 0.5})[0], 1e-6)
	assert.InDelta(t, 0.5, st.Sample(mgl32.Vec2{0.5, 0.5})[2], 1e-6)
	assert.Equal(t, st.At(1, 0), st.Sample(mgl32.Vec2{2, 0.5}))

	_, err = d.NewTexture(nil)
	assert.Error(t, err)
}

func TestReadScreenIsTopDownPremultiplied(t *testing.T) {
	d, err := New(2, 2)
	require.NoError(t, err)
	d.Screen().set(0, 0, mgl32.Vec4{1, 0, 0, 0.5})
	d.Screen().set(1, 1, mgl32.Vec4{0, 1, 0, 1})

	img, err := d.ReadScreen()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 128, A: 128}, img.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, img.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
}

func TestResizeScreenAndTargets(t *testing.T) {
	d, err := New(2, 2)
	require.NoError(t, err)
	d.ResizeScreen(5, 3)
	w, h := d.ScreenSize()
	assert.Equal(t, []int{5, 3}, []int{w, h})
	d.ResizeScreen(0, 3)
	w, h = d.ScreenSize()
	assert.Equal(t, []int{5, 3}, []int{w, h})

	target, err := d.NewRenderTarget(2, 2)
	require.NoError(t, err)
	d.Bind(target)
	require.NoError(t, d.Clear(mgl32.Vec4{1, 1, 1, 1}))
	require.NoError(t, target.Resize(3, 1))
	assertEvery(t, target.(*Target).texels(), mgl32.Vec4{})
	assert.ErrorIs(t, target.Resize(0, 1), gpu.ErrInvalidSize)

	target.Destroy()
	p, err := d.NewProgram(solid(mgl32.Vec4{1, 1, 1, 1}))
	require.NoError(t, err)
	assert.Error(t, d.Clear(mgl32.Vec4{1, 0, 0, 1}))
	assert.Error(t, d.Draw(&gpu.DrawCall{Program: p, Geometry: fullscreen(), MVP: mgl32.Ident4()}))
	d.Bind(nil)
	assert.NoError(t, d.Clear(mgl32.Vec4{1, 0, 0, 1}))
	assert.Error(t, target.Resize(2, 2))
}

func TestProgramAndDrawValidation(t *testing.T) {
	d, err := New(1, 1)
	require.NoError(t, err)
	_, err = d.NewProgram(&gpu.ProgramSource{Name: "glsl-only", Fragment: "void main(){}"})
	assert.Error(t, err)

	p, err := d.NewProgram(solid(mgl32.Vec4{}))
	require.NoError(t, err)
	assert.Error(t, d.Draw(nil))
	assert.Error(t, d.Draw(&gpu.DrawCall{Program: p}))
	assert.Error(t, d.Draw(&gpu.DrawCall{Program: p, Geometry: &gpu.Geometry{Vertices: make([]gpu.Vertex, 4)}}))

	_, err = New(0, 1)
	assert.ErrorIs(t, err, gpu.ErrInvalidSize)
}
