package inputs

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/richinsley/feedbacktoy/gpu"
)

// ImageChannel is a static image texture, uploaded once and never modified.
type ImageChannel struct {
	texture    gpu.Texture
	resolution [3]float32
}

// vflip vertically flips the provided image so row 0 becomes the bottom row,
// which is how texture rows are laid out on the device.
func vflip(src *image.NRGBA) *image.NRGBA {
	bounds := src.Bounds()
	flipped := image.NewNRGBA(bounds)
	height := bounds.Dy()

	rowSize := bounds.Dx() * 4
	for y := 0; y < height; y++ {
		srcRow := src.Pix[((height-1)-y)*src.Stride:]
		dstRow := flipped.Pix[y*flipped.Stride:]
		copy(dstRow, srcRow[:rowSize])
	}
	return flipped
}

// NewImageChannel converts img to straight-alpha RGBA and uploads it.
func NewImageChannel(dev gpu.Device, img image.Image) (*ImageChannel, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	tex, err := dev.NewTexture(vflip(nrgba))
	if err != nil {
		return nil, fmt.Errorf("failed to upload image texture: %w", err)
	}
	return &ImageChannel{
		texture: tex,
		resolution: [3]float32{
			float32(b.Dx()),
			float32(b.Dy()),
			1.0,
		},
	}, nil
}

// Texture returns the uploaded texture.
func (c *ImageChannel) Texture() gpu.Texture { return c.texture }

// ChannelRes returns the image size as width, height, 1.
func (c *ImageChannel) ChannelRes() [3]float32 { return c.resolution }

// Destroy releases the texture when the device supports it.
func (c *ImageChannel) Destroy() {
	if d, ok := c.texture.(interface{ Destroy() }); ok {
		d.Destroy()
	}
}
