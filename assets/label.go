// Package assets generates the static textures the scene uses.
package assets

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
)

// Defaults for the label texture.
const (
	DefaultLabelText     = "hehe"
	DefaultLabelSize     = 2048
	DefaultLabelFontSize = 260
)

// Label renders white bold text centered on a transparent size x size square.
func Label(label string, size int, fontSize float64) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid label size %d", size)
	}
	if fontSize <= 0 {
		return nil, fmt.Errorf("invalid font size %v", fontSize)
	}

	source, err := text.NewFontSource(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load label font: %w", err)
	}
	defer func() { _ = source.Close() }()

	dc := gg.NewContext(size, size)
	defer func() { _ = dc.Close() }()
	dc.Clear()
	dc.SetFont(source.Face(fontSize))
	dc.SetRGB(1, 1, 1)
	half := float64(size) / 2
	dc.DrawStringAnchored(label, half, half, 0.5, 0.5)
	return dc.Image(), nil
}
