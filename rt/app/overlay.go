package app

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawOverlay renders multi-line stats text into the top-left corner of
// img with the built-in bitmap face.
func DrawOverlay(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{255, 255, 0, 255}),
		Face: face,
	}
	y := face.Metrics().Ascent.Ceil() + 4
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		d.Dot = fixed.P(6, y)
		d.DrawString(line)
		y += lineHeight
	}
}
