// Package testfont provides a deterministic font for geometry tests.
package testfont

import (
	"github.com/matzehuels/shapecloud/pkg/glyph"
)

// Block renders every character except space as a solid size×size square
// with an advance of exactly size pixels. Space has the same advance and no
// ink. Measurements are therefore exact: "abc" at size 10 is 30×10.
type Block struct{}

// Family implements cloud.Font.
func (Block) Family() string { return "Block" }

// Measure implements cloud.Font.
func (Block) Measure(text string, size, padding int) (int, int) {
	n, ink := 0, false
	for _, r := range text {
		n++
		if r != ' ' {
			ink = true
		}
	}
	h := 0
	if ink {
		h = size
	}
	return n*size + 2*padding, h + 2*padding
}

// Rasterize implements cloud.Font.
func (Block) Rasterize(r rune, size int) glyph.Glyph {
	g := glyph.Glyph{Metrics: glyph.Metrics{Advance: float64(size)}}
	if r == ' ' || size <= 0 {
		return g
	}
	g.Width, g.Height = size, size
	g.Bitmap = make([]uint8, size*size)
	for i := range g.Bitmap {
		g.Bitmap[i] = 255
	}
	return g
}
