package mask

import (
	"image"
	"math"

	"github.com/matzehuels/shapecloud/pkg/cloud"
)

// Threshold is the coverage above which a glyph pixel counts as ink.
const Threshold = 127

// Build renders shape into a grid the size of canvas.
//
// The text's bounding box is centered in the canvas interior; when the text
// is larger than the interior its offset collapses to the margin. Glyphs are
// drawn left to right with the cursor advancing by the ceiling of each
// advance width. Ink pixels outside the grid are dropped; a margin that
// consumes the canvas yields a grid with no free cells.
func Build(canvas cloud.Canvas, shape cloud.Shape) *Grid {
	width, height := max(0, canvas.Width), max(0, canvas.Height)
	cells := make([]bool, width*height)

	if canvas.Interior().Empty() || shape.Font == nil {
		return FromCells(width, height, cells)
	}

	textW, textH := shape.Font.Measure(shape.Text, shape.Size, 0)
	availW, availH := canvas.Available()
	offsetX := canvas.Margin + max(0, availW-textW)/2
	offsetY := canvas.Margin + max(0, availH-textH)/2

	bounds := image.Rect(0, 0, width, height)
	cursor := offsetX
	for _, r := range shape.Text {
		g := shape.Font.Rasterize(r, shape.Size)
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				if g.At(x, y) <= Threshold {
					continue
				}
				p := image.Pt(cursor+x, offsetY+y)
				if p.In(bounds) {
					cells[p.Y*width+p.X] = true
				}
			}
		}
		cursor += int(math.Ceil(g.Advance))
	}
	return FromCells(width, height, cells)
}
