// Package mask builds the occupancy grid of a word cloud.
//
// A [Grid] cell is true while it lies inside the shape silhouette and has not
// been claimed by a placed word. Cells only ever go from true to false once
// the grid is built. Besides the cells the grid keeps two indexes so the
// placement engine never rescans the canvas:
//
//   - an unordered list of free cells for O(1) uniform sampling
//   - per-row free-run lengths so containment of a w×h rectangle is O(h)
package mask

import (
	"image"
	"image/color"
	"math/rand/v2"
)

// Grid is a height×width occupancy matrix. It is not safe for concurrent use.
type Grid struct {
	width, height int
	cells         []bool
	runs          []int32 // free cells starting at i and extending right in its row
	free          []int32 // indexes of free cells, unordered
	slot          []int32 // position of a cell in free, -1 when claimed
	total         int
}

// FromCells builds a grid from row-major cells. The slice is retained.
func FromCells(width, height int, cells []bool) *Grid {
	width, height = max(0, width), max(0, height)
	if len(cells) != width*height {
		panic("mask: cell slice does not match grid size")
	}
	g := &Grid{
		width:  width,
		height: height,
		cells:  cells,
		runs:   make([]int32, len(cells)),
		slot:   make([]int32, len(cells)),
	}
	for i, ok := range cells {
		g.slot[i] = -1
		if ok {
			g.slot[i] = int32(len(g.free))
			g.free = append(g.free, int32(i))
		}
	}
	for y := 0; y < height; y++ {
		g.rerun(y, 0, width)
	}
	g.total = len(g.free)
	return g
}

// FromFunc builds a grid whose cell (x, y) is fn(x, y).
func FromFunc(width, height int, fn func(x, y int) bool) *Grid {
	width, height = max(0, width), max(0, height)
	cells := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			cells[y*width+x] = fn(x, y)
		}
	}
	return FromCells(width, height, cells)
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Bounds returns the grid rectangle.
func (g *Grid) Bounds() image.Rectangle { return image.Rect(0, 0, g.width, g.height) }

// At reports whether (x, y) is free. Out-of-range cells are not free.
func (g *Grid) At(x, y int) bool {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return false
	}
	return g.cells[y*g.width+x]
}

// Free returns the number of free cells.
func (g *Grid) Free() int { return len(g.free) }

// Total returns the number of free cells when the grid was built.
func (g *Grid) Total() int { return g.total }

// Sample returns a free cell drawn uniformly at random, or false when no
// cell is free.
func (g *Grid) Sample(rng *rand.Rand) (image.Point, bool) {
	if len(g.free) == 0 {
		return image.Point{}, false
	}
	i := int(g.free[rng.IntN(len(g.free))])
	return image.Pt(i%g.width, i/g.width), true
}

// Fits reports whether r is non-empty, inside the grid, and covers only
// free cells.
func (g *Grid) Fits(r image.Rectangle) bool {
	if r.Empty() || !r.In(g.Bounds()) {
		return false
	}
	need := int32(r.Dx())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		if g.runs[y*g.width+r.Min.X] < need {
			return false
		}
	}
	return true
}

// Claim marks every free cell in r as taken and returns how many cells
// changed. Parts of r outside the grid are ignored.
func (g *Grid) Claim(r image.Rectangle) int {
	r = r.Intersect(g.Bounds())
	if r.Empty() {
		return 0
	}
	claimed := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * g.width
		for x := r.Min.X; x < r.Max.X; x++ {
			if g.cells[row+x] {
				g.take(row + x)
				claimed++
			}
		}
		g.rerun(y, r.Min.X, r.Max.X)
	}
	return claimed
}

// take removes cell i from the free index by swapping in the last entry.
func (g *Grid) take(i int) {
	g.cells[i] = false
	pos := g.slot[i]
	last := g.free[len(g.free)-1]
	g.free[pos] = last
	g.slot[last] = pos
	g.free = g.free[:len(g.free)-1]
	g.slot[i] = -1
}

// rerun recomputes the free-run lengths of row y for columns left of end,
// assuming columns at or right of end are current. Left of start the scan
// stops at the first taken cell, since runs never cross one.
func (g *Grid) rerun(y, start, end int) {
	row := y * g.width
	var next int32
	if end < g.width {
		next = g.runs[row+end]
	}
	for x := end - 1; x >= 0; x-- {
		if !g.cells[row+x] {
			g.runs[row+x] = 0
			if x < start {
				return
			}
			next = 0
			continue
		}
		next++
		g.runs[row+x] = next
	}
}

// Image renders the grid as a diagnostic image: free cells opaque white,
// everything else fully transparent.
func (g *Grid) Image() *image.NRGBA {
	img := image.NewNRGBA(g.Bounds())
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y*g.width+x] {
				img.SetNRGBA(x, y, white)
			}
		}
	}
	return img
}
