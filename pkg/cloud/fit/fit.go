// Package fit resolves an auto-fit shape size to the largest font size whose
// text still fits the canvas interior.
package fit

import (
	"github.com/matzehuels/shapecloud/pkg/cloud"
)

// Solve returns the largest size in [1, available height] at which text,
// measured without padding, fits inside the canvas interior.
//
// Measurements are assumed to be non-decreasing in size. Size 0 is treated
// as always feasible, so when not even size 1 fits Solve still returns 1.
// Callers that need a guaranteed fit should check [Fits] on the result.
func Solve(canvas cloud.Canvas, text string, font cloud.Font) int {
	availW, availH := canvas.Available()

	lo, hi := 0, availH
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if fits(font, text, mid, availW, availH) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return max(1, lo)
}

// Fits reports whether text at size fits inside the canvas interior.
func Fits(canvas cloud.Canvas, text string, font cloud.Font, size int) bool {
	availW, availH := canvas.Available()
	return fits(font, text, size, availW, availH)
}

func fits(font cloud.Font, text string, size, availW, availH int) bool {
	w, h := font.Measure(text, size, 0)
	return w <= availW && h <= availH
}

// Resolve returns spec with its size resolved. A fixed size passes through
// unchanged; auto-fit runs [Solve].
func Resolve(canvas cloud.Canvas, spec cloud.ShapeSpec) cloud.Shape {
	size, ok := spec.Size.Fixed()
	if !ok {
		size = Solve(canvas, spec.Text, spec.Font)
	}
	return cloud.Shape{Text: spec.Text, Font: spec.Font, Size: size}
}
