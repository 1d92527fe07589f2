package sink

import "image/color"

// Option configures a renderer.
type Option func(*renderer)

type renderer struct {
	fontData   []byte
	background color.Color
	scale      float64
}

// WithFontData sets the font drawn by PNG and PDF output. SVG ignores it.
func WithFontData(data []byte) Option { return func(r *renderer) { r.fontData = data } }

// WithBackground fills the canvas before drawing words. The default is
// transparent.
func WithBackground(c color.Color) Option { return func(r *renderer) { r.background = c } }

// WithScale sets the PNG pixels per scene unit (default 1).
func WithScale(s float64) Option { return func(r *renderer) { r.scale = s } }

func newRenderer(opts ...Option) renderer {
	r := renderer{scale: 1}
	for _, opt := range opts {
		opt(&r)
	}
	if r.scale <= 0 {
		r.scale = 1
	}
	return r
}
