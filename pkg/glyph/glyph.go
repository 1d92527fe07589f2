// Package glyph measures and rasterizes text with a single OpenType or
// TrueType font.
//
// A [Font] is parsed once and shared read-only by every stage of a run: the
// auto-fit solver and the placement engine call [Font.Measure], the mask
// builder calls [Font.Rasterize]. Sizes are integer pixel sizes (points at 72
// DPI). Characters missing from the font degrade to whatever metrics the font
// reports for its fallback glyph; they are never an error.
package glyph

import (
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/shapecloud/pkg/errors"
	"github.com/matzehuels/shapecloud/pkg/fonts"
)

// Metrics describes one glyph at one size, in pixels.
type Metrics struct {
	Advance float64 // horizontal cursor advance
	Width   int     // ink box width
	Height  int     // ink box height
}

// Glyph is a rasterized glyph: an 8-bit coverage bitmap of Width×Height
// pixels stored row-major.
type Glyph struct {
	Metrics
	Bitmap []uint8
}

// At returns the coverage of the bitmap pixel at (x, y).
func (g Glyph) At(x, y int) uint8 {
	return g.Bitmap[y*g.Width+x]
}

// Font wraps a parsed font. It is safe for concurrent use.
type Font struct {
	parsed *opentype.Font
	data   []byte
	family string

	mu    sync.Mutex
	faces map[int]font.Face
}

// Parse parses TTF or OTF data.
func Parse(data []byte) (*Font, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFont, err, "parse font")
	}
	family, err := parsed.Name(nil, sfnt.NameIDFamily)
	if err != nil || family == "" {
		family = fonts.FallbackFamily
	}
	return &Font{
		parsed: parsed,
		data:   data,
		family: family,
		faces:  make(map[int]font.Face),
	}, nil
}

// Default returns the embedded Go Regular font.
func Default() *Font {
	f, err := Parse(fonts.Default())
	if err != nil {
		panic("glyph: embedded font does not parse: " + err.Error())
	}
	return f
}

// Family returns the font's family name, or [fonts.FallbackFamily].
func (f *Font) Family() string { return f.family }

// Data returns the raw font bytes.
func (f *Font) Data() []byte { return f.data }

// Metrics returns the metrics of r at size.
func (f *Font) Metrics(r rune, size int) Metrics {
	var m Metrics
	f.withFace(size, func(face font.Face) {
		m = boundsMetrics(face, r)
	})
	return m
}

// Measure returns the bounding box of text at size: the sum of the advance
// widths (truncated after summing) by the tallest glyph, each grown by
// 2×padding.
func (f *Font) Measure(text string, size, padding int) (width, height int) {
	var advance float64
	f.withFace(size, func(face font.Face) {
		for _, r := range text {
			m := boundsMetrics(face, r)
			advance += m.Advance
			height = max(height, m.Height)
		}
	})
	return int(advance) + 2*padding, height + 2*padding
}

// Rasterize renders r at size into a coverage bitmap.
func (f *Font) Rasterize(r rune, size int) Glyph {
	var g Glyph
	f.withFace(size, func(face font.Face) {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			return
		}
		g.Advance = fixedToFloat64(advance)
		g.Width, g.Height = dr.Dx(), dr.Dy()
		g.Bitmap = coverage(mask, maskp, g.Width, g.Height)
	})
	return g
}

// withFace runs fn with the cached face for size while holding the lock;
// font.Face implementations are not safe for concurrent use.
func (f *Font) withFace(size int, fn func(font.Face)) {
	if size <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	face, ok := f.faces[size]
	if !ok {
		var err error
		face, err = opentype.NewFace(f.parsed, &opentype.FaceOptions{
			Size:    float64(size),
			DPI:     72,
			Hinting: font.HintingNone,
		})
		if err != nil {
			return
		}
		f.faces[size] = face
	}
	fn(face)
}

func boundsMetrics(face font.Face, r rune) Metrics {
	bounds, advance, ok := face.GlyphBounds(r)
	if !ok {
		return Metrics{}
	}
	m := Metrics{Advance: fixedToFloat64(advance)}
	if bounds.Max.X > bounds.Min.X && bounds.Max.Y > bounds.Min.Y {
		m.Width = bounds.Max.X.Ceil() - bounds.Min.X.Floor()
		m.Height = bounds.Max.Y.Ceil() - bounds.Min.Y.Floor()
	}
	return m
}

// coverage copies the alpha channel of mask starting at maskp into a
// row-major byte slice.
func coverage(mask image.Image, maskp image.Point, w, h int) []uint8 {
	out := make([]uint8, w*h)
	if alpha, ok := mask.(*image.Alpha); ok {
		for y := 0; y < h; y++ {
			start := alpha.PixOffset(maskp.X, maskp.Y+y)
			copy(out[y*w:(y+1)*w], alpha.Pix[start:start+w])
		}
		return out
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			_, _, _, a := mask.At(maskp.X+x, maskp.Y+y).RGBA()
			out[y*w+x] = uint8(a >> 8)
		}
	}
	return out
}

// fixedToFloat64 converts fixed.Int26_6 to float64.
func fixedToFloat64(x fixed.Int26_6) float64 {
	return float64(x) / 64.0
}
