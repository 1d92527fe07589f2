package glyph

import (
	"sync"
	"testing"

	"github.com/matzehuels/shapecloud/pkg/errors"
)

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("definitely not a font"))
	if !errors.Is(err, errors.ErrCodeInvalidFont) {
		t.Fatalf("Parse error = %v, want %s", err, errors.ErrCodeInvalidFont)
	}
}

func TestDefaultFamily(t *testing.T) {
	f := Default()
	if f.Family() != "Go" {
		t.Errorf("Family() = %q, want %q", f.Family(), "Go")
	}
	if len(f.Data()) == 0 {
		t.Error("Data() should return the font bytes")
	}
}

func TestMeasurePadding(t *testing.T) {
	f := Default()

	w0, h0 := f.Measure("cloud", 24, 0)
	w3, h3 := f.Measure("cloud", 24, 3)
	if w3 != w0+6 || h3 != h0+6 {
		t.Errorf("padding 3: got %dx%d, want %dx%d", w3, h3, w0+6, h0+6)
	}

	if w, h := f.Measure("", 24, 2); w != 4 || h != 4 {
		t.Errorf("empty text: got %dx%d, want 4x4", w, h)
	}
}

func TestMeasureAggregatesGlyphs(t *testing.T) {
	f := Default()
	const size = 40

	var advance float64
	var height int
	for _, r := range "Hey!" {
		m := f.Metrics(r, size)
		advance += m.Advance
		height = max(height, m.Height)
	}

	w, h := f.Measure("Hey!", size, 0)
	if w != int(advance) {
		t.Errorf("width = %d, want %d", w, int(advance))
	}
	if h != height {
		t.Errorf("height = %d, want %d", h, height)
	}
}

func TestMeasureMonotonic(t *testing.T) {
	f := Default()
	prevW, prevH := 0, 0
	for size := 1; size <= 120; size++ {
		w, h := f.Measure("BRICS", size, 0)
		if w < prevW || h < prevH {
			t.Fatalf("size %d: %dx%d smaller than %dx%d at size %d", size, w, h, prevW, prevH, size-1)
		}
		prevW, prevH = w, h
	}
}

func TestMeasureInvalidSize(t *testing.T) {
	f := Default()
	if w, h := f.Measure("abc", 0, 1); w != 2 || h != 2 {
		t.Errorf("size 0: got %dx%d, want 2x2", w, h)
	}
}

func TestRasterize(t *testing.T) {
	f := Default()
	g := f.Rasterize('I', 100)

	if g.Width <= 0 || g.Height <= 0 {
		t.Fatalf("glyph has empty box %dx%d", g.Width, g.Height)
	}
	if len(g.Bitmap) != g.Width*g.Height {
		t.Fatalf("bitmap has %d bytes, want %d", len(g.Bitmap), g.Width*g.Height)
	}
	if g.Advance <= 0 {
		t.Errorf("advance = %v, want > 0", g.Advance)
	}

	solid := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.At(x, y) > 127 {
				solid++
			}
		}
	}
	if solid == 0 {
		t.Error("rasterized 'I' should have solid pixels")
	}
}

func TestRasterizeSpace(t *testing.T) {
	g := Default().Rasterize(' ', 30)
	if g.Width*g.Height != 0 {
		t.Errorf("space should have no ink, got %dx%d", g.Width, g.Height)
	}
	if g.Advance <= 0 {
		t.Errorf("space advance = %v, want > 0", g.Advance)
	}
}

func TestConcurrentMeasure(t *testing.T) {
	f := Default()
	want, _ := f.Measure("concurrent", 18, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got, _ := f.Measure("concurrent", 18, 1); got != want {
					t.Errorf("concurrent Measure = %d, want %d", got, want)
					return
				}
				f.Rasterize('c', 10+j%5)
			}
		}()
	}
	wg.Wait()
}
