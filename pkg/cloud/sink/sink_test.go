package sink

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/cloud/mask"
	"github.com/matzehuels/shapecloud/pkg/errors"
)

func testScene() cloud.Scene {
	return cloud.Scene{
		Width:      200,
		Height:     100,
		FontFamily: "Go",
		ShapeSize:  80,
		Seed:       42,
		Words: []cloud.PlacedWord{
			{Text: "zeta", X: 10, Y: 20, Size: 12, Color: "red", Width: 30, Height: 12},
			{Text: "a<b&c", X: 50, Y: 40, Size: 8, Color: "#00ff00", Width: 28, Height: 8},
			{Text: "alpha", X: 5, Y: 5, Size: 10, Color: "blue", Width: 27, Height: 10},
		},
		Stats: cloud.Stats{Attempts: 17, TotalArea: 1000, FreeArea: 400, FillRatio: 0.6},
	}
}

func TestRenderSVG(t *testing.T) {
	svg := string(RenderSVG(testScene()))

	if !strings.HasPrefix(svg, `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="100" viewBox="0 0 200 100">`) {
		t.Errorf("unexpected root element:\n%s", svg)
	}
	if n := strings.Count(svg, "<text "); n != 3 {
		t.Errorf("got %d text elements, want 3", n)
	}
	if !strings.Contains(svg, `<text x="10" y="20" font-family="Go" font-size="12" fill="red" dominant-baseline="text-before-edge">zeta</text>`) {
		t.Errorf("first word not rendered as expected:\n%s", svg)
	}
	if !strings.Contains(svg, ">a&lt;b&amp;c</text>") {
		t.Error("word text should be XML-escaped")
	}
	if strings.Contains(svg, "<rect") {
		t.Error("no background rect expected by default")
	}
}

func TestRenderSVGPlacementOrder(t *testing.T) {
	svg := string(RenderSVG(testScene()))

	zeta, escaped, alpha := strings.Index(svg, ">zeta<"), strings.Index(svg, ">a&lt;b"), strings.Index(svg, ">alpha<")
	if !(zeta < escaped && escaped < alpha) {
		t.Errorf("words not in placement order: %d %d %d", zeta, escaped, alpha)
	}
}

func TestRenderSVGFallbackFamily(t *testing.T) {
	scene := testScene()
	scene.FontFamily = ""

	svg := string(RenderSVG(scene, WithBackground(color.White)))

	if !strings.Contains(svg, `font-family="sans-serif"`) {
		t.Error("empty family should fall back to sans-serif")
	}
	if !strings.Contains(svg, `<rect width="100%" height="100%" fill="#ffffff"/>`) {
		t.Errorf("background rect missing:\n%s", svg)
	}
}

func TestRenderSVGEmpty(t *testing.T) {
	svg := string(RenderSVG(cloud.Scene{Width: 10, Height: 10}))
	if strings.Contains(svg, "<text") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Errorf("unexpected empty scene output:\n%s", svg)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	want := testScene()

	data, err := RenderJSON(want)
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	got, err := ParseJSON(data)
	if err != nil {
		t.Fatalf("ParseJSON() error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderJSONEmptyWords(t *testing.T) {
	data, err := RenderJSON(cloud.Scene{Width: 1, Height: 1})
	if err != nil {
		t.Fatalf("RenderJSON() error: %v", err)
	}
	if !strings.Contains(string(data), `"words": []`) {
		t.Errorf("empty word list should encode as [], got:\n%s", data)
	}
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := ParseJSON([]byte("{"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseJSON() error = %v, want INVALID_INPUT", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"black", color.RGBA{0, 0, 0, 255}, false},
		{"Red", color.RGBA{255, 0, 0, 255}, false},
		{"#00ff00", color.RGBA{0, 255, 0, 255}, false},
		{"#abc", color.RGBA{0xaa, 0xbb, 0xcc, 255}, false},
		{"#ffffff00", color.RGBA{0, 0, 0, 0}, false},
		{"#0000ff80", color.RGBA{0, 0, 0x80, 0x80}, false},
		{"notacolor", color.RGBA{}, true},
		{"#12", color.RGBA{}, true},
		{"", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(strings.ToUpper(string(f)))
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(gif) error = %v, want INVALID_FORMAT", err)
	}
	if _, err := Render(Format("gif"), testScene()); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Render(gif) error = %v, want INVALID_FORMAT", err)
	}
}

func TestRenderMask(t *testing.T) {
	grid := mask.FromFunc(4, 3, func(x, y int) bool { return x == y })

	data, err := RenderMask(grid)
	if err != nil {
		t.Fatalf("RenderMask() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("mask is %dx%d, want 4x3", b.Dx(), b.Dy())
	}
	for y := range 3 {
		for x := range 4 {
			_, _, _, a := img.At(x, y).RGBA()
			if free := x == y; free != (a == 0xffff) {
				t.Errorf("pixel (%d,%d) alpha = %d", x, y, a)
			}
		}
	}

	if _, err := RenderMask(mask.FromCells(0, 0, nil)); err == nil {
		t.Error("empty mask should be rejected")
	}
}

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG(testScene(), WithBackground(color.White))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("png is %dx%d, want 200x100", b.Dx(), b.Dy())
	}
}

func TestRenderPNGScale(t *testing.T) {
	data, err := RenderPNG(testScene(), WithScale(2))
	if err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("png is %dx%d, want 400x200", b.Dx(), b.Dy())
	}
}

func TestRenderPDF(t *testing.T) {
	data, err := RenderPDF(testScene())
	if err != nil {
		t.Fatalf("RenderPDF() error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("output does not look like a PDF: %q", data[:min(len(data), 16)])
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	scene := testScene()
	scene.Words[0].Color = "nope"
	if _, err := RenderPNG(scene); err == nil {
		t.Error("unknown color should fail")
	}
	if _, err := RenderPDF(cloud.Scene{}); !errors.IsConfig(err) {
		t.Errorf("zero-size scene error = %v, want config error", err)
	}
	if _, err := RenderPNG(testScene(), WithFontData([]byte("junk"))); !errors.Is(err, errors.ErrCodeInvalidFont) {
		t.Errorf("bad font data error = %v, want INVALID_FONT", err)
	}
}
