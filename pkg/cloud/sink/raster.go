package sink

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/errors"
	"github.com/matzehuels/shapecloud/pkg/fonts"
)

// Scene units are drawn as canvas millimetres; font sizes are given in points.
const ptPerUnit = 72 / 25.4

// RenderPNG rasterizes scene at the configured scale (default one pixel per unit).
func RenderPNG(scene cloud.Scene, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	c, err := r.draw(scene)
	if err != nil {
		return nil, err
	}

	img := rasterizer.Draw(c, canvas.DPMM(r.scale), canvas.DefaultColorSpace)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

// RenderPDF draws scene on a single PDF page of the canvas size.
func RenderPDF(scene cloud.Scene, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	c, err := r.draw(scene)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, c.W, c.H, nil)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write pdf")
	}
	return buf.Bytes(), nil
}

func (r renderer) draw(scene cloud.Scene) (*canvas.Canvas, error) {
	if scene.Width <= 0 || scene.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "scene size must be positive, got %dx%d", scene.Width, scene.Height)
	}

	data := r.fontData
	if len(data) == 0 {
		data = fonts.Default()
	}
	family := canvas.NewFontFamily(scene.FontFamily)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFont, err, "load font for drawing")
	}

	w, h := float64(scene.Width), float64(scene.Height)
	c := canvas.New(w, h)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV)

	if r.background != nil {
		ctx.SetFillColor(r.background)
		ctx.DrawPath(0, 0, canvas.Rectangle(w, h))
	}

	for i, word := range scene.Words {
		col, err := ParseColor(word.Color)
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
		face := family.Face(float64(word.Size)*ptPerUnit, col, canvas.FontRegular, canvas.FontNormal)
		line := canvas.NewTextLine(face, word.Text, canvas.Left)
		ctx.DrawText(float64(word.X), float64(word.Y)+face.Metrics().Ascent, line)
	}
	return c, nil
}

func hexColor(c color.Color) string {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return "none"
	}
	// Un-premultiply for the #rrggbb form.
	r, g, b = r*0xffff/a, g*0xffff/a, b*0xffff/a
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
