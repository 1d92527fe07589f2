package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/fonts"
)

// RenderSVG writes scene as an SVG document sized to the canvas. Each word
// becomes a <text> element anchored at its top-left corner. A background,
// if set, is drawn as a full-size rect behind the words.
func RenderSVG(scene cloud.Scene, opts ...Option) []byte {
	r := newRenderer(opts...)

	family := scene.FontFamily
	if family == "" {
		family = fonts.FallbackFamily
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		scene.Width, scene.Height, scene.Width, scene.Height)

	if r.background != nil {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", hexColor(r.background))
	}

	for _, w := range scene.Words {
		fmt.Fprintf(&buf, `  <text x="%d" y="%d" font-family="%s" font-size="%d" fill="%s" dominant-baseline="text-before-edge">%s</text>`+"\n",
			w.X, w.Y, escapeXML(family), w.Size, escapeXML(w.Color), escapeXML(w.Text))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
