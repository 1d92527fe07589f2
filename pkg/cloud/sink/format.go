package sink

import (
	"strings"

	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/errors"
)

// Format is an output format name.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatPNG, FormatPDF, FormatJSON}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want svg, png, pdf or json)", s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	}
	return "application/octet-stream"
}

// Render serializes scene in format f.
func Render(f Format, scene cloud.Scene, opts ...Option) ([]byte, error) {
	switch f {
	case FormatSVG:
		return RenderSVG(scene, opts...), nil
	case FormatPNG:
		return RenderPNG(scene, opts...)
	case FormatPDF:
		return RenderPDF(scene, opts...)
	case FormatJSON:
		return RenderJSON(scene)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
}
