package sink

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/matzehuels/shapecloud/pkg/errors"
)

// ParseColor resolves an SVG color keyword or a #rgb, #rgba, #rrggbb or
// #rrggbbaa hex string.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	if err := errors.ValidateColor(s); err != nil || !strings.HasPrefix(s, "#") {
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidConfig, "invalid color %q", s)
	}

	hex := s[1:]
	if len(hex) <= 4 {
		var long strings.Builder
		for _, r := range hex {
			long.WriteRune(r)
			long.WriteRune(r)
		}
		hex = long.String()
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid color %q", s)
	}
	// color.RGBA is alpha-premultiplied.
	a := uint32(v & 0xff)
	premul := func(c uint32) uint8 { return uint8(c * a / 0xff) }
	return color.RGBA{
		R: premul(uint32(v>>24) & 0xff),
		G: premul(uint32(v>>16) & 0xff),
		B: premul(uint32(v>>8) & 0xff),
		A: uint8(a),
	}, nil
}
