// Package fonts provides the font files used for measuring and drawing words.
//
// The default font is Go Regular from golang.org/x/image/font/gofont, compiled
// into the binary so shapecloud works without any font on disk. Custom fonts
// are read from the filesystem by [Load].
package fonts

import (
	"os"
	"strings"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/matzehuels/shapecloud/pkg/errors"
)

// DefaultName is the source name that selects the embedded default font.
const DefaultName = "embed:goregular"

// FallbackFamily is the CSS font-family used when a font reports no family name.
const FallbackFamily = "sans-serif"

// Default returns the embedded Go Regular TTF data.
func Default() []byte {
	return goregular.TTF
}

// IsDefault reports whether src selects the embedded font.
func IsDefault(src string) bool {
	return src == "" || src == DefaultName || src == "embed:"
}

// Load returns the font data for src. An empty src or "embed:goregular"
// returns the embedded font; anything else is read as a file path.
func Load(src string) ([]byte, error) {
	if IsDefault(src) {
		return Default(), nil
	}
	if strings.HasPrefix(src, "embed:") {
		return nil, errors.New(errors.ErrCodeInvalidFont, "unknown embedded font %q", src)
	}
	data, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeInvalidFont, err, "font file not found: %s", src)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFont, err, "read font %s", src)
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFont, "font file is empty: %s", src)
	}
	return data, nil
}
