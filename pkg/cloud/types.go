package cloud

import (
	"encoding/json"
	"fmt"
	"image"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/matzehuels/shapecloud/pkg/errors"
	"github.com/matzehuels/shapecloud/pkg/glyph"
)

// Font is the read-only font resource shared by measurement and
// rasterization. [*glyph.Font] is the production implementation.
type Font interface {
	// Measure returns the bounding box of text at size, grown by 2×padding
	// on each axis.
	Measure(text string, size, padding int) (width, height int)
	// Rasterize renders one character at size.
	Rasterize(r rune, size int) glyph.Glyph
	// Family returns the font's family name.
	Family() string
}

var _ Font = (*glyph.Font)(nil)

// =============================================================================
// Canvas
// =============================================================================

// Canvas is the drawing surface in pixels.
type Canvas struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
	Margin int `json:"margin" toml:"margin"`
}

// Validate rejects non-positive dimensions, a negative margin, and a margin
// that leaves no interior.
func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas size must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Margin < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas margin cannot be negative, got %d", c.Margin)
	}
	if 2*c.Margin >= min(c.Width, c.Height) {
		return errors.New(errors.ErrCodeInvalidConfig, "canvas margin %d leaves no interior in %dx%d", c.Margin, c.Width, c.Height)
	}
	return nil
}

// Available returns the interior size: each dimension minus twice the
// margin, saturating at zero.
func (c Canvas) Available() (width, height int) {
	return max(0, c.Width-2*c.Margin), max(0, c.Height-2*c.Margin)
}

// Interior returns the rectangle inside the margins. It is empty when the
// margin consumes the canvas.
func (c Canvas) Interior() image.Rectangle {
	w, h := c.Available()
	if w == 0 || h == 0 {
		return image.Rectangle{}
	}
	return image.Rect(c.Margin, c.Margin, c.Margin+w, c.Margin+h)
}

// =============================================================================
// Shape
// =============================================================================

// SizeRequest is a requested shape font size: either a fixed size or
// auto-fit. The zero value is auto-fit.
type SizeRequest struct {
	size  int
	fixed bool
}

// AutoFit requests the largest size that fits the canvas interior.
func AutoFit() SizeRequest { return SizeRequest{} }

// FixedSize requests a fixed size in pixels.
func FixedSize(n int) SizeRequest { return SizeRequest{size: n, fixed: true} }

// IsAutoFit reports whether the size still has to be resolved.
func (s SizeRequest) IsAutoFit() bool { return !s.fixed }

// Fixed returns the fixed size and true, or 0 and false for auto-fit.
func (s SizeRequest) Fixed() (int, bool) { return s.size, s.fixed }

// String returns "AutoFit" or the decimal size.
func (s SizeRequest) String() string {
	if !s.fixed {
		return "AutoFit"
	}
	return strconv.Itoa(s.size)
}

// ParseSizeRequest parses "AutoFit" (case-insensitive, "auto" also
// accepted) or a positive integer.
func ParseSizeRequest(s string) (SizeRequest, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "autofit", "auto":
		return AutoFit(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return SizeRequest{}, errors.New(errors.ErrCodeInvalidConfig, "invalid text size %q (want AutoFit or a positive integer)", s)
	}
	return FixedSize(n), nil
}

// MarshalText implements encoding.TextMarshaler.
func (s SizeRequest) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SizeRequest) UnmarshalText(text []byte) error {
	parsed, err := ParseSizeRequest(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// UnmarshalJSON accepts a JSON string ("AutoFit", "120") or a number.
func (s *SizeRequest) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		text = string(data)
	}
	return s.UnmarshalText([]byte(text))
}

// ShapeSpec is a shape whose size may still be auto-fit.
type ShapeSpec struct {
	Text string
	Font Font
	Size SizeRequest
}

// Validate checks the shape text and a fixed size.
func (s ShapeSpec) Validate() error {
	if err := errors.ValidateShapeText(s.Text); err != nil {
		return err
	}
	if s.Font == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "shape font is required")
	}
	if n, ok := s.Size.Fixed(); ok && n < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "shape size must be positive, got %d", n)
	}
	return nil
}

// Shape is a shape with a resolved size.
type Shape struct {
	Text string
	Font Font
	Size int
}

// =============================================================================
// Fill
// =============================================================================

// Fill configures the words packed into the shape.
type Fill struct {
	Words   []string
	Font    Font
	MinSize int
	MaxSize int
	Padding int
	Colors  []string
}

// Validate rejects empty word or color lists, an inverted or non-positive
// size range and negative padding.
func (f Fill) Validate() error {
	if len(f.Words) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "word list is empty")
	}
	for _, w := range f.Words {
		if err := errors.ValidateWord(w); err != nil {
			return err
		}
	}
	if len(f.Colors) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "color list is empty")
	}
	for _, c := range f.Colors {
		if err := errors.ValidateColor(c); err != nil {
			return err
		}
	}
	if f.Font == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "word font is required")
	}
	if f.MinSize < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "minimum word size must be positive, got %d", f.MinSize)
	}
	if f.MinSize > f.MaxSize {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid word size range %d,%d (min > max)", f.MinSize, f.MaxSize)
	}
	if f.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "padding cannot be negative, got %d", f.Padding)
	}
	return nil
}

// =============================================================================
// Config
// =============================================================================

// Config is everything needed to compose one word cloud.
type Config struct {
	Canvas         Canvas
	Shape          Shape
	Fill           Fill
	RatioThreshold float64
	MaxTries       int
}

// Validate validates the canvas, fill and stopping conditions.
func (c Config) Validate() error {
	if err := c.Canvas.Validate(); err != nil {
		return err
	}
	if c.Shape.Size < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "shape size must be resolved to a positive size, got %d", c.Shape.Size)
	}
	if err := c.Fill.Validate(); err != nil {
		return err
	}
	if c.RatioThreshold < 0 || c.RatioThreshold > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "ratio threshold must be within [0, 1], got %v", c.RatioThreshold)
	}
	if c.MaxTries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max tries cannot be negative, got %d", c.MaxTries)
	}
	return nil
}

// =============================================================================
// Output
// =============================================================================

// PlacedWord is one word in the finished cloud. X and Y are the top-left
// corner of the occupied rectangle.
type PlacedWord struct {
	Text   string `json:"text"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Size   int    `json:"size"`
	Color  string `json:"color"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Rect returns the occupied rectangle.
func (w PlacedWord) Rect() image.Rectangle {
	return image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height)
}

// String returns a compact description for logs.
func (w PlacedWord) String() string {
	return fmt.Sprintf("%q@(%d,%d) size=%d %dx%d %s", w.Text, w.X, w.Y, w.Size, w.Width, w.Height, w.Color)
}

// Stats summarizes a placement run.
type Stats struct {
	Attempts  int     `json:"attempts"`
	TotalArea int     `json:"total_area"`
	FreeArea  int     `json:"free_area"`
	FillRatio float64 `json:"fill_ratio"`
}

// Scene is a finished word cloud, ready for serialization.
type Scene struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	FontFamily string       `json:"font_family"`
	ShapeSize  int          `json:"shape_size"`
	Seed       uint64       `json:"seed"`
	Words      []PlacedWord `json:"words"`
	Stats      Stats        `json:"stats"`
}

// NormalizeText returns text in Unicode normalization form C so that
// visually identical words measure identically.
func NormalizeText(text string) string {
	return norm.NFC.String(text)
}

// FillRatio returns 1 - free/total, or 1 for an empty silhouette.
func FillRatio(free, total int) float64 {
	if total == 0 {
		return 1
	}
	return 1 - float64(free)/float64(total)
}
