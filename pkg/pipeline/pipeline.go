// Package pipeline runs the complete word cloud pipeline for the CLI and
// the HTTP server.
//
// # Architecture
//
// A run has three stages:
//
//  1. Prepare: load and parse the fonts, resolve an auto-fit shape size
//  2. Compose: build the silhouette mask and place words into it
//  3. Render: serialize the scene in each requested format
//
// Composed scenes and rendered artifacts are cached: the scene under a hash
// of every input that influences placement (including the font bytes), the
// artifacts under the scene hash plus the render options.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Text = "BRICS"
//	opts.Words = []string{"Brazil", "Russia", "India", "China", "South Africa"}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"strings"
	"time"

	"github.com/matzehuels/shapecloud/pkg/cache"
	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/cloud/place"
	"github.com/matzehuels/shapecloud/pkg/cloud/sink"
	"github.com/matzehuels/shapecloud/pkg/errors"
	"github.com/matzehuels/shapecloud/pkg/fonts"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API and config files
// =============================================================================

const (
	DefaultWidth    = 1920
	DefaultHeight   = 1080
	DefaultMargin   = 10
	DefaultMinSize  = 10
	DefaultMaxSize  = 30
	DefaultPadding  = 0
	DefaultRatio    = 0.9
	DefaultMaxTries = 10000

	// DefaultSeed is the default random seed for reproducibility.
	DefaultSeed = uint64(42)
)

// DefaultColors is the default word palette.
var DefaultColors = []string{"black", "red", "green", "blue"}

// DefaultFormats is the default output format list.
var DefaultFormats = []string{string(sink.FormatSVG)}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one word cloud. It decodes from
// JSON (API requests) and TOML (config files); decode onto [DefaultOptions]
// so that omitted fields keep their defaults.
type Options struct {
	// Canvas
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
	Margin int `json:"margin" toml:"margin"`

	// Shape
	Text     string            `json:"text" toml:"text"`
	TextSize cloud.SizeRequest `json:"text_size" toml:"text_size"`
	Font     string            `json:"font,omitempty" toml:"font,omitempty"`

	// Fill
	Words    []string `json:"words" toml:"words"`
	WordFont string   `json:"word_font,omitempty" toml:"word_font,omitempty"`
	MinSize  int      `json:"min_size" toml:"min_size"`
	MaxSize  int      `json:"max_size" toml:"max_size"`
	Padding  int      `json:"padding" toml:"padding"`
	Colors   []string `json:"colors" toml:"colors"`

	// Stopping conditions
	Ratio    float64 `json:"ratio" toml:"ratio"`
	MaxTries int     `json:"max_tries" toml:"max_tries"`
	Seed     uint64  `json:"seed" toml:"seed"`

	// Render
	Formats    []string `json:"formats,omitempty" toml:"formats,omitempty"`
	Scale      float64  `json:"scale,omitempty" toml:"scale,omitempty"`
	Background string   `json:"background,omitempty" toml:"background,omitempty"`
	Mask       bool     `json:"mask,omitempty" toml:"mask,omitempty"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	// Progress, if set, receives a snapshot after every placement attempt.
	Progress func(place.Progress) `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns options with every default applied. Text and
// Words have no default.
func DefaultOptions() Options {
	return Options{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		Margin:   DefaultMargin,
		TextSize: cloud.AutoFit(),
		Font:     fonts.DefaultName,
		MinSize:  DefaultMinSize,
		MaxSize:  DefaultMaxSize,
		Padding:  DefaultPadding,
		Colors:   append([]string(nil), DefaultColors...),
		Ratio:    DefaultRatio,
		MaxTries: DefaultMaxTries,
		Seed:     DefaultSeed,
		Formats:  append([]string(nil), DefaultFormats...),
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the composed word cloud.
	Scene cloud.Scene

	// SceneHash identifies the scene's inputs; artifacts are cached under it.
	SceneHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Mask is the silhouette PNG, set when Options.Mask is true.
	Mask []byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution timings.
type Stats struct {
	PrepareTime time.Duration
	ComposeTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SceneHit  bool // Whether the scene came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if _, err := sink.ParseFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults normalizes list fields, fills unset list fields
// and validates everything. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults trims and NFC-normalizes words and colors, lower-cases
// formats and fills empty colors and formats.
func (o *Options) SetDefaults() {
	o.Text = cloud.NormalizeText(o.Text)
	o.Words = normalizeList(o.Words, cloud.NormalizeText)
	o.Colors = normalizeList(o.Colors, nil)
	o.Formats = normalizeList(o.Formats, strings.ToLower)

	if len(o.Colors) == 0 {
		o.Colors = append([]string(nil), DefaultColors...)
	}
	if len(o.Formats) == 0 {
		o.Formats = append([]string(nil), DefaultFormats...)
	}
}

// Validate rejects every configuration error before any work is done.
func (o *Options) Validate() error {
	if err := o.Canvas().Validate(); err != nil {
		return err
	}
	if err := errors.ValidateShapeText(o.Text); err != nil {
		return err
	}
	if n, ok := o.TextSize.Fixed(); ok && n < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "text size must be positive, got %d", n)
	}
	if len(o.Words) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "word list is empty")
	}
	for _, w := range o.Words {
		if err := errors.ValidateWord(w); err != nil {
			return err
		}
	}
	for _, c := range o.Colors {
		if err := errors.ValidateColor(c); err != nil {
			return err
		}
	}
	if o.MinSize < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "minimum word size must be positive, got %d", o.MinSize)
	}
	if o.MinSize > o.MaxSize {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid word size range %d,%d (min > max)", o.MinSize, o.MaxSize)
	}
	if o.Padding < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "padding cannot be negative, got %d", o.Padding)
	}
	if o.Ratio < 0 || o.Ratio > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "ratio must be within [0, 1], got %v", o.Ratio)
	}
	if o.MaxTries < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max tries cannot be negative, got %d", o.MaxTries)
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "scale cannot be negative, got %v", o.Scale)
	}
	if o.Background != "" {
		if _, err := sink.ParseColor(o.Background); err != nil {
			return err
		}
	}
	return ValidateFormats(o.Formats)
}

// Canvas returns the canvas configuration.
func (o *Options) Canvas() cloud.Canvas {
	return cloud.Canvas{Width: o.Width, Height: o.Height, Margin: o.Margin}
}

// WordFontSource returns the word font source, defaulting to the shape font.
func (o *Options) WordFontSource() string {
	if o.WordFont == "" {
		return o.Font
	}
	return o.WordFont
}

// SceneKeyInput is everything that influences placement, hashed for the
// scene cache key.
type SceneKeyInput struct {
	Canvas        cloud.Canvas `json:"canvas"`
	Text          string       `json:"text"`
	TextSize      string       `json:"text_size"`
	ShapeFontHash string       `json:"shape_font"`
	Words         []string     `json:"words"`
	WordFontHash  string       `json:"word_font"`
	MinSize       int          `json:"min_size"`
	MaxSize       int          `json:"max_size"`
	Padding       int          `json:"padding"`
	Colors        []string     `json:"colors"`
	Ratio         float64      `json:"ratio"`
	MaxTries      int          `json:"max_tries"`
	Seed          uint64       `json:"seed"`
}

// SceneKeyInput returns the scene cache key input for the given font hashes.
func (o *Options) SceneKeyInput(shapeFontHash, wordFontHash string) SceneKeyInput {
	return SceneKeyInput{
		Canvas:        o.Canvas(),
		Text:          o.Text,
		TextSize:      o.TextSize.String(),
		ShapeFontHash: shapeFontHash,
		Words:         o.Words,
		WordFontHash:  wordFontHash,
		MinSize:       o.MinSize,
		MaxSize:       o.MaxSize,
		Padding:       o.Padding,
		Colors:        o.Colors,
		Ratio:         o.Ratio,
		MaxTries:      o.MaxTries,
		Seed:          o.Seed,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format, wordFontHash string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	if format == string(sink.FormatJSON) {
		return opts
	}
	opts.Background = o.Background
	if format == string(sink.FormatPNG) {
		opts.Scale = o.Scale
	}
	if format != string(sink.FormatSVG) {
		opts.FontHash = wordFontHash
	}
	return opts
}

func normalizeList(in []string, fn func(string) string) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if fn != nil {
			s = fn(s)
		}
		out = append(out, s)
	}
	return out
}
