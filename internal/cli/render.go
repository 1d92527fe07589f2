package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/cloud/place"
	"github.com/matzehuels/shapecloud/pkg/cloud/sink"
	"github.com/matzehuels/shapecloud/pkg/config"
	"github.com/matzehuels/shapecloud/pkg/errors"
	"github.com/matzehuels/shapecloud/pkg/pipeline"
)

// defaultOutputBase names output files when --output is not given.
const defaultOutputBase = "cloud"

// renderOpts holds the command-line flags for the render command.
// Option flags are applied over the config file only when set explicitly.
type renderOpts struct {
	configPath string // TOML config file; the default path is used when present
	output     string // output file (single format) or base path (multiple)
	progress   bool   // live progress view
	noCache    bool   // bypass the scene and artifact cache
	refresh    bool   // recompute even when cached

	canvasSize string   // W,H
	margin     int      // canvas margin in pixels
	text       string   // shape text
	textSize   string   // AutoFit or a fixed size
	font       string   // shape font file
	words      []string // fill words
	wordFont   string   // word font file, defaults to --font
	sizeRange  string   // MIN,MAX word sizes
	padding    int      // extra pixels around each word
	colors     []string // word colors
	maxTries   int      // placement attempts
	ratio      float64  // stop at this fill ratio
	seed       uint64   // random seed
	formats    []string // output formats
	scale      float64  // PNG pixels per canvas pixel
	background string   // background color for all formats
	mask       bool     // also write the silhouette mask as PNG
}

func (c *CLI) renderCommand() *cobra.Command {
	cmd, _ := c.newRenderCommand()
	return cmd
}

// newRenderCommand returns the render command and the flag values it binds.
func (c *CLI) newRenderCommand() (*cobra.Command, *renderOpts) {
	defaults := pipeline.DefaultOptions()
	opts := &renderOpts{
		canvasSize: fmt.Sprintf("%d,%d", defaults.Width, defaults.Height),
		margin:     defaults.Margin,
		textSize:   defaults.TextSize.String(),
		sizeRange:  fmt.Sprintf("%d,%d", defaults.MinSize, defaults.MaxSize),
		padding:    defaults.Padding,
		colors:     defaults.Colors,
		maxTries:   defaults.MaxTries,
		ratio:      defaults.Ratio,
		seed:       defaults.Seed,
		scale:      1,
	}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a word cloud shaped like a text",
		Example: `  shapecloud render -t BRICS --words Brazil,Russia,India,China,"South Africa"
  shapecloud render -t GO --words gopher,channel,goroutine -o go.png --scale 2
  shapecloud render --config cloud.toml --format svg,pdf,json -o out/cloud`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeOpts, err := buildOptions(cmd, opts)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), pipeOpts, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "TOML config file (default: $XDG_CONFIG_HOME/shapecloud/config.toml if present)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple formats)")
	f.BoolVar(&opts.progress, "progress", false, "show a live progress view")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	f.BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached result exists")

	f.StringVar(&opts.canvasSize, "canvas-size", opts.canvasSize, "canvas size as WIDTH,HEIGHT")
	f.IntVar(&opts.margin, "canvas-margin", opts.margin, "margin around the canvas in pixels")
	f.StringVarP(&opts.text, "text", "t", "", "text whose silhouette the words fill")
	f.StringVar(&opts.textSize, "text-size", opts.textSize, "shape text size: AutoFit or a size in pixels")
	f.StringVar(&opts.font, "font", "", "font file for the shape text (default: embedded Go Regular)")
	f.StringSliceVar(&opts.words, "words", nil, "comma-separated words to place")
	f.StringVar(&opts.wordFont, "word-font", "", "font file for the words (default: --font)")
	f.StringVar(&opts.sizeRange, "word-size-range", opts.sizeRange, "word size range as MIN,MAX")
	f.IntVar(&opts.padding, "padding", opts.padding, "extra pixels around each word")
	f.StringSliceVar(&opts.colors, "colors", opts.colors, "comma-separated word colors (names or hex)")
	f.IntVarP(&opts.maxTries, "max-tries", "m", opts.maxTries, "maximum placement attempts")
	f.Float64VarP(&opts.ratio, "ratio", "r", opts.ratio, "stop once this fraction of the silhouette is filled")
	f.Uint64Var(&opts.seed, "seed", opts.seed, "random seed")
	f.StringSliceVarP(&opts.formats, "format", "f", nil, "output format(s): svg (default), png, pdf, json")
	f.Float64Var(&opts.scale, "scale", opts.scale, "PNG pixels per canvas pixel")
	f.StringVar(&opts.background, "background", "", "background color (default: transparent)")
	f.BoolVar(&opts.mask, "mask", false, "also write the silhouette mask as <output>.mask.png")

	return cmd, opts
}

// buildOptions layers the config file, then explicitly set flags, over the
// pipeline defaults.
func buildOptions(cmd *cobra.Command, opts *renderOpts) (pipeline.Options, error) {
	base, err := loadConfig(opts.configPath)
	if err != nil {
		return base, err
	}
	if err := applyFlags(cmd, opts, &base); err != nil {
		return base, err
	}
	if !cmd.Flags().Changed("format") {
		if f, ok := formatFromPath(opts.output); ok {
			base.Formats = []string{string(f)}
		}
	}
	base.Mask = opts.mask
	base.Refresh = opts.refresh
	return base, nil
}

// loadConfig loads path, or the default config file when path is empty and
// the file exists.
func loadConfig(path string) (pipeline.Options, error) {
	base := pipeline.DefaultOptions()
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			return base, nil
		}
		if _, err := os.Stat(def); err != nil {
			return base, nil
		}
		path = def
	}
	return config.Load(path, base)
}

// applyFlags copies every explicitly set flag into o.
func applyFlags(cmd *cobra.Command, opts *renderOpts, o *pipeline.Options) error {
	set := cmd.Flags().Changed

	if set("canvas-size") {
		w, h, err := parsePair(opts.canvasSize, "canvas-size")
		if err != nil {
			return err
		}
		o.Width, o.Height = w, h
	}
	if set("canvas-margin") {
		o.Margin = opts.margin
	}
	if set("text") {
		o.Text = opts.text
	}
	if set("text-size") {
		size, err := cloud.ParseSizeRequest(opts.textSize)
		if err != nil {
			return err
		}
		o.TextSize = size
	}
	if set("font") {
		o.Font = opts.font
	}
	if set("words") {
		o.Words = opts.words
	}
	if set("word-font") {
		o.WordFont = opts.wordFont
	}
	if set("word-size-range") {
		lo, hi, err := parsePair(opts.sizeRange, "word-size-range")
		if err != nil {
			return err
		}
		o.MinSize, o.MaxSize = lo, hi
	}
	if set("padding") {
		o.Padding = opts.padding
	}
	if set("colors") {
		o.Colors = opts.colors
	}
	if set("max-tries") {
		o.MaxTries = opts.maxTries
	}
	if set("ratio") {
		o.Ratio = opts.ratio
	}
	if set("seed") {
		o.Seed = opts.seed
	}
	if set("format") {
		o.Formats = opts.formats
	}
	if set("scale") {
		o.Scale = opts.scale
	}
	if set("background") {
		o.Background = opts.background
	}
	return nil
}

// parsePair parses "A,B" into two integers.
func parsePair(s, flag string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, errors.New(errors.ErrCodeInvalidConfig, "--%s must be two comma-separated integers, got %q", flag, s)
	}
	a, errA := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, errB := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errA != nil || errB != nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidConfig, "--%s must be two comma-separated integers, got %q", flag, s)
	}
	return a, b, nil
}

// formatFromPath returns the format named by path's extension.
func formatFromPath(path string) (sink.Format, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", false
	}
	f, err := sink.ParseFormat(ext)
	return f, err == nil
}

// basePath strips a known format extension from output.
func basePath(output string) string {
	if output == "" {
		return defaultOutputBase
	}
	if _, ok := formatFromPath(output); ok {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return output
}

// outputPaths maps each format to its file. A single format writes to
// output as given; several formats share output's base name.
func outputPaths(output string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, ro *renderOpts) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner := c.newRunner(ro.noCache)
	defer runner.Close()

	prog := newProgress(c.Logger)
	var (
		result *pipeline.Result
		err    error
	)
	switch {
	case ro.progress:
		result, err = runWithProgress(ctx, runner, opts, os.Stderr)
	case !c.verbose() && isTerminal(os.Stderr):
		sp := newSpinnerWithContext(ctx, "Placing words...")
		opts.Progress = func(p place.Progress) {
			if p.Word != nil {
				sp.SetMessage(fmt.Sprintf("Placing words... %d placed, %.0f%% filled", p.Placed, p.FillRatio*100))
			}
		}
		sp.Start()
		result, err = runner.Execute(ctx, opts)
		sp.Stop()
	default:
		result, err = runner.Execute(ctx, opts)
	}
	if err != nil {
		return err
	}

	paths := outputPaths(ro.output, opts.Formats)
	var written []string
	for _, f := range opts.Formats {
		if err := writeOutput(paths[f], result.Artifacts[f]); err != nil {
			return err
		}
		written = append(written, paths[f])
	}
	if opts.Mask {
		path := basePath(ro.output) + ".mask.png"
		if err := writeOutput(path, result.Mask); err != nil {
			return err
		}
		written = append(written, path)
	}
	prog.done(fmt.Sprintf("Wrote %d file(s)", len(written)))

	printCloudSummary(result, written)
	return nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write %s", path)
	}
	return nil
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
