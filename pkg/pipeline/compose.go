package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/matzehuels/shapecloud/pkg/cache"
	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/cloud/fit"
	"github.com/matzehuels/shapecloud/pkg/cloud/mask"
	"github.com/matzehuels/shapecloud/pkg/cloud/place"
	"github.com/matzehuels/shapecloud/pkg/cloud/sink"
	"github.com/matzehuels/shapecloud/pkg/glyph"
	"github.com/matzehuels/shapecloud/pkg/observability"
)

// Plan is a validated, font-resolved run ready to compose.
type Plan struct {
	Config    cloud.Config
	Seed      uint64
	SceneHash string

	// WordFontData is drawn by the PNG and PDF sinks.
	WordFontData []byte
	WordFontHash string
}

// NewRand returns the placement random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Prepare resolves fonts and the shape size and returns the plan for opts.
// opts must already be validated.
func Prepare(ctx context.Context, shapeFont, wordFont *glyph.Font, opts Options) (*Plan, error) {
	canvas := opts.Canvas()
	shape := fit.Resolve(canvas, cloud.ShapeSpec{Text: opts.Text, Font: shapeFont, Size: opts.TextSize})
	_, fixed := opts.TextSize.Fixed()
	observability.Pipeline().OnFit(ctx, shape.Size, !fixed)

	cfg := cloud.Config{
		Canvas: canvas,
		Shape:  shape,
		Fill: cloud.Fill{
			Words:   opts.Words,
			Font:    wordFont,
			MinSize: opts.MinSize,
			MaxSize: opts.MaxSize,
			Padding: opts.Padding,
			Colors:  opts.Colors,
		},
		RatioThreshold: opts.Ratio,
		MaxTries:       opts.MaxTries,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shapeHash := cache.Hash(shapeFont.Data())
	wordHash := cache.Hash(wordFont.Data())
	sceneHash, err := cache.HashJSON(opts.SceneKeyInput(shapeHash, wordHash))
	if err != nil {
		return nil, err
	}

	return &Plan{
		Config:       cfg,
		Seed:         opts.Seed,
		SceneHash:    sceneHash,
		WordFontData: wordFont.Data(),
		WordFontHash: wordHash,
	}, nil
}

// Compose builds the silhouette and places words into it.
func Compose(ctx context.Context, plan *Plan, progress func(place.Progress)) cloud.Scene {
	cfg := plan.Config
	hooks := observability.Pipeline()

	start := time.Now()
	grid := mask.Build(cfg.Canvas, cfg.Shape)
	hooks.OnMaskComplete(ctx, grid.Width(), grid.Height(), grid.Free(), time.Since(start))

	start = time.Now()
	hooks.OnPlaceStart(ctx, grid.Free())
	res := place.Run(grid, cfg.Fill, place.Options{
		RatioThreshold: cfg.RatioThreshold,
		MaxTries:       cfg.MaxTries,
		Progress:       progress,
	}, NewRand(plan.Seed))
	hooks.OnPlaceComplete(ctx, len(res.Words), res.Attempts, res.FillRatio, time.Since(start))

	words := res.Words
	if words == nil {
		words = []cloud.PlacedWord{}
	}
	return cloud.Scene{
		Width:      cfg.Canvas.Width,
		Height:     cfg.Canvas.Height,
		FontFamily: cfg.Fill.Font.Family(),
		ShapeSize:  cfg.Shape.Size,
		Seed:       plan.Seed,
		Words:      words,
		Stats:      res.Stats,
	}
}

// MaskPNG renders the untouched silhouette of plan as a PNG.
func MaskPNG(plan *Plan) ([]byte, error) {
	return sink.RenderMask(mask.Build(plan.Config.Canvas, plan.Config.Shape))
}
