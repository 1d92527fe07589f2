package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shapecloud/pkg/cache"
	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/cloud/sink"
	"github.com/matzehuels/shapecloud/pkg/fonts"
	"github.com/matzehuels/shapecloud/pkg/glyph"
	"github.com/matzehuels/shapecloud/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// Parsed fonts are kept for the runner's lifetime so their glyph face
// caches are shared between runs. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	fontsMu sync.Mutex
	fonts   map[string]*glyph.Font
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		fonts:  make(map[string]*glyph.Font),
	}
}

// Execute runs the complete prepare → compose → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	result := &Result{}

	// Stage 1: Prepare
	prepareStart := time.Now()
	plan, err := r.Prepare(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	result.SceneHash = plan.SceneHash
	result.Stats.PrepareTime = time.Since(prepareStart)

	r.Logger.Debug("resolved shape",
		"text", plan.Config.Shape.Text,
		"size", plan.Config.Shape.Size,
		"auto", opts.TextSize.IsAutoFit())

	if opts.Mask {
		if result.Mask, err = MaskPNG(plan); err != nil {
			return nil, fmt.Errorf("mask: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Compose
	composeStart := time.Now()
	scene, sceneHit, err := r.ComposeWithCacheInfo(ctx, plan, opts)
	if err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	result.Scene = scene
	result.Stats.ComposeTime = time.Since(composeStart)
	result.CacheInfo.SceneHit = sceneHit

	r.Logger.Info("placed words",
		"words", len(scene.Words),
		"attempts", scene.Stats.Attempts,
		"fill", fmt.Sprintf("%.3f", scene.Stats.FillRatio),
		"cached", sceneHit,
		"duration", result.Stats.ComposeTime)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, scene, plan, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Prepare loads the fonts named by opts and resolves the shape.
func (r *Runner) Prepare(ctx context.Context, opts Options) (*Plan, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	shapeFont, err := r.LoadFont(opts.Font)
	if err != nil {
		return nil, err
	}
	wordFont, err := r.LoadFont(opts.WordFontSource())
	if err != nil {
		return nil, err
	}
	return Prepare(ctx, shapeFont, wordFont, opts)
}

// ComposeWithCacheInfo composes the scene for plan with caching and returns
// cache hit info.
func (r *Runner) ComposeWithCacheInfo(ctx context.Context, plan *Plan, opts Options) (cloud.Scene, bool, error) {
	cacheKey := r.Keyer.SceneKey(plan.SceneHash)
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if scene, err := sink.ParseJSON(data); err == nil {
				hooks.OnCacheHit(ctx, "scene")
				return scene, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("scene cache read failed", "error", err)
		}
	}
	hooks.OnCacheMiss(ctx, "scene")

	scene := Compose(ctx, plan, opts.Progress)

	if data, err := sink.RenderJSON(scene); err == nil {
		r.store(ctx, "scene", cacheKey, data, cache.SceneTTL)
	}
	return scene, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, scene cloud.Scene, plan *Plan, opts Options) (map[string][]byte, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, hit, err := r.render(ctx, scene, plan, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, hit, err
}

func (r *Runner) render(ctx context.Context, scene cloud.Scene, plan *Plan, opts Options) (map[string][]byte, bool, error) {
	keys := make(map[string]string, len(opts.Formats))
	for _, format := range opts.Formats {
		keys[format] = r.Keyer.ArtifactKey(plan.SceneHash, opts.ArtifactKeyOpts(format, plan.WordFontHash))
	}

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for format, key := range keys {
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := Render(scene, plan.WordFontData, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range rendered {
		r.store(ctx, "artifact", keys[format], data, cache.ArtifactTTL)
	}
	return rendered, false, nil
}

// LoadFont returns the parsed font for src, parsing each distinct font
// file once per runner.
func (r *Runner) LoadFont(src string) (*glyph.Font, error) {
	data, err := fonts.Load(src)
	if err != nil {
		return nil, err
	}
	key := cache.Hash(data)

	r.fontsMu.Lock()
	defer r.fontsMu.Unlock()
	if r.fonts == nil {
		r.fonts = make(map[string]*glyph.Font)
	}
	if f, ok := r.fonts[key]; ok {
		return f, nil
	}
	f, err := glyph.Parse(data)
	if err != nil {
		return nil, err
	}
	r.fonts[key] = f
	return f, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// store writes to the cache; failures are logged, never fatal.
func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}
