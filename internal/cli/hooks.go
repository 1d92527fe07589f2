package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/shapecloud/pkg/observability"
)

// logHooks logs pipeline and cache events at debug level.
type logHooks struct {
	logger *log.Logger
}

var (
	_ observability.PipelineHooks = (*logHooks)(nil)
	_ observability.CacheHooks    = (*logHooks)(nil)
)

func (h *logHooks) OnFit(_ context.Context, size int, auto bool) {
	h.logger.Debug("shape size", "size", size, "auto", auto)
}

func (h *logHooks) OnMaskComplete(_ context.Context, width, height, cells int, d time.Duration) {
	h.logger.Debug("mask built", "width", width, "height", height, "cells", cells, "duration", d)
}

func (h *logHooks) OnPlaceStart(_ context.Context, cells int) {
	h.logger.Debug("placing words", "free", cells)
}

func (h *logHooks) OnPlaceComplete(_ context.Context, words, attempts int, fillRatio float64, d time.Duration) {
	h.logger.Debug("placement done", "words", words, "attempts", attempts, "fill", fillRatio, "duration", d)
}

func (h *logHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("rendering", "formats", formats)
}

func (h *logHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "formats", formats, "err", err)
		return
	}
	h.logger.Debug("rendered", "formats", formats, "duration", d)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
