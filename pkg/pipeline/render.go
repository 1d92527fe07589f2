package pipeline

import (
	"fmt"

	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/cloud/sink"
)

// Render generates output artifacts in the requested formats.
func Render(scene cloud.Scene, fontData []byte, opts Options) (map[string][]byte, error) {
	sinkOpts, err := buildSinkOptions(fontData, opts)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, name := range opts.Formats {
		format, err := sink.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		data, err := sink.Render(format, scene, sinkOpts...)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[string(format)] = data
	}
	return artifacts, nil
}

func buildSinkOptions(fontData []byte, opts Options) ([]sink.Option, error) {
	sinkOpts := []sink.Option{sink.WithFontData(fontData)}
	if opts.Scale > 0 {
		sinkOpts = append(sinkOpts, sink.WithScale(opts.Scale))
	}
	if opts.Background != "" {
		bg, err := sink.ParseColor(opts.Background)
		if err != nil {
			return nil, err
		}
		sinkOpts = append(sinkOpts, sink.WithBackground(bg))
	}
	return sinkOpts, nil
}
