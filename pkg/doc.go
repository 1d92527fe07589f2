// Package pkg holds the shapecloud libraries.
//
// Shapecloud packs words into the silhouette of a large piece of text. A
// run flows through these packages:
//
//	cloud/fit    resolve an auto-fit shape size
//	cloud/mask   rasterize the shape text into a boolean grid
//	cloud/place  randomly place words on free cells until a fill ratio
//	cloud/sink   serialize the scene as SVG, PNG, PDF or JSON
//
// [pipeline] ties the stages together with caching ([cache]) and is used by
// both the CLI and the HTTP API ([server]). Fonts come from [fonts] and are
// measured and rasterized by [glyph]; [config] loads TOML option files.
//
// # Quick Start
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	opts := pipeline.DefaultOptions()
//	opts.Text = "BRICS"
//	opts.Words = []string{"Brazil", "Russia", "India", "China", "South Africa"}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("brics.svg", result.Artifacts["svg"], 0o644)
package pkg
