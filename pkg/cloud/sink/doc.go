// Package sink serializes a finished [cloud.Scene].
//
// # Formats
//
//   - SVG: one <text> element per placed word, in placement order
//   - PNG: the scene rasterized with github.com/tdewolff/canvas, one pixel per unit
//   - PDF: the scene drawn on a single page of the same size
//   - JSON: the scene itself, for caching and external tools
//
// [RenderMask] additionally writes the diagnostic silhouette image: free
// cells opaque white, everything else transparent.
//
// SVG output only references the font by family name. PNG and PDF embed
// the glyph outlines, so they need the word font's data ([WithFontData]);
// without it the embedded Go Regular font is used.
//
// [Render] dispatches on a [Format] and is what the pipeline calls.
package sink
