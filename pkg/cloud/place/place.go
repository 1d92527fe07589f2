// Package place packs words into the free cells of a silhouette grid.
//
// Each attempt samples one free cell and one word, then tries the word's
// sizes from largest to smallest with its top-left corner on that cell. The
// first size whose padded bounding box lies entirely on free cells wins: the
// word is recorded and its rectangle claimed. A failed size search leaves the
// grid untouched but still consumes the attempt.
package place

import (
	"image"
	"math/rand/v2"

	"github.com/matzehuels/shapecloud/pkg/cloud"
	"github.com/matzehuels/shapecloud/pkg/cloud/mask"
)

// Options controls when a run stops.
type Options struct {
	// RatioThreshold stops the run once the fill ratio reaches it.
	RatioThreshold float64
	// MaxTries bounds the number of attempts.
	MaxTries int
	// Progress, if set, is called after every attempt.
	Progress func(Progress)
}

// Progress is a snapshot taken after an attempt.
type Progress struct {
	Attempts  int
	MaxTries  int
	Placed    int
	FreeArea  int
	FillRatio float64
	// Word is the word placed by this attempt, nil when the attempt failed.
	Word *cloud.PlacedWord
}

// Result is the outcome of a run. Words are in placement order.
type Result struct {
	Words []cloud.PlacedWord
	cloud.Stats
}

type sizeKey struct {
	word int
	size int
}

// Run places words from fill into grid until the fill ratio reaches
// opts.RatioThreshold, opts.MaxTries attempts have been made, or the grid
// has no free cell. The grid is mutated in place. All randomness comes
// from rng, so equal seeds give equal results.
//
// Run does not validate fill; an empty word or color list places nothing.
func Run(grid *mask.Grid, fill cloud.Fill, opts Options, rng *rand.Rand) Result {
	total := grid.Total()
	res := Result{Stats: cloud.Stats{TotalArea: total}}

	canPlace := len(fill.Words) > 0 && len(fill.Colors) > 0 && fill.Font != nil && fill.MinSize <= fill.MaxSize
	measured := make(map[sizeKey]image.Point)
	measure := func(word, size int) image.Point {
		k := sizeKey{word, size}
		if p, ok := measured[k]; ok {
			return p
		}
		w, h := fill.Font.Measure(fill.Words[word], size, fill.Padding)
		p := image.Pt(w, h)
		measured[k] = p
		return p
	}

	for canPlace {
		if cloud.FillRatio(grid.Free(), total) >= opts.RatioThreshold || res.Attempts >= opts.MaxTries {
			break
		}
		cell, ok := grid.Sample(rng)
		if !ok {
			break
		}
		word := rng.IntN(len(fill.Words))

		var placed *cloud.PlacedWord
		for size := fill.MaxSize; size >= fill.MinSize; size-- {
			dim := measure(word, size)
			r := image.Rectangle{Min: cell, Max: cell.Add(dim)}
			if !grid.Fits(r) {
				continue
			}
			pw := cloud.PlacedWord{
				Text:   fill.Words[word],
				X:      cell.X,
				Y:      cell.Y,
				Size:   size,
				Color:  fill.Colors[rng.IntN(len(fill.Colors))],
				Width:  dim.X,
				Height: dim.Y,
			}
			grid.Claim(r)
			res.Words = append(res.Words, pw)
			placed = &pw
			break
		}
		res.Attempts++

		if opts.Progress != nil {
			opts.Progress(Progress{
				Attempts:  res.Attempts,
				MaxTries:  opts.MaxTries,
				Placed:    len(res.Words),
				FreeArea:  grid.Free(),
				FillRatio: cloud.FillRatio(grid.Free(), total),
				Word:      placed,
			})
		}
	}

	res.FreeArea = grid.Free()
	res.FillRatio = cloud.FillRatio(res.FreeArea, total)
	return res
}
