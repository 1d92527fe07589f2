package sink

import (
	"bytes"
	"image/png"

	"github.com/matzehuels/shapecloud/pkg/cloud/mask"
	"github.com/matzehuels/shapecloud/pkg/errors"
)

// RenderMask encodes the free cells of grid as a PNG: opaque white where a
// cell is free, fully transparent elsewhere.
func RenderMask(grid *mask.Grid) ([]byte, error) {
	if grid.Width() == 0 || grid.Height() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mask is empty (%dx%d)", grid.Width(), grid.Height())
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, grid.Image()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode mask png")
	}
	return buf.Bytes(), nil
}
