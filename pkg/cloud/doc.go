// Package cloud defines the data model of a shape-filled word cloud.
//
// A word cloud is composed in three steps, each living in its own
// subpackage:
//
//  1. [fit] resolves an auto-fit shape size to the largest size whose text
//     fits inside the canvas interior.
//  2. [mask] renders the shape text into an occupancy grid: true cells are
//     inside the silhouette and free to be covered.
//  3. [place] repeatedly picks a random free cell and a random word and
//     places the word there at the largest size whose rectangle lies
//     entirely on free cells.
//
// The resulting [Scene] is serialized by [sink] as SVG, PNG, PDF or JSON.
//
// # Font sizes
//
// A shape size is requested as a [SizeRequest], which is either fixed or
// auto-fit. Only a resolved [Shape] carries a plain integer size, and only a
// Shape is accepted by the mask builder, so an unresolved size cannot reach
// rasterization.
//
// [fit]: github.com/matzehuels/shapecloud/pkg/cloud/fit
// [mask]: github.com/matzehuels/shapecloud/pkg/cloud/mask
// [place]: github.com/matzehuels/shapecloud/pkg/cloud/place
// [sink]: github.com/matzehuels/shapecloud/pkg/cloud/sink
package cloud
