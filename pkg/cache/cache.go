// Package cache stores computed scenes and rendered artifacts.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under a directory, used by the CLI
//   - [RedisCache]: a shared redis instance, used by the HTTP server
//   - [NullCache]: stores nothing, used when caching is disabled
//
// Keys come from a [Keyer]. A scene key hashes everything that influences
// placement (canvas, shape, fill, stopping conditions, seed and the font
// bytes); an artifact key adds the output format and render options on top
// of the scene hash, so one scene can be cached once and rendered many ways.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys for each pipeline stage.
type Keyer interface {
	// SceneKey identifies a placed scene by the hash of its inputs.
	SceneKey(inputHash string) string
	// ArtifactKey identifies a rendered output of a scene.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Scale      float64 `json:"scale,omitempty"`
	Background string  `json:"background,omitempty"`
	FontHash   string  `json:"font_hash,omitempty"`
}

// Default TTLs.
const (
	SceneTTL    = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SceneKey implements Keyer.
func (DefaultKeyer) SceneKey(inputHash string) string {
	return "scene:" + inputHash
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}
