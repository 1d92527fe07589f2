package cache

// ScopedKeyer wraps a Keyer with a prefix so several tenants can share one
// backend, e.g. the server namespacing its keys in a shared redis:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "shapecloud:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SceneKey generates a prefixed scene key.
func (k *ScopedKeyer) SceneKey(inputHash string) string {
	return k.prefix + k.inner.SceneKey(inputHash)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sceneHash, opts)
}
