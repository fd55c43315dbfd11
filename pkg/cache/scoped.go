package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation, for
// example to keep the server's keys apart from a CLI sharing one Redis.
//
// Example usage:
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "serve:")
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

// PlanKey generates a prefixed key for plan caching.
func (k *ScopedKeyer) PlanKey(drawingHash string, opts PlanKeyOpts) string {
	return k.prefix + k.inner.PlanKey(drawingHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(drawingHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(drawingHash, opts)
}

// PreviewKey generates a prefixed key for preview image caching.
func (k *ScopedKeyer) PreviewKey(drawingHash string, width, height int) string {
	return k.prefix + k.inner.PreviewKey(drawingHash, width, height)
}
