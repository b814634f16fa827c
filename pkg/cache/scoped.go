package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share one
// cache backend without their keys colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "pedigree:staging:")
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

// ImageKey generates a prefixed key for a rendered image.
func (k *ScopedKeyer) ImageKey(imageHash, viewerID string) string {
	return k.prefix + k.inner.ImageKey(imageHash, viewerID)
}
