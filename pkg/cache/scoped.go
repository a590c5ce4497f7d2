package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful when several teams share one Redis instance:
//
//	teamKeyer := NewScopedKeyer(NewDefaultKeyer(), "team:platform:")
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

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ResolutionKey generates a prefixed key for a project's resolution map.
func (k *ScopedKeyer) ResolutionKey(projectRoot string) string {
	return k.prefix + k.inner.ResolutionKey(projectRoot)
}
