package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The HTTP service scopes workspace exports so that clearing one workspace's
// entries never touches another's.
//
// Example usage:
//
//	wsKeyer := NewScopedKeyer(NewDefaultKeyer(), "ws:0190c1f2:")
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

// CompositeKey generates a prefixed key for composite caching.
func (k *ScopedKeyer) CompositeKey(inputHash string, opts CompositeKeyOpts) string {
	return k.prefix + k.inner.CompositeKey(inputHash, opts)
}

// ExportKey generates a prefixed key for export caching.
func (k *ScopedKeyer) ExportKey(compositeHash string, opts ExportKeyOpts) string {
	return k.prefix + k.inner.ExportKey(compositeHash, opts)
}
