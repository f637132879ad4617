package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several deployments
// or tenants can share one Redis without colliding.
//
//	keyer := cache.NewScopedKeyer(nil, "budgetsolve:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with prefix. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SolveKey implements Keyer.
func (k *ScopedKeyer) SolveKey(problemHash string, opts SolveKeyOpts) string {
	return k.prefix + k.inner.SolveKey(problemHash, opts)
}

// CompareKey implements Keyer.
func (k *ScopedKeyer) CompareKey(problemHash string, opts CompareKeyOpts) string {
	return k.prefix + k.inner.CompareKey(problemHash, opts)
}
