package dedupe

// Option applies a configuration option to the OrderedSet.
type Option func(*OrderedSet)

// WithCapacity preallocates room for n keys.
func WithCapacity(n int) Option {
	return func(s *OrderedSet) {
		if n > 0 {
			s.keys = make([]string, 0, n)
		}
	}
}

// WithSkip drops keys for which fn returns true, e.g. empty references.
func WithSkip(fn func(key string) bool) Option {
	return func(s *OrderedSet) {
		if fn != nil {
			s.skip = fn
		}
	}
}
