package tracks

import "context"

// Cache memoizes the result of a loader until it is invalidated.
//
// Failed loads are not remembered. A Cache is not safe for concurrent use.
type Cache[T any] struct {
	load   func(context.Context) (T, error)
	value  T
	loaded bool
}

// NewCache returns an empty [Cache] backed by load.
func NewCache[T any](load func(context.Context) (T, error)) *Cache[T] {
	return &Cache[T]{load: load}
}

// Get returns the cached value, calling the loader first if the cache is empty.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	if c.loaded {
		return c.value, nil
	}

	v, err := c.load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.value, c.loaded = v, true
	return v, nil
}

// Invalidate drops the cached value so the next [Cache.Get] reloads.
func (c *Cache[T]) Invalidate() {
	var zero T
	c.value, c.loaded = zero, false
}

// Loaded reports whether a value is cached.
func (c *Cache[T]) Loaded() bool {
	return c.loaded
}
