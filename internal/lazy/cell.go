// Package lazy provides an explicit loaded/not-loaded cell for values that
// are computed once per owner instance.
package lazy

// Cell memoizes the first successful load of a value. A failed load leaves the
// cell empty, so the next Get retries. Cells are not safe for concurrent first
// access; the owner must confine them to one goroutine at a time.
type Cell[T any] struct {
	loaded bool
	value  T
}

// Get returns the cached value, calling load on first use.
func (c *Cell[T]) Get(load func() (T, error)) (T, error) {
	if c.loaded {
		return c.value, nil
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value, c.loaded = v, true
	return v, nil
}

// Loaded reports whether a value has been cached.
func (c *Cell[T]) Loaded() bool { return c.loaded }

// Peek returns the cached value without loading.
func (c *Cell[T]) Peek() (T, bool) { return c.value, c.loaded }
