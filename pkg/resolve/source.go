package resolve

import "context"

// Source produces a value for an id.
type Source[T any] interface {
	Name() string
	Fetch(ctx context.Context, id string) (T, error)
}

// FetchFunc is the function form of Source.Fetch.
type FetchFunc[T any] func(ctx context.Context, id string) (T, error)

type funcSource[T any] struct {
	name  string
	fetch FetchFunc[T]
}

// NewSource adapts fetch to a named Source.
func NewSource[T any](name string, fetch FetchFunc[T]) Source[T] {
	return funcSource[T]{name: name, fetch: fetch}
}

func (s funcSource[T]) Name() string { return s.name }

func (s funcSource[T]) Fetch(ctx context.Context, id string) (T, error) {
	return s.fetch(ctx, id)
}

// uncachedSource marks values that are returned but never written back.
type uncachedSource[T any] struct {
	Source[T]
}

// Uncached wraps src so its results are not written to the cache. Use it
// for static placeholders that must not outlive an upstream outage.
func Uncached[T any](src Source[T]) Source[T] {
	return uncachedSource[T]{Source: src}
}

func cacheable[T any](src Source[T]) bool {
	_, skip := src.(uncachedSource[T])
	return !skip
}
