package cache

import "context"

// Query describes a cached read.
type Query[T any] struct {
	Key   Key
	Fetch func(ctx context.Context) (T, error)
	// ProvidesTags returns the tags the result is cached under. On a failed
	// fetch it is called with the zero value and the error.
	ProvidesTags func(result T, err error) []Tag
}

// Read returns the cached result of q, fetching it when the entry is missing
// or stale. When a fetch fails the last known good value is returned along
// with the error.
func Read[T any](ctx context.Context, e *Engine, q Query[T]) (T, error) {
	fetch := func(ctx context.Context) (any, error) {
		return q.Fetch(ctx)
	}
	provides := func(v any, err error) []Tag {
		if q.ProvidesTags == nil {
			return nil
		}
		var typed T
		if v != nil {
			typed = v.(T)
		}
		return q.ProvidesTags(typed, err)
	}

	v, err := e.read(ctx, q.Key, fetch, provides)
	var out T
	if v != nil {
		out = v.(T)
	}
	return out, err
}

// Peek returns the cached value for key without fetching, stale or not.
func Peek[T any](e *Engine, key Key) (T, bool) {
	var out T
	v, ok := e.peek(key)
	if !ok {
		return out, false
	}
	out, ok = v.(T)
	return out, ok
}

// Mutation describes a write whose success invalidates cached reads.
type Mutation[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
	// Invalidates returns the tags made stale by a successful run.
	Invalidates func(result T) []Tag
}

// Mutate runs m and, if it succeeds, invalidates the tags it declares.
// A failed mutation leaves the cache untouched.
func Mutate[T any](ctx context.Context, e *Engine, m Mutation[T]) (T, error) {
	result, err := m.Run(ctx)
	if err != nil {
		return result, err
	}
	if m.Invalidates != nil {
		e.Invalidate(m.Invalidates(result)...)
	}
	return result, nil
}
