// Package cache implements the client's query cache. Results are tagged when
// they are fetched; mutations declare the tags they invalidate, and every
// entry holding one of those tags is refetched before it is next used.
//
// Ordering rules:
//   - one fetch per key is in flight at a time; concurrent reads share it
//   - a response older than the one already applied for its key is dropped
//   - a response to a request issued before the latest invalidation is
//     stored but stays stale
//   - Reset drops every entry and every response still in flight
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mymemo-client/internal/observability"
)

// ErrReset is returned to readers whose query was pending when the cache was reset.
var ErrReset = errors.New("cache was reset while the query was pending")

type entry struct {
	value    any
	hasValue bool
	err      error
	tags     tagSet
	stale    bool

	// issued is the generation of the latest fetch started for this key,
	// applied the generation of the stored result, invalidatedAt the value
	// of issued when the entry was last invalidated.
	issued        uint64
	applied       uint64
	invalidatedAt uint64
	invalidations uint64
}

// Engine is the shared query cache. It is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	entries map[Key]*entry
	subs    map[Key]map[*Subscription]struct{}
	epoch   uint64
	group   singleflight.Group

	logger  *zap.Logger
	metrics *observability.Collector
}

// NewEngine creates an empty cache. metrics may be nil.
func NewEngine(logger *zap.Logger, metrics *observability.Collector) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		entries: make(map[Key]*entry),
		subs:    make(map[Key]map[*Subscription]struct{}),
		logger:  logger,
		metrics: metrics,
	}
}

// FetchFunc loads the current value of a query from the server.
type FetchFunc func(ctx context.Context) (any, error)

// TagsFunc returns the tags a fetch result is cached under. err is the fetch
// error, in which case value is nil.
type TagsFunc func(value any, err error) []Tag

// read returns the cached value for key, fetching it if the entry is missing
// or stale. On a failed fetch the last known good value, if any, is returned
// together with the error.
func (e *Engine) read(ctx context.Context, key Key, fetch FetchFunc, provides TagsFunc) (any, error) {
	e.mu.Lock()
	ent := e.entryLocked(key)
	if ent.hasValue && !ent.stale {
		v := ent.value
		e.mu.Unlock()
		e.count(func(m *observability.Collector) { m.CacheHits.Inc() })
		return v, nil
	}
	if ent.tags == nil {
		// Until its first result arrives an entry carries the tags its query
		// provides for an empty result, so a mutation landing meanwhile
		// still invalidates it.
		ent.tags = newTagSet(provides(nil, nil))
	}
	epoch := e.epoch
	flight := fmt.Sprintf("%s#%d.%d", key, epoch, ent.invalidations)
	e.mu.Unlock()
	e.count(func(m *observability.Collector) { m.CacheMisses.Inc() })

	// The fetch outlives a reader that gives up; its result still lands in
	// the cache for everyone else.
	fetchCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan(flight, func() (any, error) {
		gen, ok := e.issue(key, epoch)
		if !ok {
			return nil, ErrReset
		}
		e.logger.Debug("Fetching query", zap.Stringer("key", key), zap.Uint64("generation", gen))
		v, err := fetch(fetchCtx)
		return e.settle(key, epoch, gen, v, err, provides)
	})

	select {
	case res := <-ch:
		if res.Shared {
			e.count(func(m *observability.Collector) { m.CacheSharedReads.Inc() })
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// issue allocates the next fetch generation for key.
func (e *Engine) issue(key Key, epoch uint64) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if epoch != e.epoch {
		return 0, false
	}
	ent := e.entryLocked(key)
	ent.issued++
	return ent.issued, true
}

// settle applies a fetch result and returns what the reader should see.
func (e *Engine) settle(key Key, epoch, gen uint64, v any, fetchErr error, provides TagsFunc) (any, error) {
	status := "ok"
	if fetchErr != nil {
		status = "error"
	}
	e.count(func(m *observability.Collector) { m.CacheFetches.WithLabelValues(key.Resource, status).Inc() })

	e.mu.Lock()
	if epoch != e.epoch {
		e.mu.Unlock()
		e.discarded(key, gen, "cache was reset")
		if fetchErr != nil {
			return nil, fetchErr
		}
		return nil, ErrReset
	}

	ent := e.entryLocked(key)
	if gen < ent.applied {
		current, hasCurrent := ent.value, ent.hasValue
		e.mu.Unlock()
		e.discarded(key, gen, "superseded by a newer response")
		if hasCurrent {
			return current, nil
		}
		return v, fetchErr
	}
	ent.applied = gen

	if fetchErr != nil {
		ent.err = fetchErr
		for _, t := range provides(nil, fetchErr) {
			if ent.tags == nil {
				ent.tags = make(tagSet)
			}
			ent.tags[t] = struct{}{}
		}
		last, hasLast := ent.value, ent.hasValue
		e.mu.Unlock()

		e.logger.Warn("Query fetch failed",
			zap.Stringer("key", key),
			zap.Bool("kept_last_value", hasLast),
			zap.Error(fetchErr),
		)
		if hasLast {
			return last, fetchErr
		}
		return nil, fetchErr
	}

	ent.value = v
	ent.hasValue = true
	ent.err = nil
	ent.tags = newTagSet(provides(v, nil))
	ent.stale = gen <= ent.invalidatedAt
	subs := e.subscribersLocked(key)
	e.mu.Unlock()

	notify(subs)
	return v, nil
}

func (e *Engine) discarded(key Key, gen uint64, reason string) {
	e.count(func(m *observability.Collector) { m.CacheDiscarded.Inc() })
	e.logger.Debug("Discarded query response",
		zap.Stringer("key", key),
		zap.Uint64("generation", gen),
		zap.String("reason", reason),
	)
}

// Invalidate marks every entry holding one of tags stale. All entries are
// marked under one lock so no reader sees a partially invalidated cache.
func (e *Engine) Invalidate(tags ...Tag) {
	if len(tags) == 0 {
		return
	}

	e.mu.Lock()
	var subs []*Subscription
	marked := 0
	for key, ent := range e.entries {
		if !ent.tags.intersects(tags) {
			continue
		}
		ent.stale = true
		ent.invalidatedAt = ent.issued
		ent.invalidations++
		marked++
		subs = append(subs, e.subscribersLocked(key)...)
	}
	e.mu.Unlock()

	e.count(func(m *observability.Collector) { m.CacheInvalidations.Add(float64(marked)) })
	e.logger.Debug("Invalidated tags",
		zap.Stringers("tags", tags),
		zap.Int("entries", marked),
	)
	notify(subs)
}

// Reset drops every entry. Responses to requests issued before the reset are
// discarded when they arrive. Subscriptions survive and are notified.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.epoch++
	e.entries = make(map[Key]*entry)
	var subs []*Subscription
	for key := range e.subs {
		subs = append(subs, e.subscribersLocked(key)...)
	}
	e.mu.Unlock()

	e.logger.Debug("Cache reset")
	notify(subs)
}

// EntryState describes a cache entry for inspection.
type EntryState struct {
	HasValue    bool
	Stale       bool
	Err         error
	Tags        []Tag
	Subscribers int
}

// Inspect reports the state of the entry for key.
func (e *Engine) Inspect(key Key) (EntryState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[key]
	if !ok {
		return EntryState{}, false
	}
	return EntryState{
		HasValue:    ent.hasValue,
		Stale:       ent.stale,
		Err:         ent.err,
		Tags:        ent.tags.list(),
		Subscribers: len(e.subs[key]),
	}, true
}

func (e *Engine) peek(key Key) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ent, ok := e.entries[key]
	if !ok || !ent.hasValue {
		return nil, false
	}
	return ent.value, true
}

func (e *Engine) entryLocked(key Key) *entry {
	ent, ok := e.entries[key]
	if !ok {
		ent = &entry{}
		e.entries[key] = ent
	}
	return ent
}

func (e *Engine) count(fn func(*observability.Collector)) {
	if e.metrics != nil {
		fn(e.metrics)
	}
}
