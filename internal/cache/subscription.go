package cache

import "sync"

// Subscription marks a key as actively used and signals when the entry is
// refreshed, invalidated or reset. Readers react by reading the key again,
// which refetches it if it is stale.
type Subscription struct {
	engine *Engine
	key    Key
	ch     chan struct{}
	once   sync.Once
}

// Subscribe registers interest in key.
func (e *Engine) Subscribe(key Key) *Subscription {
	s := &Subscription{engine: e, key: key, ch: make(chan struct{}, 1)}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs[key] == nil {
		e.subs[key] = make(map[*Subscription]struct{})
	}
	e.subs[key][s] = struct{}{}
	return s
}

// Changes delivers a signal after each change. Signals coalesce: one pending
// signal stands for any number of changes.
func (s *Subscription) Changes() <-chan struct{} {
	return s.ch
}

// Close unregisters the subscription.
func (s *Subscription) Close() {
	s.once.Do(func() {
		e := s.engine
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subs[s.key], s)
		if len(e.subs[s.key]) == 0 {
			delete(e.subs, s.key)
		}
	})
}

func (e *Engine) subscribersLocked(key Key) []*Subscription {
	set := e.subs[key]
	out := make([]*Subscription, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}

func notify(subs []*Subscription) {
	for _, s := range subs {
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
}
