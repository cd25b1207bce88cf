package listview

import (
	"sync"

	"mymemo-client/internal/domain"
)

// Sorting selects the order of the list.
type Sorting struct {
	By   domain.SortField `json:"by" yaml:"by"`
	Desc bool             `json:"desc" yaml:"desc"`
}

// Options are the user's choices for how the list is shown. They live for
// the session only.
type Options struct {
	Sorting            Sorting `json:"sorting" yaml:"sorting"`
	FilterText         string  `json:"filterText" yaml:"filterText"`
	ShowFavouritesOnly bool    `json:"showFavouritesOnly" yaml:"showFavouritesOnly"`
}

// DefaultOptions returns newest first, unfiltered.
func DefaultOptions() Options {
	return Options{
		Sorting: Sorting{By: domain.SortByCreated, Desc: true},
	}
}

// Store holds the process-wide view options. Every action notifies
// subscribers, even when the value does not change.
type Store struct {
	mu   sync.Mutex
	opts Options
	subs map[chan struct{}]struct{}
}

// NewStore creates a store holding the default options.
func NewStore() *Store {
	return &Store{
		opts: DefaultOptions(),
		subs: make(map[chan struct{}]struct{}),
	}
}

// Options returns the current options.
func (s *Store) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// SelectSortField orders the list by field, keeping the direction.
func (s *Store) SelectSortField(field domain.SortField) {
	s.update(func(o *Options) { o.Sorting.By = field })
}

// ToggleSortDirection flips ascending and descending.
func (s *Store) ToggleSortDirection() {
	s.update(func(o *Options) { o.Sorting.Desc = !o.Sorting.Desc })
}

// SetFilterText replaces the filter text as typed.
func (s *Store) SetFilterText(text string) {
	s.update(func(o *Options) { o.FilterText = text })
}

// ClearFilterText empties the filter.
func (s *Store) ClearFilterText() {
	s.SetFilterText("")
}

// ToggleFavourites switches between all memos and starred memos only.
func (s *Store) ToggleFavourites() {
	s.update(func(o *Options) { o.ShowFavouritesOnly = !o.ShowFavouritesOnly })
}

// Reset restores the default options. Called on logout.
func (s *Store) Reset() {
	s.update(func(o *Options) { *o = DefaultOptions() })
}

// Subscribe returns a channel that receives a signal after every change and
// a function that ends the subscription. Signals coalesce.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
		})
	}
}

func (s *Store) update(fn func(*Options)) {
	s.mu.Lock()
	fn(&s.opts)
	subs := make([]chan struct{}, 0, len(s.subs))
	for ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
