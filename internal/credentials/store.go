// Package credentials persists the logged-in user and their auth token.
package credentials

import (
	"context"
	"errors"
	"sync"

	"mymemo-client/internal/domain"
)

// ErrNoCredentials is returned by Get when nobody is logged in.
var ErrNoCredentials = errors.New("no stored credentials")

// Credentials is what the store holds for the logged-in user.
type Credentials struct {
	User  domain.User
	Token string
}

// Store is an opaque credential store. Clear removes the user and token together.
type Store interface {
	Get(ctx context.Context) (Credentials, error)
	Put(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps credentials for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	creds *Credentials
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored credentials.
func (s *MemoryStore) Get(ctx context.Context) (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.creds == nil {
		return Credentials{}, ErrNoCredentials
	}
	return *s.creds, nil
}

// Put replaces the stored credentials.
func (s *MemoryStore) Put(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = &creds
	return nil
}

// Clear removes the stored credentials.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = nil
	return nil
}
