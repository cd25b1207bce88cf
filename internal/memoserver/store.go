package memoserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mymemo-client/internal/domain"
)

var (
	errUserExists   = errors.New("username already taken")
	errBadLogin     = errors.New("invalid username or password")
	errMemoNotFound = errors.New("memo not found")
)

type account struct {
	username string
	hash     []byte
}

// Store keeps users and their memos in memory.
type Store struct {
	mu    sync.RWMutex
	users map[string]account
	memos map[string]map[string]domain.Memo
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]account),
		memos: make(map[string]map[string]domain.Memo),
		now:   time.Now,
	}
}

func normaliseUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// CreateUser registers username with a bcrypt hash of password.
func (s *Store) CreateUser(username, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	key := normaliseUsername(username)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return "", errUserExists
	}
	s.users[key] = account{username: strings.TrimSpace(username), hash: hash}
	s.memos[key] = make(map[string]domain.Memo)
	return key, nil
}

// Authenticate checks a password and returns the user's key.
func (s *Store) Authenticate(username, password string) (string, error) {
	key := normaliseUsername(username)
	s.mu.RLock()
	acct, ok := s.users[key]
	s.mu.RUnlock()
	if !ok {
		return "", errBadLogin
	}
	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		return "", errBadLogin
	}
	return key, nil
}

// ListMemos returns a user's memos, oldest first.
func (s *Store) ListMemos(user string) []domain.Memo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Memo, 0, len(s.memos[user]))
	for _, m := range s.memos[user] {
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// GetMemo returns one memo owned by user.
func (s *Store) GetMemo(user, id string) (domain.Memo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.memos[user][id]
	if !ok {
		return domain.Memo{}, errMemoNotFound
	}
	return m, nil
}

// CreateMemo stores a new memo for user.
func (s *Store) CreateMemo(user, title, body string) domain.Memo {
	m := domain.Memo{
		ID:      uuid.NewString(),
		Title:   title,
		Memo:    body,
		Created: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memos[user] == nil {
		s.memos[user] = make(map[string]domain.Memo)
	}
	s.memos[user][m.ID] = m
	return m
}

// UpdateMemo replaces the title and body of a memo.
func (s *Store) UpdateMemo(user, id, title, body string) (domain.Memo, error) {
	return s.modify(user, id, func(m *domain.Memo) {
		m.Title = title
		m.Memo = body
	})
}

// ToggleFavourite flips the favourite flag of a memo.
func (s *Store) ToggleFavourite(user, id string) (domain.Memo, error) {
	return s.modify(user, id, func(m *domain.Memo) {
		m.Favourite = !m.Favourite
	})
}

// DeleteMemo removes a memo.
func (s *Store) DeleteMemo(user, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.memos[user][id]; !ok {
		return errMemoNotFound
	}
	delete(s.memos[user], id)
	return nil
}

func (s *Store) modify(user, id string, fn func(*domain.Memo)) (domain.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memos[user][id]
	if !ok {
		return domain.Memo{}, errMemoNotFound
	}
	fn(&m)
	s.memos[user][id] = m
	return m, nil
}
