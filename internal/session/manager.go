// Package session tracks who is logged in and tears down per-user state on
// logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"mymemo-client/internal/credentials"
	"mymemo-client/internal/domain"
	"mymemo-client/internal/validation"
	"mymemo-client/pkg/api"
)

// AuthAPI is the server side of login and logout.
type AuthAPI interface {
	Signup(ctx context.Context, creds domain.Credentials) (api.TokenResponse, error)
	Login(ctx context.Context, creds domain.Credentials) (api.TokenResponse, error)
	Logout(ctx context.Context) error
}

// Resetter is process-wide state that must not survive a change of user.
type Resetter interface {
	Reset()
}

// ResetFunc adapts a function to Resetter.
type ResetFunc func()

// Reset calls f.
func (f ResetFunc) Reset() { f() }

// Manager owns the login state.
type Manager struct {
	api       AuthAPI
	store     credentials.Store
	validator *validation.Validator
	logger    *zap.Logger

	mu        sync.RWMutex
	user      domain.User
	loggedIn  bool
	resetters []Resetter
	subs      map[chan struct{}]struct{}
}

// NewManager creates a manager whose initial state is restored from store:
// logged in if and only if a token is stored.
func NewManager(ctx context.Context, authAPI AuthAPI, store credentials.Store, logger *zap.Logger, resetters ...Resetter) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		api:       authAPI,
		store:     store,
		validator: validation.Default(),
		logger:    logger,
		resetters: resetters,
		subs:      make(map[chan struct{}]struct{}),
	}

	creds, err := store.Get(ctx)
	switch {
	case errors.Is(err, credentials.ErrNoCredentials):
	case err != nil:
		return nil, fmt.Errorf("restore session: %w", err)
	case creds.Token != "":
		m.user = creds.User
		m.loggedIn = true
		logger.Debug("Restored session", zap.String("username", creds.User.Username))
	}
	return m, nil
}

// OnReset adds state to reset whenever the user changes.
func (m *Manager) OnReset(r Resetter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetters = append(m.resetters, r)
}

// Login authenticates with the server and stores the returned token.
func (m *Manager) Login(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	return m.authenticate(ctx, "login", m.api.Login, creds)
}

// Signup registers a new user and logs them in.
func (m *Manager) Signup(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	return m.authenticate(ctx, "signup", m.api.Signup, creds)
}

func (m *Manager) authenticate(
	ctx context.Context,
	op string,
	call func(context.Context, domain.Credentials) (api.TokenResponse, error),
	creds domain.Credentials,
) (domain.User, error) {
	if err := m.validator.Struct(creds); err != nil {
		return domain.User{}, err
	}

	resp, err := call(ctx, creds)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{Username: resp.Username}
	if user.Username == "" {
		user.Username = creds.Username
	}
	if err := m.store.Put(ctx, credentials.Credentials{User: user, Token: resp.Token}); err != nil {
		return domain.User{}, fmt.Errorf("store credentials: %w", err)
	}

	// Anything cached before this point belongs to whoever was here before.
	m.resetAll()

	m.mu.Lock()
	m.user = user
	m.loggedIn = true
	m.mu.Unlock()
	m.notify()

	m.logger.Info("User logged in", zap.String("username", user.Username), zap.String("via", op))
	return user, nil
}

// Logout ends the session. The server is told first so it can revoke the
// token; if that fails the failure is logged and the local session ends
// anyway.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.RLock()
	user, loggedIn := m.user, m.loggedIn
	m.mu.RUnlock()

	if loggedIn {
		if err := m.api.Logout(ctx); err != nil {
			m.logger.Error("Remote logout failed",
				zap.String("username", user.Username),
				zap.Error(err),
			)
		}
	}

	err := m.endLocal(ctx)
	m.logger.Info("User logged out", zap.String("username", user.Username))
	return err
}

// Invalidate ends the session locally without contacting the server. It is
// used when the server has already rejected the token.
func (m *Manager) Invalidate(ctx context.Context) {
	m.mu.RLock()
	loggedIn := m.loggedIn
	m.mu.RUnlock()
	if !loggedIn {
		return
	}

	m.logger.Warn("Session invalidated by server")
	if err := m.endLocal(ctx); err != nil {
		m.logger.Error("Failed to clear credentials", zap.Error(err))
	}
}

func (m *Manager) endLocal(ctx context.Context) error {
	err := m.store.Clear(ctx)

	m.mu.Lock()
	m.user = domain.User{}
	m.loggedIn = false
	m.mu.Unlock()

	m.resetAll()
	m.notify()
	if err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (m *Manager) resetAll() {
	m.mu.RLock()
	resetters := make([]Resetter, len(m.resetters))
	copy(resetters, m.resetters)
	m.mu.RUnlock()

	for _, r := range resetters {
		r.Reset()
	}
}

// Subscribe returns a channel that receives a signal after every login and
// logout, once the new state is visible, and a function that ends the
// subscription. Signals coalesce.
func (m *Manager) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			m.mu.Unlock()
		})
	}
}

func (m *Manager) notify() {
	m.mu.RLock()
	subs := make([]chan struct{}, 0, len(m.subs))
	for ch := range m.subs {
		subs = append(subs, ch)
	}
	m.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// CurrentUser returns the logged-in user.
func (m *Manager) CurrentUser() (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user, m.loggedIn
}

// IsLoggedIn reports whether a user is logged in.
func (m *Manager) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loggedIn
}
