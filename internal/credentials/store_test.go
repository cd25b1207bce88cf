package credentials

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mymemo-client/internal/domain"
)

func openSQLite(t *testing.T, dsn string) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(dsn)
	require.NoError(t, s.Open())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return openSQLite(t, ":memory:") },
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.Get(ctx)
			assert.ErrorIs(t, err, ErrNoCredentials)

			creds := Credentials{User: domain.User{Username: "alice"}, Token: "tok-1"}
			require.NoError(t, s.Put(ctx, creds))

			got, err := s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, creds, got)

			require.NoError(t, s.Put(ctx, Credentials{User: domain.User{Username: "bob"}, Token: "tok-2"}))
			got, err = s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "bob", got.User.Username)
			assert.Equal(t, "tok-2", got.Token)

			require.NoError(t, s.Clear(ctx))
			_, err = s.Get(ctx)
			assert.ErrorIs(t, err, ErrNoCredentials)
		})
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "state", "credentials.db")

	first := NewSQLiteStore(dsn)
	require.NoError(t, first.Open())
	require.NoError(t, first.Put(ctx, Credentials{User: domain.User{Username: "alice"}, Token: "tok"}))
	require.NoError(t, first.Close())

	second := openSQLite(t, dsn)
	got, err := second.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.User.Username)
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sign := func(claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return s
	}

	t.Run("Should report past exp as expired", func(t *testing.T) {
		token := sign(jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))})
		assert.True(t, TokenExpired(token, now))
	})

	t.Run("Should accept future exp", func(t *testing.T) {
		token := sign(jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))})
		assert.False(t, TokenExpired(token, now))
	})

	t.Run("Should never expire opaque tokens", func(t *testing.T) {
		assert.False(t, TokenExpired("9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b", now))
		assert.False(t, TokenExpired("", now))
	})
}
