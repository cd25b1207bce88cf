package session_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mymemo-client/internal/cache"
	"mymemo-client/internal/config"
	"mymemo-client/internal/credentials"
	"mymemo-client/internal/domain"
	apperrors "mymemo-client/internal/errors"
	"mymemo-client/internal/gateway"
	"mymemo-client/internal/listview"
	"mymemo-client/internal/memos"
	"mymemo-client/internal/memoserver"
	"mymemo-client/internal/session"
)

type stack struct {
	server  *memoserver.Server
	gateway *gateway.Gateway
	engine  *cache.Engine
	memos   *memos.Service
	store   *listview.Store
	manager *session.Manager
	list    *listview.Controller
}

func newStack(t *testing.T, wrap func(*gateway.Gateway) memos.API) *stack {
	t.Helper()
	ctx := context.Background()

	devCfg := config.Default().DevServer
	devCfg.JWTSecret = "integration"
	srv, err := memoserver.New(devCfg, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	apiCfg := config.Default().API
	apiCfg.BaseURL = ts.URL + "/api/"
	creds := credentials.NewMemoryStore()
	gw, err := gateway.New(apiCfg, creds)
	require.NoError(t, err)

	var memoAPI memos.API = gw
	if wrap != nil {
		memoAPI = wrap(gw)
	}

	engine := cache.NewEngine(nil, nil)
	svc := memos.NewService(memoAPI, engine, nil)
	opts := listview.NewStore()
	mgr, err := session.NewManager(ctx, gw, creds, nil, engine, opts)
	require.NoError(t, err)
	gw.OnUnauthorized(mgr.Invalidate)

	return &stack{
		server:  srv,
		gateway: gw,
		engine:  engine,
		memos:   svc,
		store:   opts,
		manager: mgr,
		list:    listview.NewController(svc, opts, mgr, nil, nil),
	}
}

func (s *stack) seed(t *testing.T, user string, titles ...string) {
	t.Helper()
	key, err := s.server.Store().CreateUser(user, user+"-pw")
	require.NoError(t, err)
	for _, title := range titles {
		s.server.Store().CreateMemo(key, title, "")
	}
}

func (s *stack) login(t *testing.T, user string) {
	t.Helper()
	_, err := s.manager.Login(context.Background(), domain.Credentials{Username: user, Password: user + "-pw"})
	require.NoError(t, err)
}

func titles(v listview.View) []string {
	out := make([]string, len(v.Memos))
	for i, m := range v.Memos {
		out[i] = m.Title
	}
	return out
}

func TestLogoutDoesNotLeakCachedMemos(t *testing.T) {
	s := newStack(t, nil)
	s.seed(t, "x", "x-secret")
	s.seed(t, "y", "y-note")
	ctx := context.Background()

	s.login(t, "x")
	view, err := s.list.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x-secret"}, titles(view))
	s.store.SetFilterText("secret")

	require.NoError(t, s.manager.Logout(ctx))

	_, ok := cache.Peek[[]domain.Memo](s.engine, memos.ListKey)
	assert.False(t, ok, "logout leaves nothing cached")
	assert.Equal(t, listview.DefaultOptions(), s.store.Options())
	_, err = s.list.View(ctx)
	assert.ErrorIs(t, err, listview.ErrNotLoggedIn)

	s.login(t, "y")
	view, err = s.list.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"y-note"}, titles(view))
}

// slowList holds the first list request until released.
type slowList struct {
	*gateway.Gateway
	started chan struct{}
	release chan struct{}
	first   bool
}

func (s *slowList) ListMemos(ctx context.Context) ([]domain.Memo, error) {
	if !s.first {
		s.first = true
		memos, err := s.Gateway.ListMemos(ctx)
		close(s.started)
		<-s.release
		return memos, err
	}
	return s.Gateway.ListMemos(ctx)
}

func TestResponseInFlightAcrossLogoutIsDiscarded(t *testing.T) {
	slow := &slowList{started: make(chan struct{}), release: make(chan struct{})}
	s := newStack(t, func(gw *gateway.Gateway) memos.API {
		slow.Gateway = gw
		return slow
	})
	s.seed(t, "x", "x-secret")
	s.seed(t, "y", "y-note")
	ctx := context.Background()

	s.login(t, "x")
	pending := make(chan error, 1)
	go func() {
		_, err := s.list.View(ctx)
		pending <- err
	}()
	<-slow.started

	require.NoError(t, s.manager.Logout(ctx))
	s.login(t, "y")
	close(slow.release)

	select {
	case err := <-pending:
		assert.ErrorIs(t, err, cache.ErrReset)
	case <-time.After(2 * time.Second):
		t.Fatal("pending view never returned")
	}

	view, err := s.list.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"y-note"}, titles(view))
}

func TestServerRejectionLogsOut(t *testing.T) {
	s := newStack(t, nil)
	s.seed(t, "x", "note")
	ctx := context.Background()
	s.login(t, "x")

	// Revoke the token behind the client's back.
	require.NoError(t, s.gateway.Logout(ctx))

	_, err := s.list.View(ctx)
	assert.True(t, apperrors.IsAuth(err))
	assert.False(t, s.manager.IsLoggedIn())

	_, err = s.list.View(ctx)
	assert.ErrorIs(t, err, listview.ErrNotLoggedIn)
}

func TestWatchStartedLoggedOutShowsListAfterLogin(t *testing.T) {
	s := newStack(t, nil)
	s.seed(t, "x", "x-note")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type result struct {
		view listview.View
		err  error
	}
	results := make(chan result, 16)
	go func() {
		_ = s.list.Watch(ctx, func(v listview.View, err error) { results <- result{v, err} })
	}()

	first := <-results
	assert.ErrorIs(t, first.err, listview.ErrNotLoggedIn)

	s.login(t, "x")
	deadline := time.After(2 * time.Second)
	for {
		select {
		case r := <-results:
			if r.err == nil {
				assert.Equal(t, []string{"x-note"}, titles(r.view))
				return
			}
		case <-deadline:
			t.Fatal("watch never showed the list after login")
		}
	}
}
