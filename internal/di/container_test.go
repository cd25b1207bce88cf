package di

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mymemo-client/internal/config"
	"mymemo-client/internal/domain"
	"mymemo-client/internal/editsession"
	"mymemo-client/internal/memoserver"
)

type autoConfirm struct{ prompts []string }

func (a *autoConfirm) Confirm(_ context.Context, prompt string) (bool, error) {
	a.prompts = append(a.prompts, prompt)
	return true, nil
}

type navLog struct{ backs int }

func (n *navLog) BackToList(context.Context) { n.backs++ }

func newServer(t *testing.T) string {
	t.Helper()
	cfg := config.Default().DevServer
	cfg.JWTSecret = "di-test"
	srv, err := memoserver.New(cfg, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL + "/api/"
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	cfg := config.Default()
	cfg.API.BaseURL = baseURL
	cfg.Logging.Level = "error"
	cfg.Credentials.Path = filepath.Join(t.TempDir(), "credentials.db")
	return cfg
}

func TestInitializeContainer(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, newServer(t))
	nav := &navLog{}

	c, cleanup, err := InitializeContainer(ctx, cfg, &autoConfirm{}, nav)
	require.NoError(t, err)
	defer cleanup()

	assert.False(t, c.Session.IsLoggedIn())
	_, err = c.Session.Signup(ctx, domain.Credentials{Username: "carol", Password: "secret"})
	require.NoError(t, err)

	form := c.Editor.OpenCreate()
	require.NoError(t, form.SetField(domain.FieldTitle, "Water plants"))
	res, err := form.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, editsession.Persisted, res.Outcome)
	assert.Equal(t, 1, nav.backs)

	view, err := c.List.View(ctx)
	require.NoError(t, err)
	require.Len(t, view.Memos, 1)
	assert.Equal(t, "Water plants", view.Memos[0].Title)

	edit, err := c.Editor.OpenUpdate(ctx, res.Memo.ID)
	require.NoError(t, err)
	res, err = edit.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, editsession.NoOpSkip, res.Outcome)
}

func TestSessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, newServer(t))

	first, cleanup, err := InitializeContainer(ctx, cfg, &autoConfirm{}, &navLog{})
	require.NoError(t, err)
	_, err = first.Session.Signup(ctx, domain.Credentials{Username: "dave", Password: "pw"})
	require.NoError(t, err)
	cleanup()

	second, cleanup, err := InitializeContainer(ctx, cfg, &autoConfirm{}, &navLog{})
	require.NoError(t, err)
	defer cleanup()

	user, ok := second.Session.CurrentUser()
	assert.True(t, ok)
	assert.Equal(t, "dave", user.Username)

	_, err = second.List.View(ctx)
	assert.NoError(t, err)
}
