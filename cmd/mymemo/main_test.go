package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mymemo-client/internal/config"
	"mymemo-client/internal/memoserver"
)

type cli struct {
	t      *testing.T
	config string
	server *memoserver.Server
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	devCfg := config.Default().DevServer
	devCfg.JWTSecret = "cli-test"
	srv, err := memoserver.New(devCfg, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	t.Setenv("MYMEMO_API_URL", ts.URL+"/api/")
	t.Setenv("MYMEMO_CREDENTIALS_PATH", filepath.Join(dir, "credentials.db"))
	t.Setenv("MYMEMO_LOG_LEVEL", "error")
	return &cli{t: t, config: filepath.Join(dir, "config.yaml"), server: srv}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), append([]string{"-config", c.config}, args...), strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "You are not logged in")

	out, err = c.run("hunter2\n", "signup", "-username", "erin")
	require.NoError(t, err)
	assert.Contains(t, out, "Welcome, erin.")

	out, err = c.run("", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "erin\n", out)

	out, err = c.run("", "new", "-title", "Buy milk", "-memo", "2%")
	require.NoError(t, err)
	assert.Contains(t, out, "Memo created successfully.")
	assert.Contains(t, out, "Buy milk")

	memos := c.server.Store().ListMemos("erin")
	require.Len(t, memos, 1)
	id := memos[0].ID

	out, err = c.run("", "edit", id, "-title", "Buy oat milk")
	require.NoError(t, err)
	assert.Contains(t, out, "Memo updated successfully.")
	assert.Equal(t, "2%", c.server.Store().ListMemos("erin")[0].Memo)

	out, err = c.run("", "edit", id, "-title", "Buy oat milk")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing changed.")

	out, err = c.run("", "star", id)
	require.NoError(t, err)
	assert.Contains(t, out, "* ")

	out, err = c.run("", "list", "-starred", "-filter", "OAT")
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 1 memos")

	_, err = c.run("n\n", "delete", id)
	require.NoError(t, err)
	assert.Len(t, c.server.Store().ListMemos("erin"), 1)

	_, err = c.run("y\n", "delete", id)
	require.NoError(t, err)
	assert.Empty(t, c.server.Store().ListMemos("erin"))

	out, err = c.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	_, err = c.run("", "whoami")
	assert.Error(t, err)
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("pw\n", "signup", "-username", "frank")
	require.NoError(t, err)

	// Interactive form: blank title, then a real one.
	out, err := c.run("\n\n  Groceries\neggs\n", "new")
	require.NoError(t, err)
	assert.Contains(t, out, "Please enter a title.")
	assert.Contains(t, out, "Memo created successfully.")
	assert.Equal(t, "Groceries", strings.TrimSpace(c.server.Store().ListMemos("frank")[0].Title))
}

func TestShell(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("pw\n", "signup", "-username", "gina")
	require.NoError(t, err)
	_, err = c.run("", "new", "-title", "Call Bob", "-memo", "milk market")
	require.NoError(t, err)
	_, err = c.run("", "new", "-title", "Dentist")
	require.NoError(t, err)

	script := strings.Join([]string{
		"filter milk",
		"sort title",
		"reverse",
		"clear",
		"bogus",
		"quit",
	}, "\n") + "\n"
	out, err := c.run(script, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "2 of 2 memos, by created desc")
	assert.Contains(t, out, `1 of 2 memos, by created desc, matching "milk"`)
	assert.Contains(t, out, `1 of 2 memos, by title desc, matching "milk"`)
	assert.Contains(t, out, `1 of 2 memos, by title asc, matching "milk"`)
	assert.Contains(t, out, "2 of 2 memos, by title asc")
	assert.Contains(t, out, "unknown command")
}

func TestUnknownCommand(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("", "frobnicate")
	assert.EqualError(t, err, `unknown command "frobnicate"`)
}
