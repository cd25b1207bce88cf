package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(path string, env map[string]string) *Loader {
	l := NewLoader(path)
	l.getenv = func(key string) string { return env[key] }
	return l
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := newTestLoader("", nil).Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api/", cfg.API.BaseURL)
	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, "en", cfg.ListView.Locale)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mymemo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  baseURL: http://memo.example.com/api
  timeout: 5s
logging:
  level: debug
credentials:
  path: /tmp/creds.db
`), 0600))

	cfg, err := newTestLoader(path, map[string]string{
		"MYMEMO_LOG_LEVEL": "warn",
		"MYMEMO_LOCALE":    "sv",
	}).Load()
	require.NoError(t, err)

	assert.Equal(t, "http://memo.example.com/api/", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "sv", cfg.ListView.Locale)
	assert.Equal(t, "/tmp/creds.db", cfg.Credentials.Path)
	assert.Equal(t, uint32(5), cfg.API.CircuitBreaker.MinRequests)
	assert.Equal(t, []string{"defaults", path, "environment"}, cfg.LoadedFrom)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := newTestLoader(filepath.Join(t.TempDir(), "absent.yaml"), nil).Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "relative base url", mutate: func(c *Config) { c.API.BaseURL = "/api/" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: true},
		{name: "bad threshold", mutate: func(c *Config) { c.API.CircuitBreaker.FailureThreshold = 1.5 }, wantErr: true},
		{name: "production without secret", mutate: func(c *Config) { c.Environment = Production }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadRejectsBadEnvironmentDuration(t *testing.T) {
	_, err := newTestLoader("", map[string]string{"MYMEMO_API_TIMEOUT": "soon"}).Load()
	assert.Error(t, err)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mymemo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0600))

	loader := newTestLoader(path, nil)
	initial, err := loader.Load()
	require.NoError(t, err)

	w, err := NewWatcher(loader, initial, nil, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan *Config, 1)
	w.OnChange(func(c *Config) { changed <- c })

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0600))

	select {
	case c := <-changed:
		assert.Equal(t, "debug", c.Logging.Level)
		assert.Equal(t, "debug", w.Config().Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("configuration was not reloaded")
	}
}
