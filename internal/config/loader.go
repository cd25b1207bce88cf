package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// Loader builds a Config from defaults, an optional file and the environment,
// in increasing order of priority.
type Loader struct {
	path        string
	sources     []string
	fileLoaders map[string]FileLoader
	getenv      func(string) string
}

// NewLoader creates a loader reading the file at path. An empty path or a
// missing file skips the file layer.
func NewLoader(path string) *Loader {
	l := &Loader{
		path:        path,
		fileLoaders: make(map[string]FileLoader),
		getenv:      os.Getenv,
	}
	l.RegisterLoader(&YAMLLoader{})
	l.RegisterLoader(&JSONLoader{})
	return l
}

// RegisterLoader registers a decoder for a file extension.
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders[loader.Extension()] = loader
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Load loads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	l.sources = []string{"defaults"}
	cfg := Default()

	if l.path != "" {
		if err := l.loadFile(cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", l.path, err)
		}
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}
	l.sources = append(l.sources, "environment")

	cfg.normalize()
	cfg.LoadedFrom = l.sources

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(cfg *Config) error {
	ext := strings.TrimPrefix(filepath.Ext(l.path), ".")
	if ext == "yml" {
		ext = "yaml"
	}
	loader, ok := l.fileLoaders[ext]
	if !ok {
		return fmt.Errorf("unsupported config format %q", ext)
	}

	file, err := os.Open(l.path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := loader.Load(file, cfg); err != nil && err != io.EOF {
		return fmt.Errorf("failed to parse: %w", err)
	}
	l.sources = append(l.sources, l.path)
	return nil
}

// loadEnvironmentVariables overlays MYMEMO_* variables on the configuration.
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	if val := l.getenv("MYMEMO_ENV"); val != "" {
		cfg.Environment = Environment(strings.ToLower(val))
	}
	if val := l.getenv("MYMEMO_API_URL"); val != "" {
		cfg.API.BaseURL = val
	}
	if val := l.getenv("MYMEMO_API_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("MYMEMO_API_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = d
	}
	if val := l.getenv("MYMEMO_CREDENTIALS_PATH"); val != "" {
		cfg.Credentials.Path = val
	}
	if val := l.getenv("MYMEMO_LOCALE"); val != "" {
		cfg.ListView.Locale = val
	}
	if val := l.getenv("MYMEMO_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := l.getenv("MYMEMO_LOG_DEVELOPMENT"); val != "" {
		cfg.Logging.Development = parseBool(val)
	}
	if val := l.getenv("MYMEMO_OTEL_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}
	if val := l.getenv("MYMEMO_SERVER_ADDR"); val != "" {
		cfg.DevServer.Address = val
	}
	if val := l.getenv("MYMEMO_JWT_SECRET"); val != "" {
		cfg.DevServer.JWTSecret = val
	}
	return nil
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files. Durations are nanoseconds.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}
