// Package config provides configuration for the memo client and dev server.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Environment represents the deployment environment
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
	Test        Environment = "test"
)

// Config is the complete client configuration.
type Config struct {
	Environment Environment `yaml:"environment" json:"environment"`
	API         API         `yaml:"api" json:"api"`
	Credentials Credentials `yaml:"credentials" json:"credentials"`
	ListView    ListView    `yaml:"listView" json:"listView"`
	Logging     Logging     `yaml:"logging" json:"logging"`
	Metrics     Metrics     `yaml:"metrics" json:"metrics"`
	Tracing     Tracing     `yaml:"tracing" json:"tracing"`
	DevServer   DevServer   `yaml:"devServer" json:"devServer"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-" json:"-"`
}

// API configures the connection to the memo server.
type API struct {
	BaseURL        string         `yaml:"baseURL" json:"baseURL"`
	Timeout        time.Duration  `yaml:"timeout" json:"timeout"`
	CircuitBreaker CircuitBreaker `yaml:"circuitBreaker" json:"circuitBreaker"`
}

// CircuitBreaker configures the breaker around the HTTP transport.
type CircuitBreaker struct {
	MaxRequests      uint32        `yaml:"maxRequests" json:"maxRequests"`
	Interval         time.Duration `yaml:"interval" json:"interval"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	FailureThreshold float64       `yaml:"failureThreshold" json:"failureThreshold"`
	MinRequests      uint32        `yaml:"minRequests" json:"minRequests"`
}

// Credentials configures where the login state is kept. An empty Path keeps
// it in memory only.
type Credentials struct {
	Path string `yaml:"path" json:"path"`
}

// ListView configures the memo list projection.
type ListView struct {
	// Locale is a BCP 47 tag used to collate titles and bodies.
	Locale string `yaml:"locale" json:"locale"`
}

// Logging configures the zap logger.
type Logging struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
}

// Metrics configures the Prometheus collector.
type Metrics struct {
	Namespace string `yaml:"namespace" json:"namespace"`
}

// Tracing configures OpenTelemetry export.
type Tracing struct {
	ServiceName string `yaml:"serviceName" json:"serviceName"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
}

// DevServer configures the local memo server.
type DevServer struct {
	Address        string        `yaml:"address" json:"address"`
	JWTSecret      string        `yaml:"jwtSecret" json:"jwtSecret"`
	TokenTTL       time.Duration `yaml:"tokenTTL" json:"tokenTTL"`
	AllowedOrigins []string      `yaml:"allowedOrigins" json:"allowedOrigins"`
}

// Default returns the configuration used when no file or environment
// variable overrides a value.
func Default() *Config {
	return &Config{
		Environment: Development,
		API: API{
			BaseURL: "http://localhost:8000/api/",
			Timeout: 15 * time.Second,
			CircuitBreaker: CircuitBreaker{
				MaxRequests:      5,
				Interval:         30 * time.Second,
				Timeout:          60 * time.Second,
				FailureThreshold: 0.8,
				MinRequests:      5,
			},
		},
		ListView: ListView{Locale: "en"},
		Logging:  Logging{Level: "info"},
		Metrics:  Metrics{Namespace: "mymemo"},
		Tracing:  Tracing{ServiceName: "mymemo-client"},
		DevServer: DevServer{
			Address:        ":8000",
			TokenTTL:       24 * time.Hour,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.baseURL must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if t := c.API.CircuitBreaker.FailureThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("api.circuitBreaker.failureThreshold must be in (0, 1], got %v", t)
	}
	if c.Environment == Production && c.DevServer.JWTSecret == "" {
		return fmt.Errorf("devServer.jwtSecret is required in production")
	}
	return nil
}

// normalize fixes up values that have a canonical form.
func (c *Config) normalize() {
	if !strings.HasSuffix(c.API.BaseURL, "/") {
		c.API.BaseURL += "/"
	}
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}
