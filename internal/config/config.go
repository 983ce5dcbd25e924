// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) builds a Config with defaults; Load(ctx) layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"time"
)

// Config contains process configuration shared by the web front and the CLI.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Endpoint is the URL of the remote payments endpoint.
	Endpoint string `koanf:"endpoint"`

	// RemoteTimeout bounds a single remote call. Zero leaves the transport default.
	RemoteTimeout time.Duration `koanf:"remote_timeout"`

	// LoginRatePerSec and LoginBurst shape the token bucket guarding /api/login.
	LoginRatePerSec float64 `koanf:"login_rate_per_sec"`
	LoginBurst      int     `koanf:"login_burst"`
}

// New creates a Config with defaults. The context is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8080",
		Endpoint:        "",
		RemoteTimeout:   0,
		LoginRatePerSec: 2,
		LoginBurst:      5,
	}
}
