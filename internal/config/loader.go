package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read directly by the loader.
const (
	EnvPrefix  = "STUDENTPAY_"
	EnvConfig  = EnvPrefix + "CONFIG"
	EnvEnvFile = EnvPrefix + "ENV_FILE"

	defaultEnvFile = ".env"
)

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	overrides map[string]any
}

// WithOverrides sets keys (koanf names, e.g. "endpoint") after every other
// source. Empty string values are ignored so unset flags do not clobber
// configured values.
func WithOverrides(values map[string]any) LoadOption {
	return func(o *loadOptions) {
		for k, v := range values {
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			if o.overrides == nil {
				o.overrides = map[string]any{}
			}
			o.overrides[k] = v
		}
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if STUDENTPAY_CONFIG is set
//  3. env (prefix STUDENTPAY_), after a .env file has been merged into the
//     process environment without overriding variables already set
//  4. overrides passed with WithOverrides (e.g. command-line flags)
func Load(ctx context.Context, opts ...LoadOption) (*Config, error) {
	lo := loadOptions{}
	for _, opt := range opts {
		opt(&lo)
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	base := New(ctx)
	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// STUDENTPAY_REMOTE_TIMEOUT -> remote_timeout (flat keys, underscores kept).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	for key, val := range lo.overrides {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("%w: override %s: %w", ErrLoadConfig, key, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if err := ValidateEndpoint(c.Endpoint); err != nil {
		return err
	}
	if c.RemoteTimeout < 0 {
		return fmt.Errorf("%w: remote_timeout must not be negative", ErrInvalidConfig)
	}
	if c.LoginRatePerSec <= 0 || c.LoginBurst <= 0 {
		return fmt.Errorf("%w: login_rate_per_sec and login_burst must be positive", ErrInvalidConfig)
	}
	return nil
}

// ValidateEndpoint checks that endpoint is an absolute http(s) URL.
func ValidateEndpoint(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return fmt.Errorf("%w: endpoint must not be empty", ErrInvalidConfig)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: endpoint: %w", ErrInvalidConfig, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: endpoint must be an absolute http(s) URL", ErrInvalidConfig)
	}
	return nil
}

// loadDotEnv merges a dotenv file into the environment. The default file
// may be absent; an explicitly named one may not.
func loadDotEnv() error {
	path, explicit := os.LookupEnv(EnvEnvFile)
	if !explicit || path == "" {
		path = defaultEnvFile
		explicit = false
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}
