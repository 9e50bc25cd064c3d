// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

// Package config loads pitchd settings from defaults, an optional YAML file,
// the environment, and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvProduction is the APP_ENV value that enables strict checks.
const EnvProduction = "production"

// DevSecret signs tokens outside production when SECRET is unset.
//
//nolint:gosec // G101: well-known development value, rejected in production
const DevSecret = "dev-insecure-secret"

// Config holds all pitchd settings.
type Config struct {
	AppEnv string `koanf:"app_env" env:"APP_ENV"`

	Secret          string `koanf:"secret" env:"SECRET"`
	TokenLifetime   string `koanf:"token_lifetime" env:"TOKEN_LIFETIME"`
	SingleUseTokens bool   `koanf:"single_use_tokens" env:"SINGLE_USE_TOKENS"`

	DatabaseURL string `koanf:"database_url" env:"DATABASE_URL"`

	RedisAddr     string `koanf:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `koanf:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `koanf:"redis_db" env:"REDIS_DB"`

	HTTPAddr    string   `koanf:"http_addr" env:"HTTP_ADDR"`
	MetricsAddr string   `koanf:"metrics_addr" env:"METRICS_ADDR"`
	CORSOrigins []string `koanf:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`

	LogFormat string `koanf:"log_format" env:"LOG_FORMAT"`
	LogLevel  string `koanf:"log_level" env:"LOG_LEVEL"`

	RevocationPruneInterval time.Duration `koanf:"revocation_prune_interval" env:"REVOCATION_PRUNE_INTERVAL"`

	usingDevSecret bool
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		AppEnv:                  "development",
		TokenLifetime:           "30m",
		HTTPAddr:                ":3000",
		MetricsAddr:             "127.0.0.1:9100",
		LogFormat:               "json",
		LogLevel:                "info",
		RevocationPruneInterval: time.Minute,
	}
}

// LoadDotEnv loads variables from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return oops.Code("CONFIG_DOTENV_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

// Load builds the configuration. configFile and flags may be empty/nil.
// Only flags the user actually set override lower layers.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	cfg := Defaults()

	if configFile != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", configFile).Wrap(err)
		}
		if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").With("path", configFile).Wrap(err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, oops.Code("CONFIG_ENV_FAILED").Wrap(err)
	}
	// An explicitly empty TOKEN_LIFETIME disables expiry.
	if v, ok := os.LookupEnv("TOKEN_LIFETIME"); ok && strings.TrimSpace(v) == "" {
		cfg.TokenLifetime = ""
	}

	if flags != nil {
		k := koanf.New(".")
		provider := posflag.ProviderWithFlag(flags, ".", nil, changedFlag)
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
		if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Secret == "" {
		cfg.Secret = DevSecret
		cfg.usingDevSecret = true
	}
	return &cfg, nil
}

// changedFlag maps a set flag to its config key (dashes become underscores).
// Unset flags are skipped so their defaults never mask file or env values.
func changedFlag(f *pflag.Flag) (string, any) {
	if !f.Changed {
		return "", nil
	}
	key := strings.ReplaceAll(f.Name, "-", "_")
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		return key, sv.GetSlice()
	}
	return key, f.Value.String()
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, EnvProduction)
}

// UsingDevSecret reports whether tokens are signed with DevSecret.
func (c *Config) UsingDevSecret() bool {
	return c.usingDevSecret
}

// Lifetime parses TokenLifetime. "", "0", "none" and "off" disable expiry.
func (c *Config) Lifetime() (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(c.TokenLifetime)) {
	case "", "0", "none", "off":
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.TokenLifetime))
	if err != nil {
		return 0, oops.Code("CONFIG_INVALID").
			With("key", "token_lifetime").
			With("value", c.TokenLifetime).
			Wrap(err)
	}
	if d < 0 {
		return 0, oops.Code("CONFIG_INVALID").
			With("key", "token_lifetime").
			Errorf("token lifetime cannot be negative")
	}
	return d, nil
}

// Validate checks the configuration and fails fast on unsafe production setups.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.Secret == "" {
			return oops.Code("CONFIG_INVALID").With("key", "secret").
				Errorf("SECRET is required in production")
		}
		if c.Secret == DevSecret {
			return oops.Code("CONFIG_INVALID").With("key", "secret").
				Errorf("the development secret cannot be used in production")
		}
		if c.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").With("key", "database_url").
				Errorf("DATABASE_URL is required in production")
		}
	}
	if _, err := c.Lifetime(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").With("key", "log_format").
			Errorf("log format must be json or text, got %q", c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return oops.Code("CONFIG_INVALID").With("key", "log_level").
			Errorf("log level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.RedisDB < 0 {
		return oops.Code("CONFIG_INVALID").With("key", "redis_db").
			Errorf("redis db cannot be negative")
	}
	for _, origin := range c.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return oops.Code("CONFIG_INVALID").With("key", "cors_origins").
				Errorf("cors origin %q must be * or start with http:// or https://", origin)
		}
	}
	if c.RevocationPruneInterval <= 0 {
		return oops.Code("CONFIG_INVALID").With("key", "revocation_prune_interval").
			Errorf("revocation prune interval must be positive")
	}
	return nil
}
