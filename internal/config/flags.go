// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags adds the serve-time flags to fs. Flag names are the config
// keys with dashes; only flags set on the command line take effect.
// The signing secret is deliberately env/file only.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("app-env", d.AppEnv, "runtime environment (development, production)")
	fs.String("token-lifetime", d.TokenLifetime, `auth token lifetime; "none" disables expiry`)
	fs.Bool("single-use-tokens", d.SingleUseTokens, "accept each auth token only once")
	fs.String("database-url", d.DatabaseURL, "PostgreSQL connection URL; empty uses the in-memory store")
	fs.String("redis-addr", d.RedisAddr, "Redis address for the shared revocation set")
	fs.Int("redis-db", d.RedisDB, "Redis database number")
	fs.String("http-addr", d.HTTPAddr, "HTTP listen address")
	fs.String("metrics-addr", d.MetricsAddr, "metrics and health listen address; empty disables")
	fs.StringSlice("cors-origins", nil, "allowed CORS origins")
	fs.String("log-format", d.LogFormat, "log format (json, text)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.Duration("revocation-prune-interval", d.RevocationPruneInterval, "how often expired revocations are dropped")
}
