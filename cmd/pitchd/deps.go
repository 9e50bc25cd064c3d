// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/samber/oops"

	"github.com/pitchboard/pitchboard/internal/auth"
	"github.com/pitchboard/pitchboard/internal/auth/memory"
	"github.com/pitchboard/pitchboard/internal/auth/postgres"
	authredis "github.com/pitchboard/pitchboard/internal/auth/redis"
	"github.com/pitchboard/pitchboard/internal/config"
	"github.com/pitchboard/pitchboard/internal/store"
)

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// OpenUsers returns the user repository and a release func.
	// Default: openUserRepository
	OpenUsers func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.UserRepository, func(), error)

	// OpenRevocations returns the revocation set and a release func.
	// Default: openRevocationSet
	OpenRevocations func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.RevocationSet, func(), error)

	// OpenMigrator returns a migrator for the database URL.
	// Default: store.NewMigrator
	OpenMigrator func(databaseURL string) (Migrator, error)

	// Listen creates the API listener.
	// Default: net.Listen
	Listen func(network, address string) (net.Listener, error)

	// LogOutput receives structured logs.
	// Default: os.Stderr
	LogOutput io.Writer

	logger *slog.Logger
}

// Migrator wraps the store.Migrator methods the migrate command uses.
type Migrator interface {
	Up() error
	Down() error
	Status() (store.Status, error)
	Close() error
}

func (d *Deps) withDefaults() *Deps {
	out := &Deps{}
	if d != nil {
		*out = *d
	}
	if out.OpenUsers == nil {
		out.OpenUsers = openUserRepository
	}
	if out.OpenRevocations == nil {
		out.OpenRevocations = openRevocationSet
	}
	if out.OpenMigrator == nil {
		out.OpenMigrator = func(databaseURL string) (Migrator, error) {
			m, err := store.NewMigrator(databaseURL)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.Listen == nil {
		out.Listen = net.Listen
	}
	if out.LogOutput == nil {
		out.LogOutput = os.Stderr
	}
	return out
}

func (d *Deps) setLogger(logger *slog.Logger) {
	d.logger = logger
	slog.SetDefault(logger)
}

// openUserRepository migrates and connects to PostgreSQL, or falls back to
// the in-memory repository when no database is configured.
func openUserRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.UserRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.WarnContext(ctx, "DATABASE_URL not set, users are kept in memory and lost on restart")
		return memory.NewUserRepository(), func() {}, nil
	}

	migrator, err := store.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	upErr := migrator.Up()
	closeErr := migrator.Close()
	if upErr != nil {
		return nil, nil, oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(upErr)
	}
	if closeErr != nil {
		logger.WarnContext(ctx, "failed to close migrator", "error", closeErr)
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL, store.ConnectOptions{}, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.InfoContext(ctx, "connected to database")
	return postgres.NewUserRepository(pool), pool.Close, nil
}

// openRevocationSet returns nil when single-use tokens are disabled, a
// Redis-backed set when REDIS_ADDR is set, and a process-local set otherwise.
func openRevocationSet(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.RevocationSet, func(), error) {
	if !cfg.SingleUseTokens {
		return nil, func() {}, nil
	}
	if cfg.RedisAddr == "" {
		logger.WarnContext(ctx, "REDIS_ADDR not set, single-use revocations are local to this process")
		return auth.NewMemoryRevocationSet(), func() {}, nil
	}

	client := authredis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.RedisAddr).Wrap(err)
	}
	logger.InfoContext(ctx, "connected to redis", "addr", cfg.RedisAddr)
	return authredis.NewRevocationSet(client), func() { _ = client.Close() }, nil
}

// newAuthService assembles the authentication facade.
func newAuthService(cfg *config.Config, users auth.UserRepository, revoked auth.RevocationSet, logger *slog.Logger) (*auth.Service, error) {
	lifetime, err := cfg.Lifetime()
	if err != nil {
		return nil, err
	}

	creds, err := auth.NewCredentialStore(users, auth.NewBcryptHasher(), logger)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:    []byte(cfg.Secret),
		Lifetime:  lifetime,
		SingleUse: cfg.SingleUseTokens,
	}, revoked, logger)
	if err != nil {
		return nil, err
	}
	return auth.NewService(creds, tokens, logger)
}
