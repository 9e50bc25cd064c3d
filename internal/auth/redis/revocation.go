// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

// Package redis implements auth.RevocationSet on Redis so every replica of
// the service shares one view of consumed tokens.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/pitchboard/pitchboard/internal/auth"
)

// DefaultPrefix namespaces revocation keys.
const DefaultPrefix = "pitchboard:revoked:"

// minTTL keeps an entry for a token that is already past its expiry.
const minTTL = time.Second

// RevocationSet stores consumed tokens as keys whose TTL matches the token's
// remaining lifetime. Keys are SHA-256 digests so raw tokens never reach Redis.
type RevocationSet struct {
	rdb    goredis.Cmdable
	prefix string
	now    func() time.Time
}

// Option configures a RevocationSet.
type Option func(*RevocationSet)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *RevocationSet) { s.prefix = prefix }
}

// WithClock overrides time.Now when computing TTLs.
func WithClock(now func() time.Time) Option {
	return func(s *RevocationSet) { s.now = now }
}

// NewRevocationSet creates a RevocationSet backed by rdb.
func NewRevocationSet(rdb goredis.Cmdable, opts ...Option) *RevocationSet {
	s := &RevocationSet{rdb: rdb, prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient creates a Redis client.
func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Contains implements auth.RevocationSet.
func (s *RevocationSet) Contains(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, oops.Code("REVOCATION_LOOKUP_FAILED").
			With("operation", "exists").
			Wrap(err)
	}
	return n > 0, nil
}

// Add implements auth.RevocationSet with a single SET NX so concurrent
// consumers of one token race on the server.
func (s *RevocationSet) Add(ctx context.Context, token string, expiresAt time.Time) (bool, error) {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.now())
		if ttl < minTTL {
			ttl = minTTL
		}
	}

	ok, err := s.rdb.SetNX(ctx, s.key(token), 1, ttl).Result()
	if err != nil {
		return false, oops.Code("REVOCATION_ADD_FAILED").
			With("operation", "setnx").
			With("ttl", ttl.String()).
			Wrap(err)
	}
	return ok, nil
}

func (s *RevocationSet) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.prefix + hex.EncodeToString(sum[:])
}

// Compile-time interface check.
var _ auth.RevocationSet = (*RevocationSet)(nil)
