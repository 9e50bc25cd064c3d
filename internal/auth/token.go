// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// TokenKind distinguishes short-lived login tokens from machine keys.
type TokenKind string

// Token kinds.
const (
	KindAuth TokenKind = "auth"
	KindKey  TokenKind = "key"
)

// Valid reports whether k is a known token kind.
func (k TokenKind) Valid() bool {
	return k == KindAuth || k == KindKey
}

// String returns the wire value of the kind.
func (k TokenKind) String() string {
	return string(k)
}

// DefaultTokenLifetime is the lifetime of auth tokens unless configured otherwise.
const DefaultTokenLifetime = 30 * time.Minute

// TokenConfig configures a TokenService.
type TokenConfig struct {
	// Secret is the HS256 signing key. Required.
	Secret []byte

	// Lifetime bounds auth tokens. Zero issues auth tokens without expiry.
	Lifetime time.Duration

	// SingleUse makes every auth token verifiable exactly once.
	SingleUse bool

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Claims is the JWT payload.
type Claims struct {
	Kind TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed bearer tokens.
type TokenService struct {
	secret    []byte
	lifetime  time.Duration
	singleUse bool
	now       func() time.Time
	revoked   RevocationSet
	logger    *slog.Logger
}

// NewTokenService creates a TokenService.
// revoked may be nil only when single-use enforcement is disabled.
func NewTokenService(cfg TokenConfig, revoked RevocationSet, logger *slog.Logger) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("token secret is required")
	}
	if cfg.Lifetime < 0 {
		return nil, oops.Code("AUTH_CONFIG_INVALID").
			With("lifetime", cfg.Lifetime.String()).
			Errorf("token lifetime cannot be negative")
	}
	if cfg.SingleUse && revoked == nil {
		return nil, oops.Code("AUTH_CONFIG_INVALID").Errorf("revocation set is required for single-use tokens")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &TokenService{
		secret:    secret,
		lifetime:  cfg.Lifetime,
		singleUse: cfg.SingleUse,
		now:       now,
		revoked:   revoked,
		logger:    logger,
	}, nil
}

// Issue mints a signed token of the given kind for the user.
// Auth tokens expire after the configured lifetime; key tokens never expire.
func (s *TokenService) Issue(userID ulid.ULID, kind TokenKind) (string, error) {
	if !kind.Valid() {
		return "", oops.Code("AUTH_INVALID_TOKEN_KIND").
			With("kind", string(kind)).
			Errorf("unknown token kind %q", kind)
	}

	now := s.now()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			IssuedAt: jwt.NewNumericDate(now),
			// Distinguishes tokens minted within the same second.
			ID: ulid.Make().String(),
		},
	}
	if kind == KindAuth && s.lifetime > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.lifetime))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_SIGN_FAILED").
			With("user_id", userID.String()).
			With("kind", string(kind)).
			Wrap(err)
	}

	TokensIssued.WithLabelValues(kind.String()).Inc()
	return signed, nil
}

// IssueKey mints a non-expiring key token for the user.
func (s *TokenService) IssueKey(user *User) (string, error) {
	if user == nil {
		return "", validationError("user", "user is required")
	}
	return s.Issue(user.ID, KindKey)
}

// Verify checks the token and returns its subject.
// Every rejection is ErrInvalidToken; the reason is only logged.
// With single-use enabled, an auth token verifies at most once.
func (s *TokenService) Verify(ctx context.Context, token string) (ulid.ULID, error) {
	if token == "" {
		return ulid.ULID{}, s.reject(ctx, "empty token", nil)
	}

	if s.singleUse {
		used, err := s.revoked.Contains(ctx, token)
		if err != nil {
			return ulid.ULID{}, oops.Code("AUTH_REVOCATION_FAILED").
				With("operation", "check revocation").
				Wrap(err)
		}
		if used {
			return ulid.ULID{}, s.reject(ctx, "token already used", nil)
		}
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return ulid.ULID{}, s.reject(ctx, "token rejected", err)
	}
	if !claims.Kind.Valid() {
		return ulid.ULID{}, s.reject(ctx, "unknown token kind", nil)
	}
	userID, err := ulid.Parse(claims.Subject)
	if err != nil {
		return ulid.ULID{}, s.reject(ctx, "malformed subject", err)
	}

	if s.singleUse && claims.Kind != KindKey {
		var expiresAt time.Time
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
		inserted, err := s.revoked.Add(ctx, token, expiresAt)
		if err != nil {
			return ulid.ULID{}, oops.Code("AUTH_REVOCATION_FAILED").
				With("operation", "consume token").
				Wrap(err)
		}
		if !inserted {
			return ulid.ULID{}, s.reject(ctx, "token already used", nil)
		}
		TokensRevoked.Inc()
	}

	return userID, nil
}

func (s *TokenService) reject(ctx context.Context, reason string, cause error) error {
	attrs := []any{"reason", reason}
	if cause != nil {
		attrs = append(attrs, "error", cause.Error())
	}
	s.logger.DebugContext(ctx, "token verification failed", attrs...)
	return invalidTokenError()
}
