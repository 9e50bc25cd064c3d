// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service is the single entry point the HTTP layer uses to authenticate
// requests and provision users.
type Service struct {
	credentials *CredentialStore
	tokens      *TokenService
	logger      *slog.Logger
}

// NewService creates a Service.
func NewService(credentials *CredentialStore, tokens *TokenService, logger *slog.Logger) (*Service, error) {
	if credentials == nil {
		return nil, oops.Errorf("credential store is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token service is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{credentials: credentials, tokens: tokens, logger: logger}, nil
}

// dummyPasswordHash is verified against when the user doesn't exist so the
// response time does not reveal whether a username is registered.
//
//nolint:gosec // G101: not a credential
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthenticateBasic checks a username and password.
// Unknown usernames and wrong passwords fail identically with ErrInvalidCredentials.
func (s *Service) AuthenticateBasic(ctx context.Context, username, password string) (*User, error) {
	user, lookupErr := s.credentials.FindByUsername(ctx, username)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		recordAttempt(MethodBasic, ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by username").
			Wrap(lookupErr)
	}

	targetHash := dummyPasswordHash
	if user != nil && user.HasPassword() {
		targetHash = user.Password
	}

	// Always verify so both failure paths cost one bcrypt comparison.
	valid, verifyErr := s.credentials.hasher.Verify(password, targetHash)

	switch {
	case user == nil:
		s.logger.DebugContext(ctx, "basic authentication failed", "reason", "unknown username")
		recordAttempt(MethodBasic, ResultFailure)
		return nil, invalidCredentialsError()
	case verifyErr != nil:
		recordAttempt(MethodBasic, ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(verifyErr)
	case !user.HasPassword():
		s.logger.DebugContext(ctx, "basic authentication failed",
			"reason", "no local password", "user_id", user.ID.String())
		recordAttempt(MethodBasic, ResultFailure)
		return nil, invalidCredentialsError()
	case !valid:
		s.logger.DebugContext(ctx, "basic authentication failed",
			"reason", "wrong password", "user_id", user.ID.String())
		recordAttempt(MethodBasic, ResultFailure)
		return nil, invalidCredentialsError()
	}

	if s.credentials.hasher.NeedsRehash(user.Password) {
		if err := s.credentials.updatePassword(ctx, user, password); err != nil {
			s.logger.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID.String(), "error", err)
		}
	}

	recordAttempt(MethodBasic, ResultSuccess)
	return user, nil
}

// AuthenticateToken verifies a bearer token and loads its subject.
// A token whose user no longer exists is reported as ErrInvalidToken.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			recordAttempt(MethodToken, ResultFailure)
		} else {
			recordAttempt(MethodToken, ResultError)
		}
		return nil, err
	}

	user, err := s.credentials.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.DebugContext(ctx, "token verification failed",
				"reason", "subject not found", "user_id", userID.String())
			recordAttempt(MethodToken, ResultFailure)
			return nil, invalidTokenError()
		}
		recordAttempt(MethodToken, ResultError)
		return nil, err
	}

	recordAttempt(MethodToken, ResultSuccess)
	return user, nil
}

// ProvisionOrFetch returns the user for an externally asserted email,
// creating one without a local password if none exists.
func (s *Service) ProvisionOrFetch(ctx context.Context, email string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		recordAttempt(MethodProvision, ResultFailure)
		return nil, validationError("email", "email is required")
	}

	user, err := s.credentials.FindByEmail(ctx, email)
	if err == nil {
		recordAttempt(MethodProvision, ResultSuccess)
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		recordAttempt(MethodProvision, ResultError)
		return nil, err
	}

	user, err = s.credentials.createProvisioned(ctx, email)
	if errors.Is(err, ErrDuplicateUsername) {
		// Lost a race with a concurrent provision for the same email.
		if existing, findErr := s.credentials.FindByEmail(ctx, email); findErr == nil {
			recordAttempt(MethodProvision, ResultSuccess)
			return existing, nil
		}
	}
	if err != nil {
		recordAttempt(MethodProvision, ResultError)
		return nil, err
	}

	recordAttempt(MethodProvision, ResultSuccess)
	return user, nil
}

// Register creates a user with a local password.
func (s *Service) Register(ctx context.Context, reg Registration) (*User, error) {
	return s.credentials.Create(ctx, reg)
}

// User loads a user by ID.
func (s *Service) User(ctx context.Context, id ulid.ULID) (*User, error) {
	return s.credentials.FindByID(ctx, id)
}

// IssueToken mints a token of the given kind for the user.
func (s *Service) IssueToken(user *User, kind TokenKind) (string, error) {
	if user == nil {
		return "", validationError("user", "user is required")
	}
	return s.tokens.Issue(user.ID, kind)
}
