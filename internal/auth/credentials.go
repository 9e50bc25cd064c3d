// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// CredentialStore creates and looks up users.
// Passwords are hashed exactly once, on the record being created.
type CredentialStore struct {
	users  UserRepository
	hasher PasswordHasher
	logger *slog.Logger
}

// NewCredentialStore creates a CredentialStore.
func NewCredentialStore(users UserRepository, hasher PasswordHasher, logger *slog.Logger) (*CredentialStore, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &CredentialStore{users: users, hasher: hasher, logger: logger}, nil
}

// Create validates the registration, rejects taken usernames, hashes the
// password and persists the user.
func (s *CredentialStore) Create(ctx context.Context, reg Registration) (*User, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	_, err := s.users.GetByUsername(ctx, reg.Username)
	switch {
	case err == nil:
		return nil, duplicateUsernameError(reg.Username)
	case !errors.Is(err, ErrNotFound):
		return nil, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "check username").
			With("username", reg.Username).
			Wrap(err)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return nil, err
		}
		return nil, oops.Code("AUTH_CREATE_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user := newUser(reg, hash)
	if err := s.persist(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user created",
		"user_id", user.ID.String(),
		"username", user.Username)
	return user, nil
}

// createProvisioned persists a user for an externally asserted email.
// No password is hashed because the account has none.
func (s *CredentialStore) createProvisioned(ctx context.Context, email string) (*User, error) {
	user := newProvisionedUser(email)
	if err := s.persist(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user provisioned",
		"user_id", user.ID.String(),
		"email", email)
	return user, nil
}

func (s *CredentialStore) persist(ctx context.Context, user *User) error {
	err := s.users.Create(ctx, user)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicateUsername) {
		return duplicateUsernameError(user.Username)
	}
	return oops.Code("AUTH_CREATE_FAILED").
		With("operation", "persist user").
		With("username", user.Username).
		Wrap(err)
}

// FindByUsername returns the user with the exact username.
func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, lookupError(err, "username", username)
	}
	return user, nil
}

// FindByID returns the user with the given ID.
func (s *CredentialStore) FindByID(ctx context.Context, id ulid.ULID) (*User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user_id", id.String())
	}
	return user, nil
}

// FindByEmail returns the earliest created user with the email.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err, "email", email)
	}
	return user, nil
}

// updatePassword stores a new hash for the user. Used for cost upgrades.
func (s *CredentialStore) updatePassword(ctx context.Context, user *User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return oops.Code("AUTH_REHASH_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return oops.Code("AUTH_REHASH_FAILED").With("user_id", user.ID.String()).Wrap(err)
	}
	user.Password = hash
	return nil
}

func lookupError(err error, key, value string) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code("USER_NOT_FOUND").With(key, value).Wrap(err)
	}
	return oops.Code("AUTH_LOOKUP_FAILED").With(key, value).Wrap(err)
}
