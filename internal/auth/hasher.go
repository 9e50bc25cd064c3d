// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package auth

import (
	"context"
	"errors"
	"runtime"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// BcryptCost is the work factor used for every new password hash.
const BcryptCost = 10

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// UnusablePassword is stored for accounts that have no local password.
// It is not a bcrypt hash, so no plaintext ever verifies against it.
const UnusablePassword = "!"

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Wrapf(ErrValidation, "password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)

	// NeedsRehash returns true if the hash was produced with outdated parameters.
	NeedsRehash(hash string) bool
}

// BcryptHasher implements PasswordHasher using bcrypt.
// Concurrent hash computations are bounded to GOMAXPROCS.
type BcryptHasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewBcryptHasher creates a BcryptHasher using BcryptCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{
		cost: BcryptCost,
		sem:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
}

// Hash produces a bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return "", oops.Code("AUTH_PASSWORD_TOO_LONG").
			With("max_bytes", maxPasswordBytes).
			Wrapf(ErrValidation, "password must be at most %d bytes", maxPasswordBytes)
	}

	release, err := h.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("operation", "bcrypt generate").Wrap(err)
	}
	return string(hash), nil
}

// Verify checks if the password matches the hash in constant time.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	if hash == UnusablePassword {
		return false, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	// Such a password could never have been hashed here.
	if len(password) > maxPasswordBytes {
		return false, nil
	}

	release, err := h.acquire()
	if err != nil {
		return false, err
	}
	defer release()

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	return true, nil
}

// NeedsRehash returns true if the hash is not a bcrypt hash at the current cost.
// The unusable marker never needs a rehash.
func (h *BcryptHasher) NeedsRehash(hash string) bool {
	if hash == UnusablePassword {
		return false
	}
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != h.cost
}

func (h *BcryptHasher) acquire() (func(), error) {
	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		return nil, oops.Code("AUTH_HASH_FAILED").With("operation", "acquire hash slot").Wrap(err)
	}
	return func() { h.sem.Release(1) }, nil
}
