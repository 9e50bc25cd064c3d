// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

// Package auth provides the authentication subsystem for Pitchboard.
//
// # Domain Types
//
// A User is created either through explicit registration (see Registration)
// or through identity provisioning for externally asserted email addresses.
// Stored passwords are always bcrypt hashes, or the UnusablePassword marker
// for provisioned accounts that have no local password.
//
// Tokens are signed JWTs of two kinds:
//   - KindAuth - short-lived interactive tokens, optionally single-use
//   - KindKey - long-lived machine tokens that never expire
//
// # Services
//
// Service types coordinate domain operations:
//   - CredentialStore - validate, hash, and persist users; lookups
//   - TokenService - issue, verify, and revoke bearer tokens
//   - Service - the facade used by the HTTP layer (basic, token, provisioning)
//
// Services are created with New* constructors that validate dependencies.
//
// # Errors
//
// Every failure is an oops error wrapping one of the package sentinels
// (ErrValidation, ErrDuplicateUsername, ErrNotFound, ErrInvalidToken,
// ErrInvalidCredentials). Callers branch with errors.Is; anything else is a
// persistence or internal failure.
package auth
