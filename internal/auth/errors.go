// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrValidation is returned when required input is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidToken covers expired, malformed, wrongly signed, and replayed
	// tokens. The reason is never part of the returned error.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

func invalidTokenError() error {
	return oops.Code("AUTH_INVALID_TOKEN").Wrap(ErrInvalidToken)
}

func invalidCredentialsError() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
}

func duplicateUsernameError(username string) error {
	return oops.Code("AUTH_DUPLICATE_USERNAME").
		With("username", username).
		Wrap(ErrDuplicateUsername)
}

func validationError(field, format string, args ...any) error {
	return oops.Code("AUTH_VALIDATION").
		With("field", field).
		Wrapf(ErrValidation, format, args...)
}
