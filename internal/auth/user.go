// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package auth

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User represents a registered account.
type User struct {
	ID ulid.ULID

	// Key is a per-user random seed for long-lived machine credentials.
	Key string

	Username string
	Password string // bcrypt hash or UnusablePassword, never plaintext

	Firstname string
	Lastname  string
	Email     string
	Phone     string
	Address1  string
	Address2  string
	City      string
	State     string
	Zip       string
	Github    string
	Linkedin  string
	Twitter   string
	Blog      string
	Image     []byte
	Bio       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether the user can sign in with a local password.
func (u *User) HasPassword() bool {
	return u.Password != "" && u.Password != UnusablePassword
}

// Registration is the input for creating a user with a local password.
type Registration struct {
	Username  string `json:"username" validate:"required,max=254"`
	Password  string `json:"password" validate:"required"`
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	City      string `json:"city" validate:"required"`
	Phone     string `json:"phone,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Github    string `json:"github,omitempty" validate:"omitempty,url"`
	Linkedin  string `json:"linkedin,omitempty" validate:"omitempty,url"`
	Twitter   string `json:"twitter,omitempty" validate:"omitempty,url"`
	Blog      string `json:"blog,omitempty" validate:"omitempty,url"`
	Image     []byte `json:"image,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so errors match what clients sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks required fields and formats.
// The first failing field is reported in the error context.
func (r Registration) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return oops.Code("AUTH_VALIDATION").Wrap(err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	first := verrs[0]
	if first.Tag() == "required" {
		return oops.Code("AUTH_VALIDATION").
			With("field", first.Field()).
			With("fields", fields).
			Wrapf(ErrValidation, "%s is required", first.Field())
	}
	return oops.Code("AUTH_VALIDATION").
		With("field", first.Field()).
		With("fields", fields).
		Wrapf(ErrValidation, "%s is invalid (%s)", first.Field(), first.Tag())
}

// newUser builds a User from a validated registration and a password hash.
func newUser(r Registration, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        ulid.Make(),
		Key:       uuid.NewString(),
		Username:  r.Username,
		Password:  passwordHash,
		Firstname: r.Firstname,
		Lastname:  r.Lastname,
		Email:     r.Email,
		Phone:     r.Phone,
		Address1:  r.Address1,
		Address2:  r.Address2,
		City:      r.City,
		State:     r.State,
		Zip:       r.Zip,
		Github:    r.Github,
		Linkedin:  r.Linkedin,
		Twitter:   r.Twitter,
		Blog:      r.Blog,
		Image:     r.Image,
		Bio:       r.Bio,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// newProvisionedUser builds a User for an externally asserted email.
// The account has no usable local password.
func newProvisionedUser(email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        ulid.Make(),
		Key:       uuid.NewString(),
		Username:  email,
		Password:  UnusablePassword,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user.
	// Returns an error wrapping ErrDuplicateUsername if the username is taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByUsername retrieves a user by exact username.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByEmail retrieves the earliest created user with the email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error
}
