// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pitchboard/pitchboard/internal/auth"
	"github.com/pitchboard/pitchboard/internal/auth/memory"
	"github.com/pitchboard/pitchboard/internal/auth/mocks"
	"github.com/pitchboard/pitchboard/pkg/errutil"
)

type fixture struct {
	users   *memory.UserRepository
	revoked *auth.MemoryRevocationSet
	tokens  *auth.TokenService
	svc     *auth.Service
}

func newFixture(t *testing.T, singleUse bool) *fixture {
	t.Helper()
	users := memory.NewUserRepository()
	revoked := auth.NewMemoryRevocationSet()
	creds, err := auth.NewCredentialStore(users, auth.NewBcryptHasher(), discardLogger())
	require.NoError(t, err)
	tokens := newTokenService(t, auth.TokenConfig{Lifetime: time.Hour, SingleUse: singleUse}, revoked)
	svc, err := auth.NewService(creds, tokens, discardLogger())
	require.NoError(t, err)
	return &fixture{users: users, revoked: revoked, tokens: tokens, svc: svc}
}

func newMockedService(t *testing.T, users auth.UserRepository, hasher auth.PasswordHasher) *auth.Service {
	t.Helper()
	creds, err := auth.NewCredentialStore(users, hasher, discardLogger())
	require.NoError(t, err)
	svc, err := auth.NewService(creds, newTokenService(t, auth.TokenConfig{Lifetime: time.Hour}, nil), discardLogger())
	require.NoError(t, err)
	return svc
}

func TestNewService_NilDependencies(t *testing.T) {
	f := newFixture(t, false)
	creds, err := auth.NewCredentialStore(memory.NewUserRepository(), auth.NewBcryptHasher(), discardLogger())
	require.NoError(t, err)

	_, err = auth.NewService(nil, f.tokens, discardLogger())
	assert.ErrorContains(t, err, "credential store is required")
	_, err = auth.NewService(creds, nil, discardLogger())
	assert.ErrorContains(t, err, "token service is required")
	_, err = auth.NewService(creds, f.tokens, nil)
	assert.ErrorContains(t, err, "logger is required")
}

func TestService_AuthenticateBasic(t *testing.T) {
	ctx := context.Background()

	t.Run("correct password returns the user", func(t *testing.T) {
		f := newFixture(t, false)
		created, err := f.svc.Register(ctx, validRegistration())
		require.NoError(t, err)

		before := testutil.ToFloat64(auth.AuthAttempts.WithLabelValues(auth.MethodBasic, auth.ResultSuccess))
		user, err := f.svc.AuthenticateBasic(ctx, "ada", "analytical-engine")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		assert.InDelta(t, before+1,
			testutil.ToFloat64(auth.AuthAttempts.WithLabelValues(auth.MethodBasic, auth.ResultSuccess)), 0.001)
	})

	t.Run("unknown user and wrong password fail identically", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.svc.Register(ctx, validRegistration())
		require.NoError(t, err)

		_, unknownErr := f.svc.AuthenticateBasic(ctx, "nobody", "analytical-engine")
		_, wrongErr := f.svc.AuthenticateBasic(ctx, "ada", "difference-engine")

		require.Error(t, unknownErr)
		require.Error(t, wrongErr)
		assert.ErrorIs(t, unknownErr, auth.ErrInvalidCredentials)
		assert.ErrorIs(t, wrongErr, auth.ErrInvalidCredentials)
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
		errutil.AssertErrorCode(t, unknownErr, "AUTH_INVALID_CREDENTIALS")
		errutil.AssertErrorCode(t, wrongErr, "AUTH_INVALID_CREDENTIALS")
	})

	t.Run("unknown user still runs the hasher", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := newMockedService(t, users, hasher)

		users.On("GetByUsername", ctx, "ghost").Return(nil, notFound())
		hasher.On("Verify", "pw", mock.AnythingOfType("string")).Return(false, nil).Once()

		_, err := svc.AuthenticateBasic(ctx, "ghost", "pw")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("provisioned user cannot sign in with a password", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.svc.ProvisionOrFetch(ctx, "sso@example.com")
		require.NoError(t, err)

		for _, pw := range []string{"", auth.UnusablePassword, "guess"} {
			_, err := f.svc.AuthenticateBasic(ctx, "sso@example.com", pw)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		}
	})

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := newMockedService(t, users, hasher)

		users.On("GetByUsername", ctx, "ada").Return(nil, errors.New("connection refused"))

		_, err := svc.AuthenticateBasic(ctx, "ada", "pw")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("outdated cost is upgraded on success", func(t *testing.T) {
		f := newFixture(t, false)
		old, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
		require.NoError(t, err)
		legacy := &auth.User{ID: ulid.Make(), Username: "legacy", Password: string(old), Email: "l@example.com"}
		require.NoError(t, f.users.Create(ctx, legacy))

		_, err = f.svc.AuthenticateBasic(ctx, "legacy", "legacy-pass")
		require.NoError(t, err)

		stored, err := f.users.GetByID(ctx, legacy.ID)
		require.NoError(t, err)
		cost, err := bcrypt.Cost([]byte(stored.Password))
		require.NoError(t, err)
		assert.Equal(t, auth.BcryptCost, cost)
	})

	t.Run("failed rehash does not fail the login", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := newMockedService(t, users, hasher)

		user := &auth.User{ID: ulid.Make(), Username: "ada", Password: "$2a$04$old"}
		users.On("GetByUsername", ctx, "ada").Return(user, nil)
		hasher.On("Verify", "pw", "$2a$04$old").Return(true, nil)
		hasher.On("NeedsRehash", "$2a$04$old").Return(true)
		hasher.On("Hash", "pw").Return("$2a$10$new", nil)
		users.On("UpdatePassword", ctx, user.ID, "$2a$10$new").Return(errors.New("read-only replica"))

		got, err := svc.AuthenticateBasic(ctx, "ada", "pw")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})
}

func TestService_AuthenticateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token returns its user", func(t *testing.T) {
		f := newFixture(t, false)
		created, err := f.svc.Register(ctx, validRegistration())
		require.NoError(t, err)
		token, err := f.svc.IssueToken(created, auth.KindAuth)
		require.NoError(t, err)

		user, err := f.svc.AuthenticateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("single use token works once", func(t *testing.T) {
		f := newFixture(t, true)
		created, err := f.svc.Register(ctx, validRegistration())
		require.NoError(t, err)
		token, err := f.svc.IssueToken(created, auth.KindAuth)
		require.NoError(t, err)

		_, err = f.svc.AuthenticateToken(ctx, token)
		require.NoError(t, err)
		_, err = f.svc.AuthenticateToken(ctx, token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("token for a missing user is invalid", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := newMockedService(t, users, hasher)

		ghost := &auth.User{ID: ulid.Make()}
		token, err := svc.IssueToken(ghost, auth.KindAuth)
		require.NoError(t, err)
		users.On("GetByID", ctx, ghost.ID).Return(nil, notFound())

		_, err = svc.AuthenticateToken(ctx, token)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("store failure surfaces as persistence error", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := newMockedService(t, users, hasher)

		subject := &auth.User{ID: ulid.Make()}
		token, err := svc.IssueToken(subject, auth.KindKey)
		require.NoError(t, err)
		users.On("GetByID", ctx, subject.ID).Return(nil, oops.Code("USER_GET_BY_ID_FAILED").Errorf("timeout"))

		_, err = svc.AuthenticateToken(ctx, token)
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrInvalidToken)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.svc.AuthenticateToken(ctx, "nope")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestService_ProvisionOrFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("blank email touches no store", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := newMockedService(t, users, hasher)

		for _, email := range []string{"", "   ", "\t\n"} {
			_, err := svc.ProvisionOrFetch(ctx, email)
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrValidation)
		}
		users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("creates a passwordless user", func(t *testing.T) {
		f := newFixture(t, false)

		user, err := f.svc.ProvisionOrFetch(ctx, "sso@example.com")
		require.NoError(t, err)
		assert.Equal(t, "sso@example.com", user.Username)
		assert.Equal(t, "sso@example.com", user.Email)
		assert.Equal(t, auth.UnusablePassword, user.Password)
		assert.False(t, user.HasPassword())
		assert.NotEmpty(t, user.Key)
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newFixture(t, false)

		first, err := f.svc.ProvisionOrFetch(ctx, "sso@example.com")
		require.NoError(t, err)
		second, err := f.svc.ProvisionOrFetch(ctx, "sso@example.com")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, f.users.Len())
	})

	t.Run("returns an existing registered user", func(t *testing.T) {
		f := newFixture(t, false)
		created, err := f.svc.Register(ctx, validRegistration())
		require.NoError(t, err)

		user, err := f.svc.ProvisionOrFetch(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		assert.Equal(t, 1, f.users.Len())
	})

	t.Run("lost create race re-reads by email", func(t *testing.T) {
		users := mocks.NewMockUserRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc := newMockedService(t, users, hasher)

		winner := &auth.User{ID: ulid.Make(), Username: "sso@example.com", Email: "sso@example.com"}
		users.On("GetByEmail", ctx, "sso@example.com").Return(nil, notFound()).Once()
		users.On("Create", ctx, mock.Anything).
			Return(oops.Code("USER_DUPLICATE_USERNAME").Wrap(auth.ErrDuplicateUsername)).Once()
		users.On("GetByEmail", ctx, "sso@example.com").Return(winner, nil).Once()

		user, err := svc.ProvisionOrFetch(ctx, "sso@example.com")
		require.NoError(t, err)
		assert.Equal(t, winner.ID, user.ID)
	})

	t.Run("username taken by a different email is a duplicate", func(t *testing.T) {
		f := newFixture(t, false)
		reg := validRegistration()
		reg.Username = "sso@example.com"
		reg.Email = "someone-else@example.com"
		_, err := f.svc.Register(ctx, reg)
		require.NoError(t, err)

		_, err = f.svc.ProvisionOrFetch(ctx, "sso@example.com")
		assert.ErrorIs(t, err, auth.ErrDuplicateUsername)
	})
}

func TestService_IssueToken(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.IssueToken(nil, auth.KindAuth)
	assert.ErrorIs(t, err, auth.ErrValidation)

	token, err := f.svc.IssueToken(&auth.User{ID: ulid.Make()}, auth.KindKey)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestService_User(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)

	created, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	user, err := f.svc.User(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Username, user.Username)

	_, err = f.svc.User(ctx, ulid.Make())
	assert.ErrorIs(t, err, auth.ErrNotFound)
}
