// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchboard/pitchboard/internal/auth"
	"github.com/pitchboard/pitchboard/internal/auth/memory"
	"github.com/pitchboard/pitchboard/pkg/errutil"
)

func newUser(username, email string, created time.Time) *auth.User {
	return &auth.User{
		ID:        ulid.Make(),
		Username:  username,
		Password:  "hash",
		Email:     email,
		Image:     []byte{1, 2, 3},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	u := newUser("ada", "ada@example.com", time.Now())

	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, 1, repo.Len())

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Username, got.Username)
	})

	t.Run("by username is exact", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = repo.GetByUsername(ctx, "ADA")
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("by email ignores case", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "ADA@Example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		got.Username = "mutated"
		got.Image[0] = 9

		again, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "ada", again.Username)
		assert.Equal(t, byte(1), again.Image[0])
	})
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	require.NoError(t, repo.Create(ctx, newUser("ada", "a@example.com", time.Now())))

	err := repo.Create(ctx, newUser("ada", "b@example.com", time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrDuplicateUsername)
	errutil.AssertErrorCode(t, err, "USER_DUPLICATE_USERNAME")
	assert.Equal(t, 1, repo.Len())
}

func TestUserRepository_ConcurrentCreateSameUsername(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	var wg sync.WaitGroup
	var created atomic.Int32
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.Create(ctx, newUser("race", "race@example.com", time.Now())) == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, 1, repo.Len())
}

func TestUserRepository_GetByEmailReturnsEarliest(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	base := time.Now()

	later := newUser("second", "shared@example.com", base.Add(time.Minute))
	first := newUser("first", "shared@example.com", base)
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, first))

	got, err := repo.GetByEmail(ctx, "shared@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	_, err := repo.GetByID(ctx, ulid.Make())
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = repo.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, auth.ErrNotFound)

	err = repo.UpdatePassword(ctx, ulid.Make(), "hash")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()
	u := newUser("ada", "ada@example.com", time.Now().Add(-time.Hour))
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "newhash"))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.Password)
	assert.True(t, got.UpdatedAt.After(u.UpdatedAt))
}
