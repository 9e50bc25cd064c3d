// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchboard/pitchboard/internal/store"
	"github.com/pitchboard/pitchboard/pkg/errutil"
)

type fakeMigrator struct {
	calls  []string
	upErr  error
	status store.Status
}

func (f *fakeMigrator) Up() error {
	f.calls = append(f.calls, "up")
	return f.upErr
}

func (f *fakeMigrator) Down() error {
	f.calls = append(f.calls, "down")
	return nil
}

func (f *fakeMigrator) Status() (store.Status, error) {
	f.calls = append(f.calls, "status")
	return f.status, nil
}

func (f *fakeMigrator) Close() error {
	f.calls = append(f.calls, "close")
	return nil
}

func migrateDeps(m *fakeMigrator, gotURL *string) *Deps {
	return &Deps{
		OpenMigrator: func(databaseURL string) (Migrator, error) {
			*gotURL = databaseURL
			return m, nil
		},
		LogOutput: &syncBuffer{},
	}
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	isolate(t)

	var url string
	_, err := execute(t, migrateDeps(&fakeMigrator{}, &url), "migrate", "up", "--env-file", noEnvFile(t))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
	assert.Empty(t, url)
}

func TestMigrate_Up(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://pitch@localhost/pitchboard")

	m := &fakeMigrator{}
	var url string
	out, err := execute(t, migrateDeps(m, &url), "migrate", "up", "--env-file", noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, "postgres://pitch@localhost/pitchboard", url)
	assert.Equal(t, []string{"up", "close"}, m.calls)
	assert.Contains(t, out, "Migrations applied")
}

func TestMigrate_UpFailureStillCloses(t *testing.T) {
	isolate(t)

	m := &fakeMigrator{upErr: errors.New("dirty database version 1")}
	var url string
	_, err := execute(t, migrateDeps(m, &url), "migrate", "up",
		"--env-file", noEnvFile(t), "--database-url", "postgres://localhost/pitchboard")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_FAILED")
	assert.Equal(t, []string{"up", "close"}, m.calls)
}

func TestMigrate_DownRequiresConfirmation(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/pitchboard")

	m := &fakeMigrator{}
	var url string
	_, err := execute(t, migrateDeps(m, &url), "migrate", "down", "--env-file", noEnvFile(t))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIRMATION_REQUIRED")
	assert.Empty(t, m.calls)

	_, err = execute(t, migrateDeps(m, &url), "migrate", "down", "--yes", "--env-file", noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"down", "close"}, m.calls)
}

func TestMigrate_Status(t *testing.T) {
	isolate(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/pitchboard")

	m := &fakeMigrator{status: store.Status{
		Version: 1,
		Applied: []string{"000001_create_users"},
		Pending: []string{"000002_add_sessions"},
	}}
	var url string
	out, err := execute(t, migrateDeps(m, &url), "migrate", "status", "--env-file", noEnvFile(t))
	require.NoError(t, err)
	assert.Contains(t, out, "version: 1 (clean)")
	assert.Contains(t, out, "[x] 000001_create_users")
	assert.Contains(t, out, "[ ] 000002_add_sessions")
}

func TestPrintStatus_Dirty(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, store.Status{Version: 3, Dirty: true})
	assert.Equal(t, "version: 3 (dirty)\n", buf.String())
}
