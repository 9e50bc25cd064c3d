// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

// Package postgres implements auth.UserRepository on PostgreSQL.
package postgres
