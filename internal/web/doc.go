// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

// Package web exposes the authentication facade over HTTP.
//
// Routes:
//
//	GET  /        liveness greeting
//	POST /signup  register with a JSON body, returns an auth token
//	POST /signin  HTTP basic credentials, returns an auth token
//	GET  /key     bearer auth, returns a non-expiring key token
//	GET  /me      bearer auth, returns the caller's profile
package web
