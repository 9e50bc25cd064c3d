// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Authentication methods used as metric labels.
const (
	MethodBasic     = "basic"
	MethodToken     = "token"
	MethodProvision = "provision"
)

// Attempt results used as metric labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// AuthAttempts counts authentication attempts by method and result.
// Use RegisterMetrics to register this with a Prometheus registry.
var AuthAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pitchboard_auth_attempts_total",
		Help: "Total number of authentication attempts by method and result",
	},
	[]string{"method", "result"},
)

// TokensIssued counts signed tokens by kind.
// Use RegisterMetrics to register this with a Prometheus registry.
var TokensIssued = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pitchboard_tokens_issued_total",
		Help: "Total number of tokens issued by kind",
	},
	[]string{"kind"},
)

// TokensRevoked counts single-use tokens consumed into the revocation set.
var TokensRevoked = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "pitchboard_tokens_revoked_total",
		Help: "Total number of single-use tokens consumed",
	},
)

// RegisterMetrics registers auth package metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthAttempts)
	reg.MustRegister(TokensIssued)
	reg.MustRegister(TokensRevoked)
}

func recordAttempt(method, result string) {
	AuthAttempts.WithLabelValues(method, result).Inc()
}
