// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/pitchboard/pitchboard/internal/auth"
	"github.com/pitchboard/pitchboard/internal/observability"
)

// Authenticator is the subset of auth.Service the handlers use.
type Authenticator interface {
	Register(ctx context.Context, reg auth.Registration) (*auth.User, error)
	AuthenticateBasic(ctx context.Context, username, password string) (*auth.User, error)
	AuthenticateToken(ctx context.Context, token string) (*auth.User, error)
	IssueToken(user *auth.User, kind auth.TokenKind) (string, error)
}

// Options configures the router.
type Options struct {
	Auth   Authenticator
	Logger *slog.Logger

	// Metrics is optional; request counters are skipped when nil.
	Metrics *observability.Metrics

	// CORSOrigins enables CORS for the listed origins. Empty disables CORS.
	CORSOrigins []string
}

type handlers struct {
	auth   Authenticator
	logger *slog.Logger
}

// NewRouter builds the HTTP handler.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Auth == nil {
		return nil, oops.Errorf("authenticator is required")
	}
	if opts.Logger == nil {
		return nil, oops.Errorf("logger is required")
	}

	h := &handlers{auth: opts.Auth, logger: opts.Logger}

	r := gin.New()
	r.Use(gin.CustomRecovery(h.recover))
	r.Use(requestID())
	r.Use(requestLogger(opts.Logger))
	if opts.Metrics != nil {
		r.Use(requestMetrics(opts.Metrics))
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/", h.hello)
	r.POST("/signup", h.signup)
	r.POST("/signin", h.signin)

	authed := r.Group("/", h.bearerAuth)
	authed.GET("/key", h.key)
	authed.GET("/me", h.me)

	return r, nil
}
