// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pitchboard/pitchboard/internal/auth"
	"github.com/pitchboard/pitchboard/pkg/errutil"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps auth errors to HTTP responses. Internal failures are
// logged and reported without detail.
func (h *handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.Header("WWW-Authenticate", `Basic realm="pitchboard"`)
		abort(c, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		c.Header("WWW-Authenticate", `Bearer realm="pitchboard"`)
		abort(c, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
	case errors.Is(err, auth.ErrValidation):
		abort(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrDuplicateUsername):
		abort(c, http.StatusConflict, auth.ErrDuplicateUsername.Error())
	default:
		errutil.LogError(c.Request.Context(), h.logger, "request failed", err,
			"method", c.Request.Method, "route", route(c))
		abort(c, http.StatusInternalServerError, "internal server error")
	}
}

func (h *handlers) recover(c *gin.Context, recovered any) {
	h.logger.ErrorContext(c.Request.Context(), "panic serving request",
		"panic", recovered, "method", c.Request.Method, "route", route(c))
	abort(c, http.StatusInternalServerError, "internal server error")
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, RequestID: c.GetString("request_id")})
}
