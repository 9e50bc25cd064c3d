// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pitchboard Contributors

package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pitchboard/pitchboard/internal/auth"
)

type tokenResponse struct {
	Token string `json:"token"`
}

// profile is the public view of a user. It never carries the password hash
// or the key seed.
type profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Firstname string    `json:"firstname"`
	Lastname  string    `json:"lastname"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address1  string    `json:"address1,omitempty"`
	Address2  string    `json:"address2,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state,omitempty"`
	Zip       string    `json:"zip,omitempty"`
	Github    string    `json:"github,omitempty"`
	Linkedin  string    `json:"linkedin,omitempty"`
	Twitter   string    `json:"twitter,omitempty"`
	Blog      string    `json:"blog,omitempty"`
	Image     []byte    `json:"image,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newProfile(u *auth.User) profile {
	return profile{
		ID:        u.ID.String(),
		Username:  u.Username,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Email:     u.Email,
		Phone:     u.Phone,
		Address1:  u.Address1,
		Address2:  u.Address2,
		City:      u.City,
		State:     u.State,
		Zip:       u.Zip,
		Github:    u.Github,
		Linkedin:  u.Linkedin,
		Twitter:   u.Twitter,
		Blog:      u.Blog,
		Image:     u.Image,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}

func (h *handlers) hello(c *gin.Context) {
	c.String(http.StatusOK, "hello world")
}

func (h *handlers) signup(c *gin.Context) {
	var reg auth.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		abort(c, http.StatusBadRequest, "request body must be a JSON registration")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), reg)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondToken(c, http.StatusCreated, user, auth.KindAuth)
}

func (h *handlers) signin(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok {
		c.Header("WWW-Authenticate", `Basic realm="pitchboard"`)
		abort(c, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	user, err := h.auth.AuthenticateBasic(c.Request.Context(), username, password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.respondToken(c, http.StatusOK, user, auth.KindAuth)
}

func (h *handlers) key(c *gin.Context) {
	h.respondToken(c, http.StatusOK, currentUser(c), auth.KindKey)
}

func (h *handlers) me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		abort(c, http.StatusUnauthorized, auth.ErrInvalidToken.Error())
		return
	}
	c.JSON(http.StatusOK, newProfile(user))
}

func (h *handlers) respondToken(c *gin.Context, status int, user *auth.User, kind auth.TokenKind) {
	token, err := h.auth.IssueToken(user, kind)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, tokenResponse{Token: token})
}
