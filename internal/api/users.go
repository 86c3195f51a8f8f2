package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus/internal/apperr"
	"campus/internal/auth"
	"campus/internal/user"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func tokenBody(u *user.User, t auth.TokenPair) gin.H {
	body := gin.H{
		"accessToken":  t.AccessToken,
		"refreshToken": t.RefreshToken,
		"expiresAt":    t.AccessExp.Unix(),
	}
	if u != nil {
		body["user"] = u
	}
	return body
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.Users.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, u)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	u, tokens, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, tokenBody(&u, tokens))
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if !h.bind(c, &req) {
		return
	}
	tokens, err := h.Users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, tokenBody(nil, tokens))
}

func (h *Handler) me(c *gin.Context) {
	claims, ok := auth.CurrentUser(c)
	if !ok {
		h.fail(c, apperr.ErrUnauthorized)
		return
	}
	u, err := h.Users.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, u)
}
