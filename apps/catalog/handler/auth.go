package handler

import (
	"sneaker-catalog/apps/catalog/serializer"
	"sneaker-catalog/pkg/jwt"
	"sneaker-catalog/pkg/response"

	"github.com/gin-gonic/gin"
)

// Login POST /api/auth/login/ 返回 access 和 refresh
func (h *Handler) Login(c *gin.Context) {
	f, err := h.body(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	username, password, err := serializer.DecodeCredentials(f)
	if err != nil {
		h.fail(c, err)
		return
	}
	user, err := h.Users.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		h.fail(c, err)
		return
	}
	access, refresh, err := h.JWT.GeneratePair(int64(user.ID), user.Username)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"access": access, "refresh": refresh})
}

// Refresh POST /api/auth/refresh/ 用 refresh token 换新的 access token
func (h *Handler) Refresh(c *gin.Context) {
	f, err := h.body(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := serializer.DecodeToken(f, "refresh")
	if err != nil {
		h.fail(c, err)
		return
	}
	claims, err := h.JWT.ParseTyped(token, jwt.TypeRefresh)
	if err != nil {
		h.fail(c, err)
		return
	}
	access, err := h.JWT.GenerateToken(claims.UserId, claims.Username, jwt.TypeAccess)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"access": access})
}

// Verify POST /api/auth/verify/ 校验任意类型的 token
func (h *Handler) Verify(c *gin.Context) {
	f, err := h.body(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := serializer.DecodeToken(f, "token")
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := h.JWT.ParseToken(token); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{})
}
