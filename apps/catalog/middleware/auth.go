package middleware

import (
	"net/http"
	"strings"

	"sneaker-catalog/pkg/jwt"
	"sneaker-catalog/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context keys set by Auth.
const (
	KeyUserID   = "userId"
	KeyUsername = "username"
)

// Auth 校验 access token, 通过后把 user_id 和 username 写入 Context
func Auth(m *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 获取 Header 里的 Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		// 2. 格式必须是 "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		// 3. 解析 Token
		claims, err := m.ParseTyped(parts[1], jwt.TypeAccess)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}

		// 4. 存入 Context, 供后续 Handler 使用
		c.Set(KeyUserID, claims.UserId)
		c.Set(KeyUsername, claims.Username)

		c.Next()
	}
}

// UserID returns the caller set by Auth.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(KeyUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
