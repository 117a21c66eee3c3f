package middleware

import (
	"net/http"

	"sneaker-catalog/pkg/limiter"
	"sneaker-catalog/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateLimit 按 Sentinel 资源限流, 被拦截时返回 429
func RateLimit(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		exit, ok := limiter.Allow(resource)
		if !ok {
			response.Error(c, http.StatusTooManyRequests, "系统繁忙，请稍后再试")
			return
		}
		defer exit()
		c.Next()
	}
}
