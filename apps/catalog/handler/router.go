package handler

import (
	"context"
	"net/http"
	"strings"

	"sneaker-catalog/apps/catalog/middleware"
	"sneaker-catalog/pkg/response"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// RouterOptions 路由级开关
type RouterOptions struct {
	ServiceName string
	// ServeMedia serves stored files under the media url.
	ServeMedia bool
	// Health reports whether the service can take traffic.
	Health func(ctx context.Context) error
}

// NewRouter 注册 /api 下的全部路由. 读接口公开, 写接口需要 access token.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(h.Log),
		middleware.RequestID(),
		middleware.Logger(h.Log),
		otelgin.Middleware(opts.ServiceName),
	)

	r.GET("/healthz", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(c.Request.Context()); err != nil {
				h.Log.Warn("health check failed", zap.Error(err))
				response.Error(c, http.StatusServiceUnavailable, "unhealthy")
				return
			}
		}
		response.Success(c, gin.H{"status": "ok"})
	})

	if opts.ServeMedia && strings.HasPrefix(h.Storage.MediaURL(), "/") {
		r.StaticFS(h.Storage.MediaURL(), h.Storage.HTTPFileSystem())
	}

	auth := middleware.Auth(h.JWT)
	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login/", h.Login)
		authGroup.POST("/refresh/", h.Refresh)
		authGroup.POST("/verify/", h.Verify)
	}

	brands := api.Group("/brands")
	{
		brands.GET("/", h.ListBrands)
		brands.POST("/", auth, h.CreateBrand)
		brands.GET("/:id/", h.GetBrand)
		brands.PUT("/:id/", auth, h.UpdateBrand(false))
		brands.PATCH("/:id/", auth, h.UpdateBrand(true))
		brands.DELETE("/:id/", auth, h.DeleteBrand)
	}

	shoes := api.Group("/shoes")
	{
		shoes.GET("/", h.ListShoes)
		shoes.POST("/", auth, h.CreateShoe)
		shoes.GET("/search/", h.SearchShoes)
		shoes.GET("/:id/", h.GetShoe)
		shoes.PUT("/:id/", auth, h.UpdateShoe(false))
		shoes.PATCH("/:id/", auth, h.UpdateShoe(true))
		shoes.DELETE("/:id/", auth, h.DeleteShoe)
		shoes.POST("/:id/upload_images/", auth, middleware.RateLimit(ResUploadImages), h.UploadImages)
		shoes.DELETE("/:id/delete_image/", auth, h.DeleteImage)
		shoes.PATCH("/:id/images/:image_id/", auth, h.UpdateImage)
	}

	return r
}
