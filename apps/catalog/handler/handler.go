// Package handler exposes the catalog over HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sneaker-catalog/apps/catalog/errs"
	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/apps/catalog/serializer"
	"sneaker-catalog/apps/catalog/store"
	"sneaker-catalog/pkg/broker"
	"sneaker-catalog/pkg/config"
	"sneaker-catalog/pkg/jwt"
	"sneaker-catalog/pkg/response"
	"sneaker-catalog/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Indexer mirrors shoes into the search index.
type Indexer interface {
	IndexShoe(ctx context.Context, s model.Shoe) error
	DeleteShoe(ctx context.Context, id uint) error
	Search(ctx context.Context, f store.ShoeFilter, page store.Page) ([]uint, int64, error)
}

// Cache is the detail cache; *cache.Cache satisfies it.
type Cache interface {
	Get(ctx context.Context, key string, target interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// Deps are the collaborators of the handlers. Cache, Index and Events are
// optional.
type Deps struct {
	Brands  *store.BrandStore
	Shoes   *store.ShoeStore
	Images  *store.ImageStore
	Users   *store.UserStore
	Storage *storage.Storage
	JWT     *jwt.Manager
	Cache   Cache
	Index   Indexer
	Events  broker.Publisher
	Log     *zap.Logger

	Pagination config.PaginationConfig
	// BaseURL replaces the request scheme and host in absolute links.
	BaseURL       string
	MaxUploadSize int64
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.Events == nil {
		d.Events = broker.NopPublisher{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.MaxUploadSize <= 0 {
		d.MaxUploadSize = 32 << 20
	}
	return &Handler{Deps: d}
}

const (
	msgNotFound    = "Not found."
	msgServerError = "A server error occurred."
)

// fail 统一错误映射
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *errs.ValidationError
	var bad *errs.BadRequestError
	switch {
	case errors.As(err, &verr):
		response.Validation(c, verr.Fields)
	case errors.As(err, &bad):
		response.Error(c, http.StatusBadRequest, bad.Msg)
	case errors.Is(err, errs.ErrNotFound):
		response.Error(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, store.ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "No active account found with the given credentials")
	case errors.Is(err, jwt.ErrInvalidToken):
		response.Error(c, http.StatusUnauthorized, "Token is invalid or expired")
	default:
		h.Log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, msgServerError)
	}
}

// linker builds absolute media URLs from the configured base url or the
// request itself.
func (h *Handler) linker(c *gin.Context) serializer.Linker {
	origin := h.BaseURL
	if origin == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
			scheme = strings.TrimSpace(strings.Split(p, ",")[0])
		}
		origin = scheme + "://" + c.Request.Host
	}
	return serializer.Linker{Origin: origin, Storage: h.Storage}
}

// id reads a positive numeric path parameter; anything else is a 404 like
// an unknown row.
func id(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errs.NotFound(name)
	}
	return uint(v), nil
}

// body reads a JSON, urlencoded or multipart body into Fields.
func (h *Handler) body(c *gin.Context) (serializer.Fields, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize)
	switch c.ContentType() {
	case gin.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(h.MaxUploadSize); err != nil {
			return nil, errs.BadRequest("Multipart form parse error - " + err.Error())
		}
		return serializer.FormFields(c.Request.MultipartForm.Value), nil
	case gin.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return nil, errs.BadRequest("Form parse error - " + err.Error())
		}
		return serializer.FormFields(c.Request.PostForm), nil
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errs.BadRequest("Request body too large.")
		}
		return nil, fmt.Errorf("read body: %w", err)
	}
	return serializer.ParseJSON(data)
}

// publish 事务提交后发送事件, 失败只记录日志
func (h *Handler) publish(ctx context.Context, key string, payload interface{}) {
	if err := h.Events.Publish(ctx, key, payload); err != nil {
		h.Log.Warn("publish event failed", zap.String("routing_key", key), zap.Error(err))
	}
}

// removeFiles deletes storage files no row references anymore.
func (h *Handler) removeFiles(names ...string) {
	for _, name := range names {
		if err := h.Storage.Delete(name); err != nil {
			h.Log.Warn("delete file failed", zap.String("file", name), zap.Error(err))
		}
	}
}
