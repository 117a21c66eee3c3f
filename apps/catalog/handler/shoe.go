package handler

import (
	"context"
	"net/http"

	"sneaker-catalog/apps/catalog/middleware"
	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/apps/catalog/serializer"
	"sneaker-catalog/apps/catalog/store"
	"sneaker-catalog/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type shoeEvent struct {
	ID      uint   `json:"id"`
	BrandID uint   `json:"brand_id,omitempty"`
	SKU     string `json:"sku,omitempty"`
}

// listShoes renders one page (or all rows) of load in variant v.
func (h *Handler) listShoes(c *gin.Context, v serializer.Variant, load func(store.Page) ([]model.Shoe, int64, error)) {
	l := h.linker(c)
	p, paginated, err := h.pager(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !paginated {
		shoes, _, err := load(store.Page{})
		if err != nil {
			h.fail(c, err)
			return
		}
		response.Success(c, serializer.Shoes(v, shoes, l))
		return
	}

	var shoes []model.Shoe
	count, err := p.fetch(func(page store.Page) (n int64, err error) {
		shoes, n, err = load(page)
		return n, err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, p.body(c, l.Origin, count, serializer.Shoes(v, shoes, l)))
}

// ListShoes GET /api/shoes/
func (h *Handler) ListShoes(c *gin.Context) {
	f, err := serializer.DecodeShoeFilter(c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	h.listShoes(c, serializer.VariantList, func(page store.Page) ([]model.Shoe, int64, error) {
		return h.Shoes.List(ctx, f, page)
	})
}

// SearchShoes GET /api/shoes/search/ 高级搜索
func (h *Handler) SearchShoes(c *gin.Context) {
	f, err := serializer.DecodeSearch(c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	useIndex := h.Index != nil
	h.listShoes(c, serializer.VariantDetail, func(page store.Page) ([]model.Shoe, int64, error) {
		if useIndex {
			shoes, total, err := h.searchIndex(ctx, f, page)
			if err == nil {
				return shoes, total, nil
			}
			// ES 不可用时回退到数据库查询
			h.Log.Warn("search index failed, falling back to database", zap.Error(err))
			useIndex = false
		}
		return h.Shoes.List(ctx, f, page)
	})
}

func (h *Handler) searchIndex(ctx context.Context, f store.ShoeFilter, page store.Page) ([]model.Shoe, int64, error) {
	ids, total, err := h.Index.Search(ctx, f, page)
	if err != nil {
		return nil, 0, err
	}
	shoes, err := h.Shoes.GetByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return shoes, total, nil
}

// GetShoe GET /api/shoes/:id/
func (h *Handler) GetShoe(c *gin.Context) {
	shoeID, err := id(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	shoe, err := h.loadShoe(c.Request.Context(), shoeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, serializer.Shoe(serializer.VariantDetail, *shoe, h.linker(c)))
}

// CreateShoe POST /api/shoes/ 创建者取自当前登录用户
func (h *Handler) CreateShoe(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := h.body(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	shoe := model.NewShoe()
	if err := serializer.DecodeShoe(f, shoe, false); err != nil {
		h.fail(c, err)
		return
	}
	if userID, ok := middleware.UserID(c); ok {
		shoe.CreatedByID = &userID
	}
	if err := h.Shoes.Create(ctx, shoe); err != nil {
		h.fail(c, err)
		return
	}

	h.index(ctx, *shoe)
	h.publish(ctx, "shoe.created", shoeEvent{ID: shoe.ID, BrandID: shoe.BrandID, SKU: shoe.SKU})
	response.Created(c, serializer.Shoe(serializer.VariantWrite, *shoe, h.linker(c)))
}

// UpdateShoe PUT and PATCH /api/shoes/:id/
func (h *Handler) UpdateShoe(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		shoeID, err := id(c, "id")
		if err != nil {
			h.fail(c, err)
			return
		}
		shoe, err := h.Shoes.Get(ctx, shoeID)
		if err != nil {
			h.fail(c, err)
			return
		}
		f, err := h.body(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		if err := serializer.DecodeShoe(f, shoe, partial); err != nil {
			h.fail(c, err)
			return
		}
		if err := h.Shoes.Update(ctx, shoe); err != nil {
			h.fail(c, err)
			return
		}

		h.forget(ctx, shoe.ID)
		h.index(ctx, *shoe)
		h.publish(ctx, "shoe.updated", shoeEvent{ID: shoe.ID, BrandID: shoe.BrandID, SKU: shoe.SKU})
		response.Success(c, serializer.Shoe(serializer.VariantWrite, *shoe, h.linker(c)))
	}
}

// DeleteShoe DELETE /api/shoes/:id/
func (h *Handler) DeleteShoe(c *gin.Context) {
	ctx := c.Request.Context()
	shoeID, err := id(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	files, err := h.Shoes.Delete(ctx, shoeID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.removeFiles(files...)
	h.forget(ctx, shoeID)
	h.unindex(ctx, shoeID)
	h.publish(ctx, "shoe.deleted", shoeEvent{ID: shoeID})
	c.Status(http.StatusNoContent)
}
