package handler

import (
	"net/http"

	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/apps/catalog/serializer"
	"sneaker-catalog/apps/catalog/store"
	"sneaker-catalog/pkg/response"
	"sneaker-catalog/pkg/storage"

	"github.com/gin-gonic/gin"
)

type brandEvent struct {
	ID      uint   `json:"id"`
	Name    string `json:"name,omitempty"`
	ShoeIDs []uint `json:"shoe_ids,omitempty"`
}

// ListBrands GET /api/brands/
func (h *Handler) ListBrands(c *gin.Context) {
	ctx := c.Request.Context()
	f := serializer.DecodeBrandFilter(c.Request.URL.Query())
	l := h.linker(c)

	p, paginated, err := h.pager(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !paginated {
		brands, _, err := h.Brands.List(ctx, f, store.Page{})
		if err != nil {
			h.fail(c, err)
			return
		}
		response.Success(c, serializer.Brands(brands, l))
		return
	}

	var brands []model.Brand
	count, err := p.fetch(func(page store.Page) (n int64, err error) {
		brands, n, err = h.Brands.List(ctx, f, page)
		return n, err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	results := make([]interface{}, len(brands))
	for i, b := range brands {
		results[i] = serializer.NewBrandOut(b, l)
	}
	response.Success(c, p.body(c, l.Origin, count, results))
}

// GetBrand GET /api/brands/:id/
func (h *Handler) GetBrand(c *gin.Context) {
	brandID, err := id(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	b, err := h.Brands.Get(c.Request.Context(), brandID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, serializer.NewBrandOut(*b, h.linker(c)))
}

// applyLogo stores an uploaded logo or clears it when sent empty. It
// returns the new file so the caller can remove it if the write fails.
func (h *Handler) applyLogo(c *gin.Context, f serializer.Fields, b *model.Brand) (string, error) {
	if fh := formFile(c.Request.MultipartForm, "logo"); fh != nil {
		name := storage.BrandLogoPath(fh.Filename)
		if err := h.saveImage("logo", fh, name); err != nil {
			return "", err
		}
		b.Logo = name
		return name, nil
	}
	if f.IsNull("logo") {
		b.Logo = ""
	}
	return "", nil
}

// CreateBrand POST /api/brands/
func (h *Handler) CreateBrand(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := h.body(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	b := &model.Brand{}
	if err := serializer.DecodeBrand(f, b, false); err != nil {
		h.fail(c, err)
		return
	}
	logo, err := h.applyLogo(c, f, b)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Brands.Create(ctx, b); err != nil {
		h.removeFiles(logo)
		h.fail(c, err)
		return
	}

	h.publish(ctx, "brand.created", brandEvent{ID: b.ID, Name: b.Name})
	response.Created(c, serializer.NewBrandOut(*b, h.linker(c)))
}

// UpdateBrand PUT and PATCH /api/brands/:id/
func (h *Handler) UpdateBrand(partial bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		brandID, err := id(c, "id")
		if err != nil {
			h.fail(c, err)
			return
		}
		b, err := h.Brands.Get(ctx, brandID)
		if err != nil {
			h.fail(c, err)
			return
		}
		f, err := h.body(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		if err := serializer.DecodeBrand(f, b, partial); err != nil {
			h.fail(c, err)
			return
		}
		oldLogo := b.Logo
		logo, err := h.applyLogo(c, f, b)
		if err != nil {
			h.fail(c, err)
			return
		}
		if err := h.Brands.Update(ctx, b); err != nil {
			h.removeFiles(logo)
			h.fail(c, err)
			return
		}
		if oldLogo != "" && oldLogo != b.Logo {
			h.removeFiles(oldLogo)
		}

		// 品牌名称出现在鞋款详情和索引中
		h.forgetAll(ctx)
		h.reindexBrand(ctx, b.ID)
		h.publish(ctx, "brand.updated", brandEvent{ID: b.ID, Name: b.Name})
		response.Success(c, serializer.NewBrandOut(*b, h.linker(c)))
	}
}

// DeleteBrand DELETE /api/brands/:id/ 级联删除鞋款和图片
func (h *Handler) DeleteBrand(c *gin.Context) {
	ctx := c.Request.Context()
	brandID, err := id(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	removed, err := h.Brands.Delete(ctx, brandID)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.removeFiles(removed.Files...)
	h.forget(ctx, removed.ShoeIDs...)
	h.unindex(ctx, removed.ShoeIDs...)
	h.publish(ctx, "brand.deleted", brandEvent{ID: brandID, ShoeIDs: removed.ShoeIDs})
	c.Status(http.StatusNoContent)
}
