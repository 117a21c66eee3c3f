package handler

import (
	"context"
	"fmt"

	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/apps/catalog/store"

	"go.uber.org/zap"
)

const detailPrefix = "shoe:detail:"

func detailKey(id uint) string {
	return fmt.Sprintf("%s%d", detailPrefix, id)
}

// loadShoe 读取鞋款详情, 优先走缓存
func (h *Handler) loadShoe(ctx context.Context, id uint) (*model.Shoe, error) {
	if h.Cache == nil {
		return h.Shoes.Get(ctx, id)
	}
	var shoe model.Shoe
	hit, err := h.Cache.Get(ctx, detailKey(id), &shoe)
	if err != nil {
		h.Log.Warn("read detail cache failed", zap.Uint("shoe_id", id), zap.Error(err))
	}
	if hit {
		return &shoe, nil
	}

	loaded, err := h.Shoes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := h.Cache.Set(ctx, detailKey(id), loaded, 0); err != nil {
		h.Log.Warn("write detail cache failed", zap.Uint("shoe_id", id), zap.Error(err))
	}
	return loaded, nil
}

// forget drops cached details of the given shoes.
func (h *Handler) forget(ctx context.Context, ids ...uint) {
	if h.Cache == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = detailKey(id)
	}
	if err := h.Cache.Delete(ctx, keys...); err != nil {
		h.Log.Warn("invalidate detail cache failed", zap.Uints("shoe_ids", ids), zap.Error(err))
	}
}

// ForgetDetails drops every cached shoe detail. Writes outside the API
// (operator scripts) call it after changing rows that details render.
func ForgetDetails(ctx context.Context, c Cache) error {
	return c.DeleteByPrefix(ctx, detailPrefix)
}

// forgetAll drops every cached detail, used when a brand changes.
func (h *Handler) forgetAll(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if err := ForgetDetails(ctx, h.Cache); err != nil {
		h.Log.Warn("invalidate detail cache failed", zap.Error(err))
	}
}

func (h *Handler) index(ctx context.Context, shoes ...model.Shoe) {
	if h.Index == nil {
		return
	}
	for _, s := range shoes {
		if err := h.Index.IndexShoe(ctx, s); err != nil {
			h.Log.Warn("index shoe failed", zap.Uint("shoe_id", s.ID), zap.Error(err))
		}
	}
}

// reindex reloads the shoes and writes them to the search index.
func (h *Handler) reindex(ctx context.Context, ids ...uint) {
	if h.Index == nil || len(ids) == 0 {
		return
	}
	shoes, err := h.Shoes.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("load shoes for indexing failed", zap.Uints("shoe_ids", ids), zap.Error(err))
		return
	}
	h.index(ctx, shoes...)
}

func (h *Handler) unindex(ctx context.Context, ids ...uint) {
	if h.Index == nil {
		return
	}
	for _, id := range ids {
		if err := h.Index.DeleteShoe(ctx, id); err != nil {
			h.Log.Warn("unindex shoe failed", zap.Uint("shoe_id", id), zap.Error(err))
		}
	}
}

// touchShoe refreshes the cache and index after the shoe's images changed.
func (h *Handler) touchShoe(ctx context.Context, id uint) {
	h.forget(ctx, id)
	h.reindex(ctx, id)
}

// reindexBrand rewrites the documents of the brand's shoes.
func (h *Handler) reindexBrand(ctx context.Context, brandID uint) {
	if h.Index == nil {
		return
	}
	shoes, _, err := h.Shoes.List(ctx, store.ShoeFilter{BrandID: &brandID}, store.Page{})
	if err != nil {
		h.Log.Warn("load brand shoes for indexing failed", zap.Uint("brand_id", brandID), zap.Error(err))
		return
	}
	h.index(ctx, shoes...)
}
