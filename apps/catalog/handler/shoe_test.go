package handler

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/apps/catalog/serializer"
	"sneaker-catalog/apps/catalog/store/storetest"
	"sneaker-catalog/pkg/cache"
	"sneaker-catalog/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priced(p string) func(*model.Shoe) {
	return func(s *model.Shoe) {
		s.RetailPrice = decimal.NewNullDecimal(decimal.RequireFromString(p))
	}
}

func ids(t *testing.T, results []interface{}) []uint {
	t.Helper()
	out := make([]uint, len(results))
	for i, r := range results {
		out[i] = uint(r.(map[string]interface{})["id"].(float64))
	}
	return out
}

func TestCreateShoe(t *testing.T) {
	idx := &fakeIndex{}
	e := newEnv(t, func(d *Deps) { d.Index = idx })
	nike := storetest.Brand(t, e.db, "Nike")

	w := e.json(http.MethodPost, "/api/shoes/", map[string]interface{}{
		"brand": nike.ID, "model": "Air Max 90", "colorway": "Infrared",
		"retail_price": "899", "available_sizes": []float64{40, 41.5}, "created_by": 99,
	}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out serializer.ShoeWrite
	w.data(&out)
	assert.Regexp(t, `^NIK-AIR MAX 90-[0-9A-F]{8}$`, out.SKU)
	assert.Equal(t, "899.00", *out.RetailPrice)
	assert.JSONEq(t, `[40,41.5]`, string(out.AvailableSizes))
	assert.JSONEq(t, `[]`, string(out.Features))
	assert.Equal(t, "lifestyle", out.Category)
	assert.Equal(t, "CNY", out.Currency)
	assert.True(t, out.IsActive)
	assert.Equal(t, []uint{out.ID}, idx.indexed)
	assert.Equal(t, []string{"shoe.created"}, e.events.Keys())

	// 创建者来自 token, 不能由请求体指定
	var detail serializer.ShoeDetail
	e.get(fmt.Sprintf("/api/shoes/%d/", out.ID)).data(&detail)
	require.NotNil(t, detail.CreatedBy)
	assert.Equal(t, e.user.ID, *detail.CreatedBy)
	require.NotNil(t, detail.CreatedByUsername)
	assert.Equal(t, "admin", *detail.CreatedByUsername)
	assert.Equal(t, "Nike", detail.BrandInfo.Name)
	assert.Empty(t, detail.Images)

	w = e.json(http.MethodPost, "/api/shoes/", map[string]interface{}{
		"brand": nike.ID, "model": "Air Max 90", "colorway": "Infrared",
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"The fields brand, model, colorway must make a unique set."}, w.envelope().Errors["non_field_errors"])
}

func TestCreateShoeValidation(t *testing.T) {
	e := newEnv(t)
	nike := storetest.Brand(t, e.db, "Nike")

	w := e.json(http.MethodPost, "/api/shoes/", map[string]interface{}{
		"brand": nike.ID, "model": "Dunk", "colorway": "Panda",
		"available_sizes": "42", "features": map[string]string{"a": "b"}, "release_year": 1949,
	}, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := w.envelope().Errors
	assert.Equal(t, []string{"尺码必须是列表格式"}, errs["available_sizes"])
	assert.Equal(t, []string{"特性必须是列表格式"}, errs["features"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 1950."}, errs["release_year"])

	w = e.json(http.MethodPost, "/api/shoes/", map[string]interface{}{"brand": 404, "model": "Dunk", "colorway": "Panda"}, true)
	assert.Equal(t, []string{`Invalid pk "404" - object does not exist.`}, w.envelope().Errors["brand"])

	w = e.json(http.MethodPost, "/api/shoes/", map[string]interface{}{}, true)
	errs = w.envelope().Errors
	for _, f := range []string{"brand", "model", "colorway"} {
		assert.Equal(t, []string{"This field is required."}, errs[f], f)
	}

	req := e.json(http.MethodPost, "/api/shoes/", nil, true)
	assert.Equal(t, http.StatusBadRequest, req.Code)
}

func TestMalformedJSON(t *testing.T) {
	e := newEnv(t)
	req := e.rawJSON(http.MethodPost, "/api/shoes/", `{"model":`)
	assert.Equal(t, http.StatusBadRequest, req.Code)
	assert.Contains(t, req.envelope().Msg, "JSON parse error")
}

func TestUpdateShoe(t *testing.T) {
	e := newEnv(t)
	nike := storetest.Brand(t, e.db, "Nike")
	shoe := storetest.Shoe(t, e.db, nike, "Air Max 90", "Infrared")
	storetest.Shoe(t, e.db, nike, "Air Max 1", "Red")
	path := fmt.Sprintf("/api/shoes/%d/", shoe.ID)

	w := e.json(http.MethodPatch, path, map[string]interface{}{"stock_quantity": 12, "heel_height": "3.5"}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out serializer.ShoeWrite
	w.data(&out)
	assert.Equal(t, uint(12), out.StockQuantity)
	assert.Equal(t, "3.5", *out.HeelHeight)
	assert.Equal(t, shoe.SKU, out.SKU)
	assert.Equal(t, "Infrared", out.Colorway)

	w = e.json(http.MethodPut, path, map[string]interface{}{"model": "Air Max 90"}, true)
	assert.Equal(t, []string{"This field is required."}, w.envelope().Errors["colorway"])

	w = e.json(http.MethodPatch, path, map[string]interface{}{"model": "Air Max 1", "colorway": "Red"}, true)
	assert.Contains(t, w.envelope().Errors, "non_field_errors")

	w = e.json(http.MethodPatch, path, map[string]interface{}{"stock_quantity": -1}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, http.StatusNotFound, e.json(http.MethodPatch, "/api/shoes/abc/", map[string]interface{}{}, true).Code)
}

func TestDeleteShoe(t *testing.T) {
	idx := &fakeIndex{}
	e := newEnv(t, func(d *Deps) { d.Index = idx })
	nike := storetest.Brand(t, e.db, "Nike")
	shoe := storetest.Shoe(t, e.db, nike, "Air Max 90", "Infrared")
	w := e.multipart(http.MethodPost, fmt.Sprintf("/api/shoes/%d/upload_images/", shoe.ID), nil, []upload{pngUpload("a.png")}, true)
	require.Equal(t, http.StatusOK, w.Code)
	var img model.ShoeImage
	require.NoError(t, e.db.First(&img).Error)

	w = e.json(http.MethodDelete, fmt.Sprintf("/api/shoes/%d/", shoe.ID), nil, true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, e.count(&model.ShoeImage{}))
	assert.False(t, e.h.Storage.Exists(img.Image))
	assert.Equal(t, []uint{shoe.ID}, idx.deleted)
	assert.Equal(t, http.StatusNotFound, e.get(fmt.Sprintf("/api/shoes/%d/", shoe.ID)).Code)
}

func TestShoeListShapeAndFilters(t *testing.T) {
	e := newEnv(t)
	nike := storetest.Brand(t, e.db, "Nike")
	adidas := storetest.Brand(t, e.db, "adidas")
	airmax := storetest.Shoe(t, e.db, nike, "Air Max 90", "Infrared", priced("899"))
	storetest.Shoe(t, e.db, adidas, "Samba", "White", func(s *model.Shoe) { s.IsActive = false })

	var page PageBody
	w := e.get("/api/shoes/")
	require.Equal(t, http.StatusOK, w.Code)
	w.data(&page)
	require.Equal(t, int64(2), page.Count)
	item := page.Results[1].(map[string]interface{})
	assert.Equal(t, "Nike", item["brand_name"])
	assert.Equal(t, "899.00", item["retail_price"])
	assert.Nil(t, item["primary_image"])
	assert.NotContains(t, item, "description")

	e.get(fmt.Sprintf("/api/shoes/?brand=%d", nike.ID)).data(&page)
	assert.Equal(t, []uint{airmax.ID}, ids(t, page.Results))

	e.get("/api/shoes/?is_active=false").data(&page)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Samba", page.Results[0].(map[string]interface{})["model"])

	e.get("/api/shoes/?search=INFRA").data(&page)
	assert.Equal(t, []uint{airmax.ID}, ids(t, page.Results))

	e.get("/api/shoes/?ordering=retail_price").data(&page)
	assert.Len(t, page.Results, 2)

	w = e.get("/api/shoes/?release_year=abc&category=hiking")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := w.envelope().Errors
	assert.Contains(t, errs, "release_year")
	assert.Contains(t, errs, "category")
}

func TestShoeListPrimaryImage(t *testing.T) {
	e := newEnv(t)
	nike := storetest.Brand(t, e.db, "Nike")
	shoe := storetest.Shoe(t, e.db, nike, "Air Max 90", "Infrared")
	require.NoError(t, e.db.Create(&model.ShoeImage{ShoeID: shoe.ID, Image: "shoes/1/cover.jpg", IsPrimary: true}).Error)

	var page PageBody
	e.get("/api/shoes/").data(&page)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "http://example.com/media/shoes/1/cover.jpg", page.Results[0].(map[string]interface{})["primary_image"])
}

func TestPagination(t *testing.T) {
	e := newEnv(t)
	nike := storetest.Brand(t, e.db, "Nike")
	for i := 0; i < 5; i++ {
		storetest.Shoe(t, e.db, nike, fmt.Sprintf("Model %d", i), "Black")
	}

	var page PageBody
	e.get("/api/shoes/?page_size=2").data(&page)
	assert.Equal(t, int64(5), page.Count)
	assert.Len(t, page.Results, 2)
	require.NotNil(t, page.Next)
	assert.Equal(t, "http://example.com/api/shoes/?page=2&page_size=2", *page.Next)
	assert.Nil(t, page.Previous)

	e.get("/api/shoes/?page=2&page_size=2").data(&page)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "http://example.com/api/shoes/?page_size=2", *page.Previous)

	e.get("/api/shoes/?page=last&page_size=2").data(&page)
	assert.Len(t, page.Results, 1)
	assert.Nil(t, page.Next)

	// page_size is capped
	e.h.Pagination.MaxPageSize = 3
	e.get("/api/shoes/?page_size=50").data(&page)
	assert.Len(t, page.Results, 3)

	assert.Equal(t, http.StatusNotFound, e.get("/api/shoes/?page=9").Code)
	assert.Equal(t, http.StatusNotFound, e.get("/api/shoes/?page=zero").Code)
}

func TestPaginationOff(t *testing.T) {
	e := newEnv(t, func(d *Deps) { d.Pagination = config.PaginationConfig{} })
	nike := storetest.Brand(t, e.db, "Nike")
	storetest.Shoe(t, e.db, nike, "Air Max 90", "Infrared")

	var items []serializer.ShoeListItem
	e.get("/api/shoes/").data(&items)
	assert.Len(t, items, 1)

	var brands []serializer.BrandOut
	e.get("/api/brands/").data(&brands)
	assert.Len(t, brands, 1)
}

func seedSearch(t *testing.T, e *env) (airmax, ultraboost, samba, jordan *model.Shoe) {
	nike := storetest.Brand(t, e.db, "Nike")
	adidas := storetest.Brand(t, e.db, "adidas")
	airmax = storetest.Shoe(t, e.db, nike, "Air Max 90", "Infrared", priced("150"), func(s *model.Shoe) { s.ReleaseYear = ptr(1990) })
	ultraboost = storetest.Shoe(t, e.db, adidas, "Ultraboost", "Core Black", priced("199.99"), func(s *model.Shoe) {
		s.Description = "Responsive cushioning with AIR-like comfort"
		s.ReleaseYear = ptr(2015)
	})
	samba = storetest.Shoe(t, e.db, adidas, "Samba", "White", priced("100"), func(s *model.Shoe) { s.ReleaseYear = ptr(1950) })
	jordan = storetest.Shoe(t, e.db, nike, "Jordan 1", "Chicago", func(s *model.Shoe) { s.ReleaseYear = ptr(1985) })
	return
}

func ptr[T any](v T) *T { return &v }

func TestSearch(t *testing.T) {
	e := newEnv(t)
	airmax, ultraboost, samba, _ := seedSearch(t, e)

	tests := []struct {
		query string
		want  []uint
	}{
		{"q=Air", []uint{ultraboost.ID, airmax.ID}},
		{"q=nike", []uint{jordanOf(t, e), airmax.ID}},
		{"min_price=100&max_price=200", []uint{samba.ID, ultraboost.ID, airmax.ID}},
		{"min_price=150.5", []uint{ultraboost.ID}},
		{"start_year=1980&end_year=2000", []uint{jordanOf(t, e), airmax.ID}},
		{"q=air&max_price=160", []uint{airmax.ID}},
		{"q=&min_price=", []uint{jordanOf(t, e), samba.ID, ultraboost.ID, airmax.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var page PageBody
			w := e.get("/api/shoes/search/?" + tt.query)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			w.data(&page)
			assert.Equal(t, tt.want, ids(t, page.Results))
		})
	}

	// 搜索结果使用详情格式
	var page PageBody
	e.get("/api/shoes/search/?q=samba").data(&page)
	require.Len(t, page.Results, 1)
	assert.Contains(t, page.Results[0], "brand_info")

	w := e.get("/api/shoes/search/?min_price=cheap&start_year=old")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.envelope().Errors, "min_price")
	assert.Contains(t, w.envelope().Errors, "start_year")
}

func jordanOf(t *testing.T, e *env) uint {
	t.Helper()
	var s model.Shoe
	require.NoError(t, e.db.Where("model = ?", "Jordan 1").First(&s).Error)
	return s.ID
}

func TestSearchUsesIndex(t *testing.T) {
	idx := &fakeIndex{}
	e := newEnv(t, func(d *Deps) { d.Index = idx })
	airmax, _, samba, _ := seedSearch(t, e)

	idx.ids, idx.total = []uint{samba.ID, airmax.ID}, 2
	var page PageBody
	e.get("/api/shoes/search/?q=whatever").data(&page)
	assert.Equal(t, int64(2), page.Count)
	assert.Equal(t, []uint{samba.ID, airmax.ID}, ids(t, page.Results))

	// 索引不可用时回退到数据库
	idx.err = errIndexDown
	e.get("/api/shoes/search/?q=air+max").data(&page)
	assert.Equal(t, []uint{airmax.ID}, ids(t, page.Results))
}

func TestForgetDetailsKeepsOtherKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	c := cache.New(rdb, 0)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, detailKey(1), map[string]string{"created_by_username": "admin"}, 0))
	require.NoError(t, c.Set(ctx, detailKey(2), map[string]string{}, 0))
	require.NoError(t, c.Set(ctx, "other:1", "x", 0))

	require.NoError(t, ForgetDetails(ctx, c))
	assert.False(t, mr.Exists(detailKey(1)))
	assert.False(t, mr.Exists(detailKey(2)))
	assert.True(t, mr.Exists("other:1"))
}

func TestDetailCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	e := newEnv(t, func(d *Deps) { d.Cache = cache.New(rdb, 0) })
	nike := storetest.Brand(t, e.db, "Nike")
	shoe := storetest.Shoe(t, e.db, nike, "Air Max 90", "Infrared", priced("899"))
	path := fmt.Sprintf("/api/shoes/%d/", shoe.ID)
	key := detailKey(shoe.ID)

	var first serializer.ShoeDetail
	e.get(path).data(&first)
	assert.True(t, mr.Exists(key))

	// 命中缓存时结果不变
	var cached serializer.ShoeDetail
	e.get(path).data(&cached)
	assert.Equal(t, first, cached)

	require.Equal(t, http.StatusOK, e.json(http.MethodPatch, path, map[string]interface{}{"colorway": "Bred"}, true).Code)
	assert.False(t, mr.Exists(key))
	e.get(path).data(&cached)
	assert.Equal(t, "Bred", cached.Colorway)
	assert.Equal(t, "899.00", *cached.RetailPrice)

	// 品牌改名清空所有详情
	require.Equal(t, http.StatusOK, e.json(http.MethodPatch, fmt.Sprintf("/api/brands/%d/", nike.ID), map[string]string{"name": "NIKE"}, true).Code)
	assert.False(t, mr.Exists(key))
	e.get(path).data(&cached)
	assert.Equal(t, "NIKE", cached.BrandInfo.Name)

	// 图片变化也会失效
	require.Equal(t, http.StatusOK, e.multipart(http.MethodPost, path+"upload_images/", nil, []upload{pngUpload("a.png")}, true).Code)
	assert.False(t, mr.Exists(key))
	e.get(path).data(&cached)
	assert.Len(t, cached.Images, 1)
}

func TestPublishFailureDoesNotFailWrites(t *testing.T) {
	e := newEnv(t)
	e.events.err = context.DeadlineExceeded
	w := e.json(http.MethodPost, "/api/brands/", map[string]string{"name": "Nike"}, true)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"brand.created"}, e.events.Keys())
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusOK, e.get("/healthz").Code)
}
