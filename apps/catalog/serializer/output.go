// Package serializer turns catalog models into response bodies and request
// bodies back into models.
package serializer

import (
	"encoding/json"
	"strings"
	"time"

	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/pkg/storage"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Linker builds absolute media URLs for one request.
type Linker struct {
	// Origin is scheme://host of the request or the configured base url.
	Origin  string
	Storage *storage.Storage
}

// URL returns the absolute URL of a stored file, nil when name is empty.
func (l Linker) URL(name string) *string {
	if name == "" || l.Storage == nil {
		return nil
	}
	u := l.Storage.URL(name)
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = strings.TrimSuffix(l.Origin, "/") + u
	}
	return &u
}

type Variant int

const (
	VariantList Variant = iota
	VariantDetail
	VariantWrite
)

func (v Variant) String() string {
	switch v {
	case VariantList:
		return "list"
	case VariantWrite:
		return "write"
	default:
		return "detail"
	}
}

type BrandOut struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	NameEn      string    `json:"name_en"`
	Logo        *string   `json:"logo"`
	Description string    `json:"description"`
	Website     string    `json:"website"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ImageOut struct {
	ID         uint      `json:"id"`
	Image      *string   `json:"image"`
	AltText    string    `json:"alt_text"`
	IsPrimary  bool      `json:"is_primary"`
	Order      uint      `json:"order"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ShoeListItem 列表简化版, 不含描述、材质和完整图片列表
type ShoeListItem struct {
	ID           uint      `json:"id"`
	BrandName    string    `json:"brand_name"`
	Model        string    `json:"model"`
	Colorway     string    `json:"colorway"`
	Category     string    `json:"category"`
	ReleaseYear  *int      `json:"release_year"`
	RetailPrice  *string   `json:"retail_price"`
	Currency     string    `json:"currency"`
	PrimaryImage *string   `json:"primary_image"`
	IsActive     bool      `json:"is_active"`
	IsLimited    bool      `json:"is_limited"`
	CreatedAt    time.Time `json:"created_at"`
}

// ShoeWrite is the shape echoed after create and update.
type ShoeWrite struct {
	ID             uint            `json:"id"`
	Brand          uint            `json:"brand"`
	Model          string          `json:"model"`
	Version        string          `json:"version"`
	Colorway       string          `json:"colorway"`
	Category       string          `json:"category"`
	ReleaseYear    *int            `json:"release_year"`
	RetailPrice    *string         `json:"retail_price"`
	Currency       string          `json:"currency"`
	SizeSystem     string          `json:"size_system"`
	AvailableSizes json.RawMessage `json:"available_sizes"`
	Description    string          `json:"description"`
	Features       json.RawMessage `json:"features"`
	Materials      string          `json:"materials"`
	Weight         *uint           `json:"weight"`
	HeelHeight     *string         `json:"heel_height"`
	SKU            string          `json:"sku"`
	StockQuantity  uint            `json:"stock_quantity"`
	IsActive       bool            `json:"is_active"`
	IsLimited      bool            `json:"is_limited"`
}

// ShoeDetail 详情完整版
type ShoeDetail struct {
	ShoeWrite
	BrandInfo         BrandOut   `json:"brand_info"`
	Images            []ImageOut `json:"images"`
	CreatedBy         *uint      `json:"created_by"`
	CreatedByUsername *string    `json:"created_by_username,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func fixed(d decimal.NullDecimal, places int32) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(places)
	return &s
}

func list(j datatypes.JSON) json.RawMessage {
	if len(j) == 0 {
		return json.RawMessage("[]")
	}
	return json.RawMessage(j)
}

func NewBrandOut(b model.Brand, l Linker) BrandOut {
	return BrandOut{
		ID:          b.ID,
		Name:        b.Name,
		NameEn:      b.NameEn,
		Logo:        l.URL(b.Logo),
		Description: b.Description,
		Website:     b.Website,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func Brands(brands []model.Brand, l Linker) []BrandOut {
	out := make([]BrandOut, len(brands))
	for i, b := range brands {
		out[i] = NewBrandOut(b, l)
	}
	return out
}

func NewImageOut(img model.ShoeImage, l Linker) ImageOut {
	return ImageOut{
		ID:         img.ID,
		Image:      l.URL(img.Image),
		AltText:    img.AltText,
		IsPrimary:  img.IsPrimary,
		Order:      img.Order,
		UploadedAt: img.UploadedAt,
	}
}

func Images(images []model.ShoeImage, l Linker) []ImageOut {
	out := make([]ImageOut, len(images))
	for i, img := range images {
		out[i] = NewImageOut(img, l)
	}
	return out
}

// NewShoeListItem expects Brand and Images loaded.
func NewShoeListItem(s model.Shoe, l Linker) ShoeListItem {
	item := ShoeListItem{
		ID:          s.ID,
		BrandName:   s.Brand.Name,
		Model:       s.Model,
		Colorway:    s.Colorway,
		Category:    string(s.Category),
		ReleaseYear: s.ReleaseYear,
		RetailPrice: fixed(s.RetailPrice, 2),
		Currency:    s.Currency,
		IsActive:    s.IsActive,
		IsLimited:   s.IsLimited,
		CreatedAt:   s.CreatedAt,
	}
	if img := s.PrimaryImage(); img != nil {
		item.PrimaryImage = l.URL(img.Image)
	}
	return item
}

func NewShoeWrite(s model.Shoe) ShoeWrite {
	return ShoeWrite{
		ID:             s.ID,
		Brand:          s.BrandID,
		Model:          s.Model,
		Version:        s.Version,
		Colorway:       s.Colorway,
		Category:       string(s.Category),
		ReleaseYear:    s.ReleaseYear,
		RetailPrice:    fixed(s.RetailPrice, 2),
		Currency:       s.Currency,
		SizeSystem:     string(s.SizeSystem),
		AvailableSizes: list(s.AvailableSizes),
		Description:    s.Description,
		Features:       list(s.Features),
		Materials:      s.Materials,
		Weight:         s.Weight,
		HeelHeight:     fixed(s.HeelHeight, 1),
		SKU:            s.SKU,
		StockQuantity:  s.StockQuantity,
		IsActive:       s.IsActive,
		IsLimited:      s.IsLimited,
	}
}

// NewShoeDetail expects Brand, CreatedBy and Images loaded.
func NewShoeDetail(s model.Shoe, l Linker) ShoeDetail {
	d := ShoeDetail{
		ShoeWrite: NewShoeWrite(s),
		BrandInfo: NewBrandOut(s.Brand, l),
		Images:    Images(s.Images, l),
		CreatedBy: s.CreatedByID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.CreatedBy != nil {
		name := s.CreatedBy.Username
		d.CreatedByUsername = &name
	}
	return d
}

// Shoe renders s in the given variant.
func Shoe(v Variant, s model.Shoe, l Linker) interface{} {
	switch v {
	case VariantList:
		return NewShoeListItem(s, l)
	case VariantWrite:
		return NewShoeWrite(s)
	default:
		return NewShoeDetail(s, l)
	}
}

func Shoes(v Variant, shoes []model.Shoe, l Linker) []interface{} {
	out := make([]interface{}, len(shoes))
	for i, s := range shoes {
		out[i] = Shoe(v, s, l)
	}
	return out
}
