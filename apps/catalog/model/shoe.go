package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Category string

const (
	CategoryBasketball Category = "basketball"
	CategoryRunning    Category = "running"
	CategoryLifestyle  Category = "lifestyle"
	CategoryFootball   Category = "football"
	CategorySkateboard Category = "skateboard"
	CategoryOther      Category = "other"
)

var Categories = []Category{
	CategoryBasketball, CategoryRunning, CategoryLifestyle,
	CategoryFootball, CategorySkateboard, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type SizeSystem string

const (
	SizeUS SizeSystem = "US"
	SizeUK SizeSystem = "UK"
	SizeEU SizeSystem = "EU"
	SizeCN SizeSystem = "CN"
	SizeJP SizeSystem = "JP"
)

var SizeSystems = []SizeSystem{SizeUS, SizeUK, SizeEU, SizeCN, SizeJP}

func (s SizeSystem) Valid() bool {
	for _, v := range SizeSystems {
		if s == v {
			return true
		}
	}
	return false
}

const (
	DefaultCategory   = CategoryLifestyle
	DefaultCurrency   = "CNY"
	DefaultSizeSystem = SizeUS

	MinReleaseYear = 1950
	MaxReleaseYear = 9999
)

// Shoe 鞋款. (brand, model, colorway) 唯一.
type Shoe struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	BrandID  uint   `gorm:"not null;uniqueIndex:uni_brand_model_colorway,priority:1" json:"brand_id"`
	Brand    Brand  `gorm:"constraint:OnDelete:CASCADE" json:"brand"`
	Model    string `gorm:"type:varchar(100);not null;uniqueIndex:uni_brand_model_colorway,priority:2" json:"model"`
	Version  string `gorm:"type:varchar(50);not null" json:"version"`
	Colorway string `gorm:"type:varchar(100);not null;uniqueIndex:uni_brand_model_colorway,priority:3" json:"colorway"`

	Category    Category            `gorm:"type:varchar(20);not null" json:"category"`
	ReleaseYear *int                `json:"release_year"`
	RetailPrice decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"retail_price"`
	Currency    string              `gorm:"type:varchar(3);not null" json:"currency"`

	// 尺码相关
	SizeSystem     SizeSystem     `gorm:"type:varchar(2);not null" json:"size_system"`
	AvailableSizes datatypes.JSON `json:"available_sizes"`

	// 详细信息
	Description string         `gorm:"type:text" json:"description"`
	Features    datatypes.JSON `json:"features"`
	Materials   string         `gorm:"type:text" json:"materials"`

	// 技术参数
	Weight     *uint               `json:"weight"`
	HeelHeight decimal.NullDecimal `gorm:"type:decimal(4,1)" json:"heel_height"`

	SKU           string `gorm:"column:sku;type:varchar(50);uniqueIndex;not null" json:"sku"`
	StockQuantity uint   `gorm:"not null" json:"stock_quantity"`

	IsActive  bool `gorm:"not null" json:"is_active"`
	IsLimited bool `gorm:"not null" json:"is_limited"`

	CreatedByID *uint     `json:"created_by_id"`
	CreatedBy   *User     `gorm:"constraint:OnDelete:SET NULL" json:"created_by,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Images []ShoeImage `gorm:"constraint:OnDelete:CASCADE" json:"images"`
}

func (Shoe) TableName() string {
	return "shoes"
}

// NewShoe returns a shoe carrying the column defaults.
func NewShoe() *Shoe {
	return &Shoe{
		Category:       DefaultCategory,
		Currency:       DefaultCurrency,
		SizeSystem:     DefaultSizeSystem,
		AvailableSizes: datatypes.JSON("[]"),
		Features:       datatypes.JSON("[]"),
		IsActive:       true,
	}
}

// String 完整名称, 例如 "Nike Air Max 90 - Infrared". Brand 需已加载.
func (s Shoe) String() string {
	return fmt.Sprintf("%s %s - %s", s.Brand.Name, s.Model, s.Colorway)
}

// PrimaryImage returns the loaded image flagged primary, if any.
func (s Shoe) PrimaryImage() *ShoeImage {
	for i := range s.Images {
		if s.Images[i].IsPrimary {
			return &s.Images[i]
		}
	}
	return nil
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// GenerateSKU builds BRAND[:3]-MODEL[:10]-SUFFIX, upper-cased.
func GenerateSKU(brandName, modelName, suffix string) string {
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", prefix(brandName, 3), prefix(modelName, 10), suffix))
}

// NewSKU 自动生成 SKU, 随机后缀取 uuid4 hex 前 8 位
func NewSKU(brandName, modelName string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return GenerateSKU(brandName, modelName, suffix)
}
