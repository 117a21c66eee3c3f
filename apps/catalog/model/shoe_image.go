package model

import (
	"fmt"
	"time"
)

// ShoeImage 鞋子图片. 同一鞋款最多一张主图.
type ShoeImage struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	ShoeID uint `gorm:"not null;index" json:"shoe_id"`
	// Image is the storage path, shoes/<shoe id>/<random name>.
	Image      string    `gorm:"type:varchar(255);not null" json:"image"`
	AltText    string    `gorm:"type:varchar(200);not null" json:"alt_text"`
	IsPrimary  bool      `gorm:"not null" json:"is_primary"`
	Order      uint      `gorm:"column:sort_order;not null" json:"order"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (ShoeImage) TableName() string {
	return "shoe_images"
}

// ImageOrder is the listing order of a shoe's images.
const ImageOrder = "sort_order ASC, uploaded_at DESC, id DESC"

// DefaultAltText 批量上传时的默认图片描述, n 从 1 开始
func DefaultAltText(shoe Shoe, n int) string {
	return fmt.Sprintf("%s 图片 %d", shoe.String(), n)
}
