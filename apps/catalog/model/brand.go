package model

import "time"

// Brand 品牌
type Brand struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	// NameEn 英文名称
	NameEn string `gorm:"type:varchar(50);not null" json:"name_en"`
	// Logo is the storage path of the logo, empty when there is none.
	Logo        string    `gorm:"type:varchar(255);not null" json:"logo"`
	Description string    `gorm:"type:text" json:"description"`
	Website     string    `gorm:"type:varchar(200);not null" json:"website"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Shoes []Shoe `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Brand) TableName() string {
	return "brands"
}

func (b Brand) String() string {
	return b.Name
}
