package store

import (
	"context"
	"fmt"

	"sneaker-catalog/apps/catalog/model"

	"gorm.io/gorm"
)

type ImageStore struct {
	db *gorm.DB
}

func NewImageStore(db *gorm.DB) *ImageStore {
	return &ImageStore{db: db}
}

func (s *ImageStore) ListByShoe(ctx context.Context, shoeID uint) ([]model.ShoeImage, error) {
	var images []model.ShoeImage
	if err := s.db.WithContext(ctx).Where("shoe_id = ?", shoeID).Order(model.ImageOrder).Find(&images).Error; err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return images, nil
}

// Get 只返回属于该鞋款的图片
func (s *ImageStore) Get(ctx context.Context, shoeID, imageID uint) (*model.ShoeImage, error) {
	var img model.ShoeImage
	if err := s.db.WithContext(ctx).Where("id = ? AND shoe_id = ?", imageID, shoeID).First(&img).Error; err != nil {
		return nil, notFound(err, "image")
	}
	return &img, nil
}

// demoteOthers clears is_primary on every other image of the shoe.
func demoteOthers(tx *gorm.DB, img *model.ShoeImage) error {
	err := tx.Model(&model.ShoeImage{}).
		Where("shoe_id = ? AND is_primary = ? AND id <> ?", img.ShoeID, true, img.ID).
		Update("is_primary", false).Error
	if err != nil {
		return fmt.Errorf("demote primary images: %w", err)
	}
	return nil
}

// Save inserts or updates img. A primary image demotes the shoe's other
// images in the same transaction.
func (s *ImageStore) Save(ctx context.Context, img *model.ShoeImage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockShoe(tx, img.ShoeID); err != nil {
			return err
		}
		if img.IsPrimary {
			if err := demoteOthers(tx, img); err != nil {
				return err
			}
		}
		if err := tx.Save(img).Error; err != nil {
			return fmt.Errorf("save image: %w", err)
		}
		return nil
	})
}

// CreateBatch inserts images of one shoe in order, all or nothing.
func (s *ImageStore) CreateBatch(ctx context.Context, shoeID uint, images []*model.ShoeImage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockShoe(tx, shoeID); err != nil {
			return err
		}
		for _, img := range images {
			img.ShoeID = shoeID
			if img.IsPrimary {
				if err := demoteOthers(tx, img); err != nil {
					return err
				}
			}
			if err := tx.Create(img).Error; err != nil {
				return fmt.Errorf("create image: %w", err)
			}
		}
		return nil
	})
}

// Delete removes the image when it belongs to the shoe and returns the row.
func (s *ImageStore) Delete(ctx context.Context, shoeID, imageID uint) (*model.ShoeImage, error) {
	var img model.ShoeImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND shoe_id = ?", imageID, shoeID).First(&img).Error; err != nil {
			return notFound(err, "image")
		}
		if err := tx.Delete(&img).Error; err != nil {
			return fmt.Errorf("delete image: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &img, nil
}
