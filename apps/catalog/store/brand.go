package store

import (
	"context"
	"fmt"

	"sneaker-catalog/apps/catalog/errs"
	"sneaker-catalog/apps/catalog/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const msgBrandNameTaken = "brand with this name already exists."

var brandOrdering = map[string]string{
	"name":       "brands.name",
	"created_at": "brands.created_at",
}

// BrandFilter 品牌列表查询条件
type BrandFilter struct {
	Search   string
	Ordering string
}

type BrandStore struct {
	db *gorm.DB
}

func NewBrandStore(db *gorm.DB) *BrandStore {
	return &BrandStore{db: db}
}

func (s *BrandStore) List(ctx context.Context, f BrandFilter, page Page) ([]model.Brand, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Brand{})
	if f.Search != "" {
		cond, args := icontains(f.Search, "brands.name", "brands.name_en")
		q = q.Where(cond, args...)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count brands: %w", err)
	}
	var brands []model.Brand
	order := orderBy(f.Ordering, brandOrdering, "brands.name ASC") + ", brands.id ASC"
	if err := page.apply(q.Order(order)).Find(&brands).Error; err != nil {
		return nil, 0, fmt.Errorf("list brands: %w", err)
	}
	return brands, total, nil
}

func (s *BrandStore) Get(ctx context.Context, id uint) (*model.Brand, error) {
	var brand model.Brand
	if err := s.db.WithContext(ctx).First(&brand, id).Error; err != nil {
		return nil, notFound(err, "brand")
	}
	return &brand, nil
}

func (s *BrandStore) checkName(tx *gorm.DB, b *model.Brand) error {
	var n int64
	if err := tx.Model(&model.Brand{}).Where("name = ? AND id <> ?", b.Name, b.ID).Count(&n).Error; err != nil {
		return fmt.Errorf("check brand name: %w", err)
	}
	if n > 0 {
		return errs.Field("name", msgBrandNameTaken)
	}
	return nil
}

func (s *BrandStore) Create(ctx context.Context, b *model.Brand) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkName(tx, b); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(b).Error; err != nil {
			return duplicate(err, "name", msgBrandNameTaken)
		}
		return nil
	})
}

// Update saves every column of b. b must come from Get.
func (s *BrandStore) Update(ctx context.Context, b *model.Brand) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkName(tx, b); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(b).Error; err != nil {
			return duplicate(err, "name", msgBrandNameTaken)
		}
		return nil
	})
}

// Removed lists what a cascading delete took with it.
type Removed struct {
	ShoeIDs []uint
	// Files are storage paths that no row references anymore.
	Files []string
}

// Delete removes the brand, its shoes and their images.
func (s *BrandStore) Delete(ctx context.Context, id uint) (*Removed, error) {
	removed := &Removed{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var brand model.Brand
		if err := tx.First(&brand, id).Error; err != nil {
			return notFound(err, "brand")
		}
		if err := tx.Model(&model.Shoe{}).Where("brand_id = ?", id).Pluck("id", &removed.ShoeIDs).Error; err != nil {
			return fmt.Errorf("collect shoes: %w", err)
		}
		if len(removed.ShoeIDs) > 0 {
			files, err := deleteShoes(tx, removed.ShoeIDs)
			if err != nil {
				return err
			}
			removed.Files = append(removed.Files, files...)
		}
		if err := tx.Delete(&model.Brand{}, id).Error; err != nil {
			return fmt.Errorf("delete brand: %w", err)
		}
		if brand.Logo != "" {
			removed.Files = append(removed.Files, brand.Logo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// deleteShoes removes the shoes and their images, returning image paths.
func deleteShoes(tx *gorm.DB, ids []uint) ([]string, error) {
	var files []string
	if err := tx.Model(&model.ShoeImage{}).Where("shoe_id IN ?", ids).Pluck("image", &files).Error; err != nil {
		return nil, fmt.Errorf("collect images: %w", err)
	}
	if err := tx.Where("shoe_id IN ?", ids).Delete(&model.ShoeImage{}).Error; err != nil {
		return nil, fmt.Errorf("delete images: %w", err)
	}
	if err := tx.Where("id IN ?", ids).Delete(&model.Shoe{}).Error; err != nil {
		return nil, fmt.Errorf("delete shoes: %w", err)
	}
	return files, nil
}
