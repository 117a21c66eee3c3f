package store

import (
	"context"
	"errors"
	"fmt"

	"sneaker-catalog/apps/catalog/errs"
	"sneaker-catalog/apps/catalog/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgUniqueTriple = "The fields brand, model, colorway must make a unique set."
	msgSKUTaken     = "shoe with this sku already exists."

	// maxSKUAttempts bounds regeneration when a random suffix collides.
	maxSKUAttempts = 5
)

var shoeOrdering = map[string]string{
	"created_at":   "shoes.created_at",
	"updated_at":   "shoes.updated_at",
	"retail_price": "shoes.retail_price",
	"release_year": "shoes.release_year",
}

var shoeSearchColumns = []string{"shoes.model", "shoes.colorway", "brands.name", "shoes.description"}

// ShoeFilter 鞋款查询条件, 全部可选, AND 组合
type ShoeFilter struct {
	BrandID     *uint
	Category    string
	ReleaseYear *int
	IsActive    *bool
	IsLimited   *bool
	// Search is the list endpoint's search term.
	Search string

	// advanced search
	Keyword   string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	StartYear *int
	EndYear   *int

	Ordering string
}

type ShoeStore struct {
	db     *gorm.DB
	newSKU func(brandName, modelName string) string
}

func NewShoeStore(db *gorm.DB) *ShoeStore {
	return &ShoeStore{db: db, newSKU: model.NewSKU}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order(model.ImageOrder)
}

func (s *ShoeStore) filtered(ctx context.Context, f ShoeFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Shoe{}).
		Joins("JOIN brands ON brands.id = shoes.brand_id")
	if f.BrandID != nil {
		q = q.Where("shoes.brand_id = ?", *f.BrandID)
	}
	if f.Category != "" {
		q = q.Where("shoes.category = ?", f.Category)
	}
	if f.ReleaseYear != nil {
		q = q.Where("shoes.release_year = ?", *f.ReleaseYear)
	}
	if f.IsActive != nil {
		q = q.Where("shoes.is_active = ?", *f.IsActive)
	}
	if f.IsLimited != nil {
		q = q.Where("shoes.is_limited = ?", *f.IsLimited)
	}
	for _, term := range []string{f.Search, f.Keyword} {
		if term != "" {
			cond, args := icontains(term, shoeSearchColumns...)
			q = q.Where(cond, args...)
		}
	}
	// NULL prices never satisfy a comparison
	if f.MinPrice != nil {
		q = q.Where("shoes.retail_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("shoes.retail_price <= ?", *f.MaxPrice)
	}
	if f.StartYear != nil {
		q = q.Where("shoes.release_year >= ?", *f.StartYear)
	}
	if f.EndYear != nil {
		q = q.Where("shoes.release_year <= ?", *f.EndYear)
	}
	return q.Session(&gorm.Session{})
}

// List returns one page of matching shoes with brand and images loaded.
func (s *ShoeStore) List(ctx context.Context, f ShoeFilter, page Page) ([]model.Shoe, int64, error) {
	q := s.filtered(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count shoes: %w", err)
	}
	var shoes []model.Shoe
	order := orderBy(f.Ordering, shoeOrdering, "shoes.created_at DESC") + ", shoes.id DESC"
	err := page.apply(q.Order(order)).
		Preload("Brand").
		Preload("CreatedBy").
		Preload("Images", orderedImages).
		Find(&shoes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list shoes: %w", err)
	}
	return shoes, total, nil
}

// GetByIDs loads shoes keeping the order of ids; missing ids are skipped.
func (s *ShoeStore) GetByIDs(ctx context.Context, ids []uint) ([]model.Shoe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []model.Shoe
	err := s.db.WithContext(ctx).
		Preload("Brand").
		Preload("CreatedBy").
		Preload("Images", orderedImages).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load shoes: %w", err)
	}
	byID := make(map[uint]model.Shoe, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	shoes := make([]model.Shoe, 0, len(rows))
	for _, id := range ids {
		if shoe, ok := byID[id]; ok {
			shoes = append(shoes, shoe)
		}
	}
	return shoes, nil
}

func (s *ShoeStore) Get(ctx context.Context, id uint) (*model.Shoe, error) {
	var shoe model.Shoe
	err := s.db.WithContext(ctx).
		Preload("Brand").
		Preload("CreatedBy").
		Preload("Images", orderedImages).
		First(&shoe, id).Error
	if err != nil {
		return nil, notFound(err, "shoe")
	}
	return &shoe, nil
}

func (s *ShoeStore) Create(ctx context.Context, shoe *model.Shoe) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.prepare(tx, shoe); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(shoe).Error; err != nil {
			return duplicate(err, errs.NonFieldErrors, msgUniqueTriple)
		}
		return nil
	})
}

// Update saves every column of shoe. shoe must come from Get.
func (s *ShoeStore) Update(ctx context.Context, shoe *model.Shoe) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.prepare(tx, shoe); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(shoe).Error; err != nil {
			return duplicate(err, errs.NonFieldErrors, msgUniqueTriple)
		}
		return nil
	})
}

// prepare checks the relations and unique constraints and fills a blank SKU.
func (s *ShoeStore) prepare(tx *gorm.DB, shoe *model.Shoe) error {
	var brand model.Brand
	if err := tx.First(&brand, shoe.BrandID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Field("brand", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", shoe.BrandID))
		}
		return fmt.Errorf("load brand: %w", err)
	}
	shoe.Brand = brand

	verr := errs.NewValidation()
	if shoe.SKU != "" {
		taken, err := s.skuTaken(tx, shoe.SKU, shoe.ID)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("sku", msgSKUTaken)
		}
	}
	var n int64
	err := tx.Model(&model.Shoe{}).
		Where("brand_id = ? AND model = ? AND colorway = ? AND id <> ?", shoe.BrandID, shoe.Model, shoe.Colorway, shoe.ID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check shoe uniqueness: %w", err)
	}
	if n > 0 {
		verr.Add(errs.NonFieldErrors, msgUniqueTriple)
	}
	if !verr.Empty() {
		return verr
	}

	if shoe.SKU == "" {
		return s.assignSKU(tx, shoe)
	}
	return nil
}

func (s *ShoeStore) skuTaken(tx *gorm.DB, sku string, selfID uint) (bool, error) {
	var n int64
	if err := tx.Model(&model.Shoe{}).Where("sku = ? AND id <> ?", sku, selfID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check sku: %w", err)
	}
	return n > 0, nil
}

// assignSKU 自动生成 SKU, 冲突时重试
func (s *ShoeStore) assignSKU(tx *gorm.DB, shoe *model.Shoe) error {
	for i := 0; i < maxSKUAttempts; i++ {
		sku := s.newSKU(shoe.Brand.Name, shoe.Model)
		taken, err := s.skuTaken(tx, sku, shoe.ID)
		if err != nil {
			return err
		}
		if !taken {
			shoe.SKU = sku
			return nil
		}
	}
	return fmt.Errorf("generate sku: %d attempts collided", maxSKUAttempts)
}

// Delete removes the shoe and its images, returning the image paths.
func (s *ShoeStore) Delete(ctx context.Context, id uint) ([]string, error) {
	var files []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&model.Shoe{}, id).Error; err != nil {
			return notFound(err, "shoe")
		}
		var err error
		files, err = deleteShoes(tx, []uint{id})
		return err
	})
	return files, err
}
