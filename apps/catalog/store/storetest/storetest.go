// Package storetest opens migrated in-memory databases for tests.
package storetest

import (
	"testing"

	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/pkg/config"
	"sneaker-catalog/pkg/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Open returns a fresh sqlite database. A single pooled connection keeps
// the in-memory database alive for the whole test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		DbName:       ":memory:",
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		LogLevel:     "silent",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Brand{}, &model.Shoe{}, &model.ShoeImage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Brand inserts a brand with the given name.
func Brand(t testing.TB, db *gorm.DB, name string) *model.Brand {
	t.Helper()
	b := &model.Brand{Name: name, NameEn: name}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("create brand: %v", err)
	}
	return b
}

// Shoe inserts a shoe of brand with defaults applied and, if set, mutate run first.
func Shoe(t testing.TB, db *gorm.DB, brand *model.Brand, modelName, colorway string, mutate ...func(*model.Shoe)) *model.Shoe {
	t.Helper()
	s := model.NewShoe()
	s.BrandID = brand.ID
	s.Model = modelName
	s.Colorway = colorway
	s.SKU = model.NewSKU(brand.Name, modelName)
	for _, m := range mutate {
		m(s)
	}
	if err := db.Omit("Brand", "CreatedBy", "Images").Create(s).Error; err != nil {
		t.Fatalf("create shoe: %v", err)
	}
	s.Brand = *brand
	return s
}
