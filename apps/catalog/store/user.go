package store

import (
	"context"
	"errors"
	"fmt"

	"sneaker-catalog/apps/catalog/errs"
	"sneaker-catalog/apps/catalog/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("no active account found with the given credentials")

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create 注册用户, 密码 bcrypt 加密存储
func (s *UserStore) Create(ctx context.Context, username, password string, staff bool) (*model.User, error) {
	if username == "" || password == "" {
		return nil, errs.BadRequest("username and password are required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Username: username,
		Password: string(hashed),
		IsActive: true,
		IsStaff:  staff,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if n > 0 {
			return errs.Field("username", "A user with that username already exists.")
		}
		if err := tx.Create(u).Error; err != nil {
			return duplicate(err, "username", "A user with that username already exists.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate 密码比对 (数据库里的 Hash vs 输入的明文)
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

func (s *UserStore) Get(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// Delete removes the user; shoes they created keep existing without a creator.
func (s *UserStore) Delete(ctx context.Context, username string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Where("username = ?", username).First(&u).Error; err != nil {
			return notFound(err, "user")
		}
		if err := tx.Model(&model.Shoe{}).Where("created_by_id = ?", u.ID).Update("created_by_id", nil).Error; err != nil {
			return fmt.Errorf("clear shoe creator: %w", err)
		}
		if err := tx.Delete(&u).Error; err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}
