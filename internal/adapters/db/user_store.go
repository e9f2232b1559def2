package db

import (
	"errors"

	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"gorm.io/gorm"
)

// UserStore defines database operations on users
type UserStore interface {
	GetUser(id uint) (*entities.User, error)
	CreateUser(user *entities.User) error
}

// GormUserStore is a GORM-based implementation of UserStore
type GormUserStore struct {
	db *gorm.DB
}

// NewGormUserStore initializes a new GormUserStore
func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) GetUser(id uint) (*entities.User, error) {
	var user entities.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) CreateUser(user *entities.User) error {
	return s.db.Create(user).Error
}
