package db

import (
	"errors"

	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"gorm.io/gorm"
)

// ViewStore defines database operations on file views
type ViewStore interface {
	GetByUserAndFile(userID, fileID uint) (*entities.FileView, error)
	Create(view *entities.FileView) error
	Save(view *entities.FileView) error
	ViewedFileIDs(userID, repositoryID uint) ([]uint, error)
	DistinctViewerCount(repositoryID uint) (int64, error)
}

// GormViewStore is a GORM-based implementation of ViewStore
type GormViewStore struct {
	db *gorm.DB
}

// NewGormViewStore initializes a new GormViewStore
func NewGormViewStore(db *gorm.DB) *GormViewStore {
	return &GormViewStore{db: db}
}

func (s *GormViewStore) GetByUserAndFile(userID, fileID uint) (*entities.FileView, error) {
	var view entities.FileView
	err := s.db.Where("user_id = ? AND repository_file_id = ?", userID, fileID).
		First(&view).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &view, nil
}

func (s *GormViewStore) Create(view *entities.FileView) error {
	return s.db.Create(view).Error
}

func (s *GormViewStore) Save(view *entities.FileView) error {
	return s.db.Save(view).Error
}

// ViewedFileIDs returns the ids of the repository's files the user has
// viewed at least once.
func (s *GormViewStore) ViewedFileIDs(userID, repositoryID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&entities.FileView{}).
		Where("user_id = ? AND repository_id = ?", userID, repositoryID).
		Pluck("repository_file_id", &ids).Error
	return ids, err
}

// DistinctViewerCount counts the users who have viewed at least one file
// of the repository.
func (s *GormViewStore) DistinctViewerCount(repositoryID uint) (int64, error) {
	var count int64
	err := s.db.Model(&entities.FileView{}).
		Where("repository_id = ?", repositoryID).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
