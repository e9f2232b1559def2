package db

import (
	"errors"

	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AiCacheStore defines database operations on cached AI responses
type AiCacheStore interface {
	Get(repositoryID uint, filePath, cacheType string) (*entities.AiResponseCache, error)
	Put(repositoryID uint, filePath, cacheType, content string) error
}

// GormAiCacheStore is a GORM-based implementation of AiCacheStore
type GormAiCacheStore struct {
	db *gorm.DB
}

// NewGormAiCacheStore initializes a new GormAiCacheStore
func NewGormAiCacheStore(db *gorm.DB) *GormAiCacheStore {
	return &GormAiCacheStore{db: db}
}

func (s *GormAiCacheStore) Get(repositoryID uint, filePath, cacheType string) (*entities.AiResponseCache, error) {
	var cached entities.AiResponseCache
	err := s.db.Where("repository_id = ? AND file_path = ? AND cache_type = ?",
		repositoryID, filePath, cacheType).
		First(&cached).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cached, nil
}

// Put upserts the cached content for the (repository, path, type) triple.
func (s *GormAiCacheStore) Put(repositoryID uint, filePath, cacheType, content string) error {
	entry := entities.AiResponseCache{
		RepositoryID: repositoryID,
		FilePath:     filePath,
		CacheType:    cacheType,
		Content:      content,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "repository_id"}, {Name: "file_path"}, {Name: "cache_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
	}).Create(&entry).Error
}
