package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"gorm.io/gorm"
)

// RepositoryStore defines database operations on repositories
type RepositoryStore interface {
	CreateRepository(repo *entities.Repository) error
	GetRepository(id uint) (*entities.Repository, error)
	GetRepositoryByGitURL(gitURL string) (*entities.Repository, error)
	GetAllRepositories() ([]entities.Repository, error)
	MarkSyncing(id uint) error
	MarkActive(id uint, commit string, syncedAt time.Time) error
	MarkError(id uint, message string) error
	UpdateCounters(id uint, fileCount int, totalSize int64, languageStats map[string]int) error
	SetKeyConceptCount(id uint, count int) error
	SetExplorerCount(id uint, count int) error
}

// GormRepositoryStore is a GORM-based implementation of RepositoryStore
type GormRepositoryStore struct {
	db *gorm.DB
}

// NewGormRepositoryStore initializes a new GormRepositoryStore
func NewGormRepositoryStore(db *gorm.DB) *GormRepositoryStore {
	return &GormRepositoryStore{db: db}
}

func (s *GormRepositoryStore) CreateRepository(repo *entities.Repository) error {
	return s.db.Create(repo).Error
}

func (s *GormRepositoryStore) GetRepository(id uint) (*entities.Repository, error) {
	var repo entities.Repository
	if err := s.db.First(&repo, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &repo, nil
}

func (s *GormRepositoryStore) GetRepositoryByGitURL(gitURL string) (*entities.Repository, error) {
	var repo entities.Repository
	if err := s.db.Where("git_url = ?", gitURL).First(&repo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &repo, nil
}

// GetAllRepositories retrieves all repositories from the database
func (s *GormRepositoryStore) GetAllRepositories() ([]entities.Repository, error) {
	var repositories []entities.Repository
	if err := s.db.Order("name").Find(&repositories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve repositories: %w", err)
	}
	return repositories, nil
}

func (s *GormRepositoryStore) MarkSyncing(id uint) error {
	return s.db.Model(&entities.Repository{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        entities.StatusSyncing,
			"error_message": "",
		}).Error
}

func (s *GormRepositoryStore) MarkActive(id uint, commit string, syncedAt time.Time) error {
	return s.db.Model(&entities.Repository{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         entities.StatusActive,
			"error_message":  "",
			"current_commit": commit,
			"last_synced_at": syncedAt,
		}).Error
}

func (s *GormRepositoryStore) MarkError(id uint, message string) error {
	return s.db.Model(&entities.Repository{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        entities.StatusError,
			"error_message": message,
		}).Error
}

// UpdateCounters refreshes the denormalized aggregate counters kept on the
// repository row after a sync pass.
func (s *GormRepositoryStore) UpdateCounters(id uint, fileCount int, totalSize int64, languageStats map[string]int) error {
	stats, err := json.Marshal(languageStats)
	if err != nil {
		return err
	}
	return s.db.Model(&entities.Repository{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"file_count":     fileCount,
			"total_size":     totalSize,
			"language_stats": stats,
		}).Error
}

func (s *GormRepositoryStore) SetKeyConceptCount(id uint, count int) error {
	return s.db.Model(&entities.Repository{}).Where("id = ?", id).
		Update("key_concept_count", count).Error
}

func (s *GormRepositoryStore) SetExplorerCount(id uint, count int) error {
	return s.db.Model(&entities.Repository{}).Where("id = ?", id).
		Update("explorer_count", count).Error
}
