package db

import (
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"gorm.io/gorm"
)

// ConceptStore defines database operations on key concepts
type ConceptStore interface {
	ListByRepository(repositoryID uint) ([]entities.KeyConcept, error)
	ReplaceForRepository(repositoryID uint, concepts []entities.KeyConcept) error
}

// GormConceptStore is a GORM-based implementation of ConceptStore
type GormConceptStore struct {
	db *gorm.DB
}

// NewGormConceptStore initializes a new GormConceptStore
func NewGormConceptStore(db *gorm.DB) *GormConceptStore {
	return &GormConceptStore{db: db}
}

func (s *GormConceptStore) ListByRepository(repositoryID uint) ([]entities.KeyConcept, error) {
	var concepts []entities.KeyConcept
	err := s.db.Where("repository_id = ?", repositoryID).
		Order("id").
		Find(&concepts).Error
	return concepts, err
}

// ReplaceForRepository swaps the repository's concept set for a freshly
// extracted one and keeps the denormalized count in step.
func (s *GormConceptStore) ReplaceForRepository(repositoryID uint, concepts []entities.KeyConcept) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("repository_id = ?", repositoryID).
			Delete(&entities.KeyConcept{}).Error; err != nil {
			return err
		}
		for i := range concepts {
			concepts[i].RepositoryID = repositoryID
		}
		if len(concepts) > 0 {
			if err := tx.Create(&concepts).Error; err != nil {
				return err
			}
		}
		return tx.Model(&entities.Repository{}).
			Where("id = ?", repositoryID).
			Update("key_concept_count", len(concepts)).Error
	})
}
