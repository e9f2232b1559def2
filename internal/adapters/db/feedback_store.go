package db

import (
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedbackStats summarizes ratings for one piece of AI content.
type FeedbackStats struct {
	Helpful    int64 `json:"helpful"`
	NotHelpful int64 `json:"not_helpful"`
}

// FeedbackStore defines database operations on AI content feedback
type FeedbackStore interface {
	Upsert(feedback *entities.AiFeedback) error
	Stats(repositoryID uint, filePath, contentType string) (*FeedbackStats, error)
}

// GormFeedbackStore is a GORM-based implementation of FeedbackStore
type GormFeedbackStore struct {
	db *gorm.DB
}

// NewGormFeedbackStore initializes a new GormFeedbackStore
func NewGormFeedbackStore(db *gorm.DB) *GormFeedbackStore {
	return &GormFeedbackStore{db: db}
}

// Upsert stores the rating, replacing the user's previous rating of the
// same content if one exists.
func (s *GormFeedbackStore) Upsert(feedback *entities.AiFeedback) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"}, {Name: "repository_id"},
			{Name: "file_path"}, {Name: "content_type"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"is_helpful", "feedback_text", "updated_at"}),
	}).Create(feedback).Error
}

func (s *GormFeedbackStore) Stats(repositoryID uint, filePath, contentType string) (*FeedbackStats, error) {
	var stats FeedbackStats
	base := s.db.Model(&entities.AiFeedback{}).
		Where("repository_id = ? AND file_path = ? AND content_type = ?",
			repositoryID, filePath, contentType)
	if err := base.Session(&gorm.Session{}).Where("is_helpful = ?", true).Count(&stats.Helpful).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("is_helpful = ?", false).Count(&stats.NotHelpful).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
