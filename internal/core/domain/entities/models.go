package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Repository sync statuses
const (
	StatusActive  = "active"
	StatusSyncing = "syncing"
	StatusError   = "error"
)

// User roles
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
)

// User represents a reader of repositories
type User struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Email          string     `json:"email" gorm:"uniqueIndex"`
	Role           string     `json:"role" gorm:"default:user"`
	GithubUsername string     `json:"github_username,omitempty"`
	GithubUID      string     `json:"-"`
	FileViews      []FileView `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Repository represents a tracked source-code repository
type Repository struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	Name            string           `json:"name" gorm:"index"`
	GitURL          string           `json:"git_url" gorm:"uniqueIndex"`
	Status          string           `json:"status" gorm:"default:active"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	LastSyncedAt    *time.Time       `json:"last_synced_at,omitempty"`
	CurrentCommit   string           `json:"current_commit,omitempty"`
	FileCount       int              `json:"file_count"`
	KeyConceptCount int              `json:"key_concept_count"`
	TotalSize       int64            `json:"total_size"`
	ExplorerCount   int              `json:"explorer_count"`
	LanguageStats   datatypes.JSON   `json:"language_stats,omitempty"`
	Files           []RepositoryFile `json:"-" gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
	KeyConcepts     []KeyConcept     `json:"-" gorm:"foreignKey:RepositoryID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// RepositoryFile represents a single file within a synced repository
type RepositoryFile struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RepositoryID uint      `json:"repository_id" gorm:"uniqueIndex:idx_repo_files_repo_path"`
	Path         string    `json:"path" gorm:"uniqueIndex:idx_repo_files_repo_path"`
	Content      string    `json:"-"`
	Size         int64     `json:"size"`
	Language     string    `json:"language"`
	LineCount    int       `json:"line_count"`
	IsKeyFile    bool      `json:"is_key_file" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FileView records a single user's reading state for a file. At most one
// row exists per (user, file) pair; repeated views update the counters.
type FileView struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	UserID           uint      `json:"user_id" gorm:"uniqueIndex:idx_file_views_user_file"`
	RepositoryFileID uint      `json:"repository_file_id" gorm:"uniqueIndex:idx_file_views_user_file"`
	RepositoryID     uint      `json:"repository_id" gorm:"index"`
	ViewCount        int       `json:"view_count"`
	LastViewedAt     time.Time `json:"last_viewed_at"`
	TotalTimeSpent   int       `json:"total_time_spent"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// KeyConcept is an AI-derived cluster of related files explaining an
// architectural theme of a repository.
type KeyConcept struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	RepositoryID uint           `json:"repository_id" gorm:"index"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	KeyFiles     datatypes.JSON `json:"key_files"`
	WhyImportant string         `json:"why_important"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// AiResponseCache holds the last generated AI text for a
// (repository, file path, cache type) triple. Files are referenced by
// path string so cached content survives file renames and deletions.
type AiResponseCache struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RepositoryID uint      `json:"repository_id" gorm:"uniqueIndex:idx_ai_cache_triple"`
	FilePath     string    `json:"file_path" gorm:"uniqueIndex:idx_ai_cache_triple"`
	CacheType    string    `json:"cache_type" gorm:"uniqueIndex:idx_ai_cache_triple"`
	Content      string    `json:"content" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AiFeedback records a helpful/not-helpful rating for a piece of AI
// generated content, at most once per user and content triple.
type AiFeedback struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       *uint     `json:"user_id,omitempty" gorm:"uniqueIndex:idx_ai_feedback_user_content"`
	RepositoryID uint      `json:"repository_id" gorm:"uniqueIndex:idx_ai_feedback_user_content"`
	FilePath     string    `json:"file_path" gorm:"uniqueIndex:idx_ai_feedback_user_content"`
	ContentType  string    `json:"content_type" gorm:"uniqueIndex:idx_ai_feedback_user_content"`
	IsHelpful    bool      `json:"is_helpful"`
	FeedbackText string    `json:"feedback_text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
