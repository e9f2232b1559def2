package db

import (
	"errors"

	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileStore defines database operations on repository files
type FileStore interface {
	UpsertFile(file *entities.RepositoryFile) error
	DeleteFilesNotIn(repositoryID uint, paths []string) (int64, error)
	GetFile(id uint) (*entities.RepositoryFile, error)
	GetFileByPath(repositoryID uint, path string) (*entities.RepositoryFile, error)
	ListFiles(repositoryID uint) ([]entities.RepositoryFile, error)
	ListPaths(repositoryID uint) ([]string, error)
	CountFiles(repositoryID uint) (int64, error)
	KeyFileIDs(repositoryID uint) ([]uint, error)
	SetKeyFiles(repositoryID uint, paths []string) error
}

// GormFileStore is a GORM-based implementation of FileStore
type GormFileStore struct {
	db *gorm.DB
}

// NewGormFileStore initializes a new GormFileStore
func NewGormFileStore(db *gorm.DB) *GormFileStore {
	return &GormFileStore{db: db}
}

// UpsertFile creates the file row or, when the (repository, path) pair
// already exists, refreshes its derived columns.
func (s *GormFileStore) UpsertFile(file *entities.RepositoryFile) error {
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "repository_id"}, {Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "size", "language", "line_count", "updated_at",
		}),
	}).Create(file).Error
}

// DeleteFilesNotIn removes persisted files whose paths are no longer
// present on disk. An empty path list clears the repository entirely.
func (s *GormFileStore) DeleteFilesNotIn(repositoryID uint, paths []string) (int64, error) {
	q := s.db.Where("repository_id = ?", repositoryID)
	if len(paths) > 0 {
		q = q.Where("path NOT IN ?", paths)
	}
	res := q.Delete(&entities.RepositoryFile{})
	return res.RowsAffected, res.Error
}

func (s *GormFileStore) GetFile(id uint) (*entities.RepositoryFile, error) {
	var file entities.RepositoryFile
	if err := s.db.First(&file, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

func (s *GormFileStore) GetFileByPath(repositoryID uint, path string) (*entities.RepositoryFile, error) {
	var file entities.RepositoryFile
	err := s.db.Where("repository_id = ? AND path = ?", repositoryID, path).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// ListFiles returns the repository's files without their contents.
func (s *GormFileStore) ListFiles(repositoryID uint) ([]entities.RepositoryFile, error) {
	var files []entities.RepositoryFile
	err := s.db.Select("id", "repository_id", "path", "size", "language", "line_count", "is_key_file").
		Where("repository_id = ?", repositoryID).
		Order("path").
		Find(&files).Error
	return files, err
}

func (s *GormFileStore) ListPaths(repositoryID uint) ([]string, error) {
	var paths []string
	err := s.db.Model(&entities.RepositoryFile{}).
		Where("repository_id = ?", repositoryID).
		Pluck("path", &paths).Error
	return paths, err
}

func (s *GormFileStore) CountFiles(repositoryID uint) (int64, error) {
	var count int64
	err := s.db.Model(&entities.RepositoryFile{}).
		Where("repository_id = ?", repositoryID).
		Count(&count).Error
	return count, err
}

func (s *GormFileStore) KeyFileIDs(repositoryID uint) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&entities.RepositoryFile{}).
		Where("repository_id = ? AND is_key_file = ?", repositoryID, true).
		Pluck("id", &ids).Error
	return ids, err
}

// SetKeyFiles replaces the key-file flags for a repository with the given
// path set.
func (s *GormFileStore) SetKeyFiles(repositoryID uint, paths []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.RepositoryFile{}).
			Where("repository_id = ?", repositoryID).
			Update("is_key_file", false).Error; err != nil {
			return err
		}
		if len(paths) == 0 {
			return nil
		}
		return tx.Model(&entities.RepositoryFile{}).
			Where("repository_id = ? AND path IN ?", repositoryID, paths).
			Update("is_key_file", true).Error
	})
}
