package service

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
)

// Version tag baked into cache keys so the key space can be rotated when
// the snapshot shape changes.
const progressCacheVersion = "v2"

type cachedSnapshot struct {
	snapshot  entities.ProgressSnapshot
	expiresAt time.Time
}

// ProgressService computes per-user, per-repository completion
// percentages. Snapshots are cached for a fixed TTL; any file view write
// must invalidate the affected entry, the TTL is only a safety net.
type ProgressService struct {
	repos  db.RepositoryStore
	files  db.FileStore
	views  db.ViewStore
	ttl    time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]cachedSnapshot
}

// NewProgressService initializes a new ProgressService.
func NewProgressService(repos db.RepositoryStore, files db.FileStore, views db.ViewStore, ttl time.Duration, logger *slog.Logger) *ProgressService {
	return &ProgressService{
		repos:  repos,
		files:  files,
		views:  views,
		ttl:    ttl,
		logger: logger,
		cache:  make(map[string]cachedSnapshot),
	}
}

// Calculate returns the progress snapshot for the (user, repository)
// pair. A missing repository or user yields a zeroed snapshot rather
// than an error.
func (s *ProgressService) Calculate(repositoryID, userID uint) (*entities.ProgressSnapshot, error) {
	if repositoryID == 0 || userID == 0 {
		return &entities.ProgressSnapshot{}, nil
	}

	key := cacheKey(repositoryID, userID)
	s.mu.Lock()
	if entry, ok := s.cache[key]; ok && time.Now().Before(entry.expiresAt) {
		snap := entry.snapshot
		s.mu.Unlock()
		return &snap, nil
	}
	s.mu.Unlock()

	snap, err := s.compute(repositoryID, userID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = cachedSnapshot{snapshot: *snap, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return snap, nil
}

// Invalidate drops the cached snapshot for the pair. Called on every
// file-view write before recomputation.
func (s *ProgressService) Invalidate(repositoryID, userID uint) {
	s.mu.Lock()
	delete(s.cache, cacheKey(repositoryID, userID))
	s.mu.Unlock()
}

func (s *ProgressService) compute(repositoryID, userID uint) (*entities.ProgressSnapshot, error) {
	if _, err := s.repos.GetRepository(repositoryID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return &entities.ProgressSnapshot{}, nil
		}
		return nil, err
	}

	total, err := s.files.CountFiles(repositoryID)
	if err != nil {
		return nil, err
	}

	viewedIDs, err := s.views.ViewedFileIDs(userID, repositoryID)
	if err != nil {
		return nil, err
	}

	keyIDs, err := s.files.KeyFileIDs(repositoryID)
	if err != nil {
		return nil, err
	}

	viewed := make(map[uint]bool, len(viewedIDs))
	for _, id := range viewedIDs {
		viewed[id] = true
	}

	viewedKey := 0
	for _, id := range keyIDs {
		if viewed[id] {
			viewedKey++
		}
	}

	snap := &entities.ProgressSnapshot{
		TotalFiles:      int(total),
		ViewedFiles:     len(viewedIDs),
		FilesPercent:    percent(len(viewedIDs), int(total)),
		TotalKeyFiles:   len(keyIDs),
		ViewedKeyFiles:  viewedKey,
		KeyFilesPercent: percent(viewedKey, len(keyIDs)),
	}
	return snap, nil
}

// percent rounds to one decimal place and guards the empty denominator.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}

func cacheKey(repositoryID, userID uint) string {
	return fmt.Sprintf("progress:%s:%d:%d", progressCacheVersion, userID, repositoryID)
}
