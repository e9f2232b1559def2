package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
)

// ErrInvalidTimeSpent is returned when a time-tracking call carries a
// non-positive duration. No state is mutated in that case.
var ErrInvalidTimeSpent = errors.New("time_spent must be a positive number of seconds")

// TrackerService records user file views and orchestrates the downstream
// cache invalidation and broadcast explicitly after each successful write.
type TrackerService struct {
	views       db.ViewStore
	files       db.FileStore
	users       db.UserStore
	repos       db.RepositoryStore
	progress    *ProgressService
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// NewTrackerService initializes a new TrackerService.
func NewTrackerService(views db.ViewStore, files db.FileStore, users db.UserStore, repos db.RepositoryStore, progress *ProgressService, broadcaster *Broadcaster, logger *slog.Logger) *TrackerService {
	return &TrackerService{
		views:       views,
		files:       files,
		users:       users,
		repos:       repos,
		progress:    progress,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// RecordView registers a view of the file by the user. The first view for
// the pair creates the row; every call increments the view count, stamps
// last_viewed_at, and adds a positive timeSpent to the running total.
func (s *TrackerService) RecordView(userID, fileID uint, timeSpent int) (*entities.FileView, error) {
	if _, err := s.users.GetUser(userID); err != nil {
		return nil, err
	}
	file, err := s.files.GetFile(fileID)
	if err != nil {
		return nil, err
	}

	view, err := s.views.GetByUserAndFile(userID, fileID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
		view = &entities.FileView{
			UserID:           userID,
			RepositoryFileID: fileID,
			RepositoryID:     file.RepositoryID,
		}
	}

	view.ViewCount++
	view.LastViewedAt = time.Now()
	if timeSpent > 0 {
		view.TotalTimeSpent += timeSpent
	}

	firstView := view.ID == 0
	if firstView {
		err = s.views.Create(view)
	} else {
		err = s.views.Save(view)
	}
	if err != nil {
		return nil, err
	}

	if firstView {
		s.refreshExplorerCount(file.RepositoryID)
	}
	s.afterViewWrite(file.RepositoryID, userID)
	return view, nil
}

// TrackTime adds a reading-time contribution to the user's view of the
// file. A non-positive duration is rejected without mutating state.
func (s *TrackerService) TrackTime(userID, fileID uint, timeSpent int) (*entities.FileView, error) {
	if timeSpent <= 0 {
		return nil, ErrInvalidTimeSpent
	}
	return s.RecordView(userID, fileID, timeSpent)
}

// afterViewWrite invalidates the cached snapshot, recomputes it, and
// broadcasts the result. Failures here are logged and swallowed; they
// never roll back the recorded view.
func (s *TrackerService) afterViewWrite(repositoryID, userID uint) {
	s.progress.Invalidate(repositoryID, userID)

	snap, err := s.progress.Calculate(repositoryID, userID)
	if err != nil {
		s.logger.Error("failed to recompute progress after view", "repository_id", repositoryID, "user_id", userID, "error", err)
		return
	}

	s.broadcaster.BroadcastProgress(repositoryID, userID, snap)
}

// refreshExplorerCount keeps the repository's cached distinct-viewer
// count in step when a user views the repository for the first time.
func (s *TrackerService) refreshExplorerCount(repositoryID uint) {
	count, err := s.views.DistinctViewerCount(repositoryID)
	if err != nil {
		s.logger.Warn("failed to count explorers", "repository_id", repositoryID, "error", err)
		return
	}
	if err := s.repos.SetExplorerCount(repositoryID, int(count)); err != nil {
		s.logger.Warn("failed to update explorer count", "repository_id", repositoryID, "error", err)
	}
}
