package service

import (
	"fmt"
	"log/slog"

	"github.com/dalton-cole/primeta/internal/adapters/sse"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
)

// RepositoryProgressTopic names the SSE topic carrying progress snapshots
// for a repository.
func RepositoryProgressTopic(repositoryID uint) string {
	return fmt.Sprintf("repository:%d:progress", repositoryID)
}

// UserProgressTopic names the SSE topic carrying a single user's progress
// updates.
func UserProgressTopic(userID uint) string {
	return fmt.Sprintf("user:%d:progress", userID)
}

// RepositoryNotificationsTopic names the repository's transient
// notification feed.
func RepositoryNotificationsTopic(repositoryID uint) string {
	return fmt.Sprintf("repository:%d:notifications", repositoryID)
}

// Broadcaster pushes recomputed progress snapshots to live subscribers.
// Every push carries the full current snapshot, so delivery is idempotent
// and last-write-wins; failures are logged and never propagate.
type Broadcaster struct {
	hub    *sse.Hub
	logger *slog.Logger
}

// NewBroadcaster initializes a new Broadcaster over the hub.
func NewBroadcaster(hub *sse.Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, logger: logger}
}

// BroadcastProgress publishes the snapshot to the repository channel, the
// user channel, and appends a transient notification to the repository
// feed.
func (b *Broadcaster) BroadcastProgress(repositoryID, userID uint, snap *entities.ProgressSnapshot) {
	if snap == nil {
		return
	}

	b.hub.Publish(sse.Event{
		Topic: RepositoryProgressTopic(repositoryID),
		Type:  "progress",
		Data:  snap,
	})
	b.hub.Publish(sse.Event{
		Topic: UserProgressTopic(userID),
		Type:  "progress",
		Data:  snap,
	})
	b.hub.Publish(sse.Event{
		Topic:   RepositoryNotificationsTopic(repositoryID),
		Type:    "notification",
		Message: fmt.Sprintf("Progress updated: %.1f%% complete", snap.FilesPercent),
	})
}

// BroadcastSyncStatus announces a repository sync state change on the
// notification feed.
func (b *Broadcaster) BroadcastSyncStatus(repositoryID uint, status string) {
	b.hub.Publish(sse.Event{
		Topic:   RepositoryNotificationsTopic(repositoryID),
		Type:    "sync_status",
		Message: fmt.Sprintf("Repository sync %s", status),
		Data:    map[string]string{"status": status},
	})
}
