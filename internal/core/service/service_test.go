package service

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/adapters/sse"
	"github.com/dalton-cole/primeta/internal/adapters/storage"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
)

// testEnv bundles the sqlite-backed stores used by the service tests.
type testEnv struct {
	gorm     *gorm.DB
	repos    *db.GormRepositoryStore
	files    *db.GormFileStore
	views    *db.GormViewStore
	users    *db.GormUserStore
	concepts *db.GormConceptStore
	cache    *db.GormAiCacheStore
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(gdb))

	return &testEnv{
		gorm:     gdb,
		repos:    db.NewGormRepositoryStore(gdb),
		files:    db.NewGormFileStore(gdb),
		views:    db.NewGormViewStore(gdb),
		users:    db.NewGormUserStore(gdb),
		concepts: db.NewGormConceptStore(gdb),
		cache:    db.NewGormAiCacheStore(gdb),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (e *testEnv) seedRepository(t *testing.T, name string) *entities.Repository {
	t.Helper()
	repo := &entities.Repository{
		Name:   name,
		GitURL: "https://example.com/" + name + ".git",
		Status: entities.StatusActive,
	}
	require.NoError(t, e.repos.CreateRepository(repo))
	return repo
}

func (e *testEnv) seedUser(t *testing.T, email string) *entities.User {
	t.Helper()
	user := &entities.User{Email: email, Role: entities.RoleUser}
	require.NoError(t, e.users.CreateUser(user))
	return user
}

func (e *testEnv) seedFile(t *testing.T, repoID uint, path string, key bool) *entities.RepositoryFile {
	t.Helper()
	file := &entities.RepositoryFile{
		RepositoryID: repoID,
		Path:         path,
		Content:      "package main\n",
		Size:         13,
		Language:     DetectLanguage(path),
		LineCount:    1,
		IsKeyFile:    key,
	}
	require.NoError(t, e.gorm.Create(file).Error)
	return file
}

func (e *testEnv) newProgress(ttl time.Duration) *ProgressService {
	return NewProgressService(e.repos, e.files, e.views, ttl, testLogger())
}

func (e *testEnv) newTracker(progress *ProgressService, hub *sse.Hub) *TrackerService {
	if hub == nil {
		hub = sse.NewHub(testLogger())
	}
	return NewTrackerService(e.views, e.files, e.users, e.repos, progress, NewBroadcaster(hub, testLogger()), testLogger())
}
