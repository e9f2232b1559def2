package db

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dalton-cole/primeta/internal/adapters/storage"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(gdb))
	return gdb
}

func seedRepo(t *testing.T, gdb *gorm.DB) *entities.Repository {
	t.Helper()
	repo := &entities.Repository{
		Name:   "demo",
		GitURL: "https://example.com/demo.git",
		Status: entities.StatusActive,
	}
	require.NoError(t, gdb.Create(repo).Error)
	return repo
}

func TestAiCachePutGetRoundTrip(t *testing.T) {
	gdb := setupDB(t)
	repo := seedRepo(t, gdb)
	store := NewGormAiCacheStore(gdb)

	_, err := store.Get(repo.ID, "lib/core.rb", "explanation")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(repo.ID, "lib/core.rb", "explanation", "first"))

	cached, err := store.Get(repo.ID, "lib/core.rb", "explanation")
	require.NoError(t, err)
	assert.Equal(t, "first", cached.Content)

	// Same triple, different content: the row is replaced, not duplicated.
	require.NoError(t, store.Put(repo.ID, "lib/core.rb", "explanation", "second"))

	cached, err = store.Get(repo.ID, "lib/core.rb", "explanation")
	require.NoError(t, err)
	assert.Equal(t, "second", cached.Content)

	var count int64
	require.NoError(t, gdb.Model(&entities.AiResponseCache{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAiCacheTriplesAreIndependent(t *testing.T) {
	gdb := setupDB(t)
	repo := seedRepo(t, gdb)
	store := NewGormAiCacheStore(gdb)

	require.NoError(t, store.Put(repo.ID, "lib/core.rb", "explanation", "explained"))
	require.NoError(t, store.Put(repo.ID, "lib/core.rb", "suggestions", "suggested"))

	cached, err := store.Get(repo.ID, "lib/core.rb", "suggestions")
	require.NoError(t, err)
	assert.Equal(t, "suggested", cached.Content)

	_, err = store.Get(repo.ID, "lib/other.rb", "explanation")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedbackUpsertAndStats(t *testing.T) {
	gdb := setupDB(t)
	repo := seedRepo(t, gdb)
	store := NewGormFeedbackStore(gdb)

	alice := uint(1)
	bob := uint(2)
	require.NoError(t, store.Upsert(&entities.AiFeedback{
		UserID: &alice, RepositoryID: repo.ID,
		FilePath: "lib/core.rb", ContentType: "explanation", IsHelpful: true,
	}))
	require.NoError(t, store.Upsert(&entities.AiFeedback{
		UserID: &bob, RepositoryID: repo.ID,
		FilePath: "lib/core.rb", ContentType: "explanation", IsHelpful: false,
	}))

	stats, err := store.Stats(repo.ID, "lib/core.rb", "explanation")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Helpful)
	assert.Equal(t, int64(1), stats.NotHelpful)

	// Alice changes her mind; her earlier rating is replaced.
	require.NoError(t, store.Upsert(&entities.AiFeedback{
		UserID: &alice, RepositoryID: repo.ID,
		FilePath: "lib/core.rb", ContentType: "explanation", IsHelpful: false,
		FeedbackText: "outdated",
	}))

	stats, err = store.Stats(repo.ID, "lib/core.rb", "explanation")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Helpful)
	assert.Equal(t, int64(2), stats.NotHelpful)

	var count int64
	require.NoError(t, gdb.Model(&entities.AiFeedback{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestFileUpsertKeepsOneRowPerPath(t *testing.T) {
	gdb := setupDB(t)
	repo := seedRepo(t, gdb)
	store := NewGormFileStore(gdb)

	file := &entities.RepositoryFile{
		RepositoryID: repo.ID, Path: "lib/core.rb",
		Content: "v1", Size: 2, Language: "ruby", LineCount: 1,
	}
	require.NoError(t, store.UpsertFile(file))

	updated := &entities.RepositoryFile{
		RepositoryID: repo.ID, Path: "lib/core.rb",
		Content: "v2 longer", Size: 9, Language: "ruby", LineCount: 1,
	}
	require.NoError(t, store.UpsertFile(updated))

	stored, err := store.GetFileByPath(repo.ID, "lib/core.rb")
	require.NoError(t, err)
	assert.Equal(t, "v2 longer", stored.Content)
	assert.Equal(t, int64(9), stored.Size)

	count, err := store.CountFiles(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteFilesNotIn(t *testing.T) {
	gdb := setupDB(t)
	repo := seedRepo(t, gdb)
	store := NewGormFileStore(gdb)

	for _, path := range []string{"a.rb", "b.rb", "c.rb"} {
		require.NoError(t, store.UpsertFile(&entities.RepositoryFile{
			RepositoryID: repo.ID, Path: path, Language: "ruby",
		}))
	}

	deleted, err := store.DeleteFilesNotIn(repo.ID, []string{"a.rb", "c.rb"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	paths, err := store.ListPaths(repo.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.rb", "c.rb"}, paths)
}

func TestListFilesOmitsContent(t *testing.T) {
	gdb := setupDB(t)
	repo := seedRepo(t, gdb)
	store := NewGormFileStore(gdb)

	require.NoError(t, store.UpsertFile(&entities.RepositoryFile{
		RepositoryID: repo.ID, Path: "lib/core.rb",
		Content: "secret body", Size: 11, Language: "ruby",
	}))

	files, err := store.ListFiles(repo.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Empty(t, files[0].Content)
	assert.Equal(t, int64(11), files[0].Size)
}

func TestViewStoreDistinctViewerCount(t *testing.T) {
	gdb := setupDB(t)
	repo := seedRepo(t, gdb)
	files := NewGormFileStore(gdb)
	views := NewGormViewStore(gdb)

	a := &entities.RepositoryFile{RepositoryID: repo.ID, Path: "a.rb", Language: "ruby"}
	b := &entities.RepositoryFile{RepositoryID: repo.ID, Path: "b.rb", Language: "ruby"}
	require.NoError(t, files.UpsertFile(a))
	require.NoError(t, files.UpsertFile(b))

	// User 1 views both files, user 2 views one; that is two explorers.
	for _, v := range []*entities.FileView{
		{UserID: 1, RepositoryFileID: a.ID, RepositoryID: repo.ID, ViewCount: 1},
		{UserID: 1, RepositoryFileID: b.ID, RepositoryID: repo.ID, ViewCount: 1},
		{UserID: 2, RepositoryFileID: a.ID, RepositoryID: repo.ID, ViewCount: 3},
	} {
		require.NoError(t, views.Create(v))
	}

	count, err := views.DistinctViewerCount(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ids, err := views.ViewedFileIDs(1, repo.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{a.ID, b.ID}, ids)
}

func TestRepositoryStatusTransitions(t *testing.T) {
	gdb := setupDB(t)
	repo := seedRepo(t, gdb)
	store := NewGormRepositoryStore(gdb)

	require.NoError(t, store.MarkSyncing(repo.ID))
	stored, err := store.GetRepository(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusSyncing, stored.Status)

	syncedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.MarkActive(repo.ID, "abc123", syncedAt))
	stored, err = store.GetRepository(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusActive, stored.Status)
	assert.Equal(t, "abc123", stored.CurrentCommit)
	assert.Empty(t, stored.ErrorMessage)

	require.NoError(t, store.MarkError(repo.ID, "clone failed"))
	stored, err = store.GetRepository(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusError, stored.Status)
	assert.Equal(t, "clone failed", stored.ErrorMessage)
}

func TestGetRepositoryNotFound(t *testing.T) {
	gdb := setupDB(t)
	store := NewGormRepositoryStore(gdb)

	_, err := store.GetRepository(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
