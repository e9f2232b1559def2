package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalton-cole/primeta/internal/core/domain/entities"
)

// fakeGit materializes a fixed file tree instead of talking to a remote.
type fakeGit struct {
	files  map[string]string
	commit string
	err    error
}

func (g *fakeGit) CloneOrPull(_ context.Context, _, workDir string) error {
	if g.err != nil {
		return g.err
	}
	for path, content := range g.files {
		full := filepath.Join(workDir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return err
		}
	}
	// The VCS metadata directory must be excluded from the walk.
	return os.MkdirAll(filepath.Join(workDir, ".git", "objects"), 0o755)
}

func (g *fakeGit) HeadCommit(context.Context, string) (string, error) {
	return g.commit, nil
}

func TestSyncRepositoryUpsertsAndCounts(t *testing.T) {
	env := setupEnv(t)
	repo := env.seedRepository(t, "synced")

	fake := &fakeGit{
		commit: "abc123",
		files: map[string]string{
			"main.go":       "package main\n\nfunc main() {}\n",
			"lib/helper.rb": "def help\r\nend\r\n",
			"docs/guide.md": "# Guide\n",
		},
	}
	syncer := NewSyncService(env.repos, env.files, fake, t.TempDir(), testLogger())

	require.NoError(t, syncer.SyncRepository(context.Background(), repo.ID))

	got, err := env.repos.GetRepository(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusActive, got.Status)
	assert.Equal(t, "abc123", got.CurrentCommit)
	assert.NotNil(t, got.LastSyncedAt)
	assert.Equal(t, 3, got.FileCount)

	helper, err := env.files.GetFileByPath(repo.ID, "lib/helper.rb")
	require.NoError(t, err)
	assert.Equal(t, "def help\nend\n", helper.Content, "CRLF must be normalized")
	assert.Equal(t, "ruby", helper.Language)
	assert.Equal(t, 2, helper.LineCount)
}

func TestSyncRepositoryDeletesMissingFiles(t *testing.T) {
	env := setupEnv(t)
	repo := env.seedRepository(t, "pruned")
	workDir := t.TempDir()

	fake := &fakeGit{
		commit: "one",
		files:  map[string]string{"a.go": "package a\n", "b.go": "package b\n"},
	}
	syncer := NewSyncService(env.repos, env.files, fake, workDir, testLogger())
	require.NoError(t, syncer.SyncRepository(context.Background(), repo.ID))

	// Second pass with b.go gone from the tree.
	require.NoError(t, os.Remove(filepath.Join(workDir, "repository_1", "b.go")))
	fake.files = map[string]string{"a.go": "package a\n"}
	fake.commit = "two"
	require.NoError(t, syncer.SyncRepository(context.Background(), repo.ID))

	paths, err := env.files.ListPaths(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, paths)
}

func TestSyncRepositorySkipsBinariesAndOversized(t *testing.T) {
	env := setupEnv(t)
	repo := env.seedRepository(t, "filtered")

	big := make([]byte, maxSyncFileSize+1)
	for i := range big {
		big[i] = 'a'
	}
	fake := &fakeGit{
		commit: "abc",
		files: map[string]string{
			"logo.png":  "not really an image",
			"blob.data": "has a \x00 null byte",
			"huge.txt":  string(big),
			"ok.txt":    "fine\n",
		},
	}
	syncer := NewSyncService(env.repos, env.files, fake, t.TempDir(), testLogger())
	require.NoError(t, syncer.SyncRepository(context.Background(), repo.ID))

	paths, err := env.files.ListPaths(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.txt"}, paths)
}

func TestSyncRepositoryCloneFailure(t *testing.T) {
	env := setupEnv(t)
	repo := env.seedRepository(t, "broken")

	fake := &fakeGit{err: errors.New("git clone failed: repository not found")}
	syncer := NewSyncService(env.repos, env.files, fake, t.TempDir(), testLogger())

	err := syncer.SyncRepository(context.Background(), repo.ID)
	require.Error(t, err)

	got, err := env.repos.GetRepository(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "repository not found")

	count, err := env.files.CountFiles(repo.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "no rows may be created on clone failure")
}

func TestEnsureKeyFilesHeuristic(t *testing.T) {
	env := setupEnv(t)
	repo := env.seedRepository(t, "heuristic")

	fake := &fakeGit{
		commit: "abc",
		files: map[string]string{
			"README.md":   "# Readme\n",
			"main.go":     "package main\n",
			"internal.go": "package other\n",
		},
	}
	syncer := NewSyncService(env.repos, env.files, fake, t.TempDir(), testLogger())
	require.NoError(t, syncer.SyncRepository(context.Background(), repo.ID))

	ids, err := env.files.KeyFileIDs(repo.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestNormalizeLineEndings(t *testing.T) {
	assert.Equal(t, "a\nb\nc\n", normalizeLineEndings("a\r\nb\rc\n"))
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(""))
	assert.Equal(t, 1, countLines("one line, no newline"))
	assert.Equal(t, 2, countLines("a\nb\n"))
}
