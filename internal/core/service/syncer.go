package service

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/adapters/git"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"github.com/dalton-cole/primeta/internal/jobs"
)

// Files larger than this are skipped during sync.
const maxSyncFileSize = 1 << 20 // 1 MB

// Bytes sampled when sniffing for binary content.
const binarySniffSize = 8 << 10 // 8 KB

// Extensions that are always treated as binary without sniffing.
var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".svgz": true, ".tiff": true,
	".pdf": true, ".zip": true, ".gz": true, ".tar": true, ".bz2": true,
	".xz": true, ".7z": true, ".rar": true, ".jar": true, ".war": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true,
	".o": true, ".obj": true, ".bin": true, ".dat": true, ".db": true,
	".sqlite": true, ".sqlite3": true, ".class": true, ".pyc": true,
	".wasm": true, ".woff": true, ".woff2": true, ".ttf": true,
	".otf": true, ".eot": true, ".mp3": true, ".mp4": true, ".avi": true,
	".mov": true, ".wav": true, ".flac": true, ".ogg": true, ".webm": true,
}

// Basenames flagged as key files when a repository has no AI-extracted
// concepts yet.
var keyFileBasenames = map[string]bool{
	"readme":         true,
	"readme.md":      true,
	"main.go":        true,
	"main.py":        true,
	"index.js":       true,
	"index.ts":       true,
	"app.rb":         true,
	"application.rb": true,
	"routes.rb":      true,
	"schema.rb":      true,
	"package.json":   true,
	"go.mod":         true,
	"dockerfile":     true,
	"makefile":       true,
}

// GitClient abstracts the git operations the sync worker needs.
// *git.Client is the production implementation.
type GitClient interface {
	CloneOrPull(ctx context.Context, gitURL, workDir string) error
	HeadCommit(ctx context.Context, workDir string) (string, error)
}

var _ GitClient = (*git.Client)(nil)

// SyncService brings persisted repository files in line with the current
// state of the remote git repository.
type SyncService struct {
	repos    db.RepositoryStore
	files    db.FileStore
	git      GitClient
	reposDir string
	logger   *slog.Logger
}

// NewSyncService initializes a new SyncService. reposDir is the parent
// directory holding one working directory per repository; each working
// directory is exclusively owned by the sync pass for that repository.
func NewSyncService(repos db.RepositoryStore, files db.FileStore, gitClient GitClient, reposDir string, logger *slog.Logger) *SyncService {
	return &SyncService{
		repos:    repos,
		files:    files,
		git:      gitClient,
		reposDir: reposDir,
		logger:   logger,
	}
}

// StartMonitor re-enqueues a sync for every repository on the given
// interval until ctx is cancelled. The queue's key dedup keeps a slow
// sync from being scheduled on top of itself.
func (s *SyncService) StartMonitor(ctx context.Context, interval time.Duration, queue *jobs.Queue) {
	s.logger.Info("starting sync monitor", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sync monitor shutting down", "reason", ctx.Err())
			return
		case <-ticker.C:
			repos, err := s.repos.GetAllRepositories()
			if err != nil {
				s.logger.Error("failed to list repositories for sync", "error", err)
				continue
			}
			for _, repo := range repos {
				repoID := repo.ID
				queue.Enqueue(jobs.Job{
					Key: fmt.Sprintf("sync:%d", repoID),
					Run: func(ctx context.Context) error {
						return s.SyncRepository(ctx, repoID)
					},
				})
			}
		}
	}
}

// SyncRepository runs a full sync pass. On failure the repository is
// marked with status error and the failure text; rows already written
// before the failure remain (the pass is not transactional).
func (s *SyncService) SyncRepository(ctx context.Context, repositoryID uint) error {
	repo, err := s.repos.GetRepository(repositoryID)
	if err != nil {
		return err
	}

	if err := s.repos.MarkSyncing(repo.ID); err != nil {
		return err
	}

	if err := s.syncPass(ctx, repo); err != nil {
		s.logger.Error("repository sync failed", "repository_id", repo.ID, "error", err)
		if markErr := s.repos.MarkError(repo.ID, err.Error()); markErr != nil {
			s.logger.Error("failed to record sync error", "repository_id", repo.ID, "error", markErr)
		}
		return err
	}

	return nil
}

func (s *SyncService) syncPass(ctx context.Context, repo *entities.Repository) error {
	workDir := filepath.Join(s.reposDir, fmt.Sprintf("repository_%d", repo.ID))

	if err := s.git.CloneOrPull(ctx, repo.GitURL, workDir); err != nil {
		return err
	}

	commit, err := s.git.HeadCommit(ctx, workDir)
	if err != nil {
		return err
	}

	var (
		paths         []string
		totalSize     int64
		languageStats = make(map[string]int)
	)

	err = filepath.WalkDir(workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(workDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > maxSyncFileSize {
			s.logger.Debug("skipping oversized file", "path", relPath, "size", info.Size())
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if isBinary(relPath, raw) {
			return nil
		}

		content := normalizeLineEndings(string(raw))
		file := &entities.RepositoryFile{
			RepositoryID: repo.ID,
			Path:         relPath,
			Content:      content,
			Size:         int64(len(content)),
			Language:     DetectLanguage(relPath),
			LineCount:    countLines(content),
		}
		if err := s.files.UpsertFile(file); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", relPath, err)
		}

		paths = append(paths, relPath)
		totalSize += file.Size
		languageStats[file.Language]++
		return nil
	})
	if err != nil {
		return err
	}

	deleted, err := s.files.DeleteFilesNotIn(repo.ID, paths)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("removed files no longer present", "repository_id", repo.ID, "count", deleted)
	}

	if err := s.repos.UpdateCounters(repo.ID, len(paths), totalSize, languageStats); err != nil {
		return err
	}

	if err := s.ensureKeyFiles(repo.ID, paths); err != nil {
		return err
	}

	if err := s.repos.MarkActive(repo.ID, commit, time.Now()); err != nil {
		return err
	}

	s.logger.Info("repository synced", "repository_id", repo.ID, "commit", commit, "files", len(paths))
	return nil
}

// ensureKeyFiles applies the basename heuristic when no files are flagged
// yet. AI concept extraction replaces these flags later.
func (s *SyncService) ensureKeyFiles(repositoryID uint, paths []string) error {
	existing, err := s.files.KeyFileIDs(repositoryID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	var keyPaths []string
	for _, p := range paths {
		if keyFileBasenames[strings.ToLower(filepath.Base(p))] {
			keyPaths = append(keyPaths, p)
		}
	}
	if len(keyPaths) == 0 {
		return nil
	}
	return s.files.SetKeyFiles(repositoryID, keyPaths)
}

// isBinary classifies a file as binary by its extension, falling back to
// sampling the first 8KB for a null byte.
func isBinary(path string, raw []byte) bool {
	if binaryExtensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	sample := raw
	if len(sample) > binarySniffSize {
		sample = sample[:binarySniffSize]
	}
	return bytes.IndexByte(sample, 0) >= 0
}

// normalizeLineEndings converts CRLF and lone CR line endings to LF.
func normalizeLineEndings(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
