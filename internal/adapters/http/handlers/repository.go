package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"github.com/dalton-cole/primeta/internal/core/service"
	"github.com/dalton-cole/primeta/internal/jobs"
	"github.com/dalton-cole/primeta/pkg/response"
)

// RepositoryHandler serves repository browsing, progress, and admin sync
// endpoints.
type RepositoryHandler struct {
	repos     db.RepositoryStore
	files     db.FileStore
	concepts  db.ConceptStore
	progress  *service.ProgressService
	syncer    *service.SyncService
	extractor *service.ConceptService
	queue     *jobs.Queue
	logger    *slog.Logger
}

// NewRepositoryHandler initializes a new RepositoryHandler.
func NewRepositoryHandler(repos db.RepositoryStore, files db.FileStore, concepts db.ConceptStore, progress *service.ProgressService, syncer *service.SyncService, extractor *service.ConceptService, queue *jobs.Queue, logger *slog.Logger) *RepositoryHandler {
	return &RepositoryHandler{
		repos:     repos,
		files:     files,
		concepts:  concepts,
		progress:  progress,
		syncer:    syncer,
		extractor: extractor,
		queue:     queue,
		logger:    logger,
	}
}

// List handles GET /repositories
func (h *RepositoryHandler) List(w http.ResponseWriter, r *http.Request) {
	repos, err := h.repos.GetAllRepositories()
	if err != nil {
		h.logger.Error("failed to list repositories", "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve repositories")
		return
	}
	response.SuccessResponse(w, http.StatusOK, repos)
}

// Create handles POST /repositories
func (h *RepositoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		GitURL string `json:"git_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.GitURL == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Name and git_url are required")
		return
	}

	repo := &entities.Repository{
		Name:   req.Name,
		GitURL: req.GitURL,
		Status: entities.StatusActive,
	}
	if err := h.repos.CreateRepository(repo); err != nil {
		h.logger.Error("failed to create repository", "git_url", req.GitURL, "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to save repository")
		return
	}

	h.enqueueSync(repo.ID)
	response.SuccessResponse(w, http.StatusCreated, repo)
}

// Get handles GET /repositories/{id}
func (h *RepositoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookup(w, r)
	if !ok {
		return
	}
	response.SuccessResponse(w, http.StatusOK, repo)
}

// Files handles GET /repositories/{id}/files
func (h *RepositoryHandler) Files(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookup(w, r)
	if !ok {
		return
	}
	files, err := h.files.ListFiles(repo.ID)
	if err != nil {
		h.logger.Error("failed to list files", "repository_id", repo.ID, "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve files")
		return
	}
	response.SuccessResponse(w, http.StatusOK, files)
}

// FileContent handles GET /repositories/{id}/files/content?path=
func (h *RepositoryHandler) FileContent(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookup(w, r)
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	file, err := h.files.GetFileByPath(repo.ID, path)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			response.ErrorResponse(w, http.StatusNotFound, "File not found")
			return
		}
		h.logger.Error("failed to load file", "repository_id", repo.ID, "path", path, "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve file")
		return
	}
	response.SuccessResponse(w, http.StatusOK, map[string]interface{}{
		"id":          file.ID,
		"path":        file.Path,
		"language":    file.Language,
		"line_count":  file.LineCount,
		"size":        file.Size,
		"is_key_file": file.IsKeyFile,
		"content":     file.Content,
	})
}

// Progress handles GET /repositories/{id}/progress
func (h *RepositoryHandler) Progress(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookup(w, r)
	if !ok {
		return
	}
	snap, err := h.progress.Calculate(repo.ID, currentUserID(r))
	if err != nil {
		h.logger.Error("failed to calculate progress", "repository_id", repo.ID, "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to calculate progress")
		return
	}
	response.SuccessResponse(w, http.StatusOK, snap)
}

// KeyConcepts handles GET /repositories/{id}/key_concepts
func (h *RepositoryHandler) KeyConcepts(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookup(w, r)
	if !ok {
		return
	}
	concepts, err := h.concepts.ListByRepository(repo.ID)
	if err != nil {
		h.logger.Error("failed to list key concepts", "repository_id", repo.ID, "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve key concepts")
		return
	}
	response.SuccessResponse(w, http.StatusOK, concepts)
}

// Sync handles POST /repositories/{id}/sync
func (h *RepositoryHandler) Sync(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookup(w, r)
	if !ok {
		return
	}
	queued := h.enqueueSync(repo.ID)
	response.SuccessResponse(w, http.StatusAccepted, map[string]interface{}{
		"queued": queued,
	})
}

// ExtractConcepts handles POST /repositories/{id}/extract_concepts
func (h *RepositoryHandler) ExtractConcepts(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookup(w, r)
	if !ok {
		return
	}
	queued := h.queue.Enqueue(jobs.Job{
		Key: fmt.Sprintf("concepts:%d", repo.ID),
		Run: func(ctx context.Context) error {
			return h.extractor.ExtractConcepts(ctx, repo.ID)
		},
	})
	response.SuccessResponse(w, http.StatusAccepted, map[string]interface{}{
		"queued": queued,
	})
}

func (h *RepositoryHandler) enqueueSync(repositoryID uint) bool {
	return h.queue.Enqueue(jobs.Job{
		Key: fmt.Sprintf("sync:%d", repositoryID),
		Run: func(ctx context.Context) error {
			return h.syncer.SyncRepository(ctx, repositoryID)
		},
	})
}

func (h *RepositoryHandler) lookup(w http.ResponseWriter, r *http.Request) (*entities.Repository, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid repository id")
		return nil, false
	}
	repo, err := h.repos.GetRepository(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			response.ErrorResponse(w, http.StatusNotFound, "Repository not found")
			return nil, false
		}
		h.logger.Error("failed to load repository", "repository_id", id, "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return repo, true
}
