package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dalton-cole/primeta/internal/adapters/api"
	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"github.com/dalton-cole/primeta/internal/core/service"
	"github.com/dalton-cole/primeta/pkg/response"
)

// AiHandler serves the AI content and feedback endpoints.
type AiHandler struct {
	ai       *service.AiService
	feedback db.FeedbackStore
	repos    db.RepositoryStore
	logger   *slog.Logger
}

// NewAiHandler initializes a new AiHandler.
func NewAiHandler(ai *service.AiService, feedback db.FeedbackStore, repos db.RepositoryStore, logger *slog.Logger) *AiHandler {
	return &AiHandler{ai: ai, feedback: feedback, repos: repos, logger: logger}
}

// FileContext handles GET /api/file_context?repository_id=&file_path=
func (h *AiHandler) FileContext(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, service.CacheTypeExplanation, "explanation")
}

// Suggestions handles GET /api/suggestions?repository_id=&file_path=
func (h *AiHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, service.CacheTypeSuggestions, "suggestions")
}

func (h *AiHandler) generate(w http.ResponseWriter, r *http.Request, cacheType, field string) {
	repoIDRaw := r.URL.Query().Get("repository_id")
	filePath := r.URL.Query().Get("file_path")
	if repoIDRaw == "" || filePath == "" {
		response.ErrorResponse(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	repoID, err := strconv.ParseUint(repoIDRaw, 10, 32)
	if err != nil || repoID == 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid repository_id")
		return
	}

	if _, err := h.repos.GetRepository(uint(repoID)); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			response.ErrorResponse(w, http.StatusNotFound, "Repository not found")
			return
		}
		h.logger.Error("failed to load repository", "repository_id", repoID, "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	text, err := h.ai.GenerateForFile(r.Context(), uint(repoID), filePath, cacheType)
	if err != nil {
		h.respondAiError(w, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, map[string]string{
		"file_path": filePath,
		field:       text,
	})
}

// SubmitFeedback handles POST /api/submit_feedback
func (h *AiHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RepositoryID uint   `json:"repository_id"`
		FilePath     string `json:"file_path"`
		ContentType  string `json:"content_type"`
		IsHelpful    *bool  `json:"is_helpful"`
		FeedbackText string `json:"feedback_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RepositoryID == 0 || req.FilePath == "" || req.ContentType == "" || req.IsHelpful == nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	feedback := &entities.AiFeedback{
		RepositoryID: req.RepositoryID,
		FilePath:     req.FilePath,
		ContentType:  req.ContentType,
		IsHelpful:    *req.IsHelpful,
		FeedbackText: req.FeedbackText,
	}
	if userID := currentUserID(r); userID != 0 {
		feedback.UserID = &userID
	}

	if err := h.feedback.Upsert(feedback); err != nil {
		h.logger.Error("failed to save feedback", "repository_id", req.RepositoryID, "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to save feedback")
		return
	}

	stats, err := h.feedback.Stats(req.RepositoryID, req.FilePath, req.ContentType)
	if err != nil {
		h.logger.Error("failed to load feedback stats", "repository_id", req.RepositoryID, "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to load feedback stats")
		return
	}
	response.SuccessResponse(w, http.StatusOK, stats)
}

// respondAiError maps AI generation failures to user-facing statuses;
// upstream failures surface as 503 with a readable message, never a
// stack trace.
func (h *AiHandler) respondAiError(w http.ResponseWriter, err error) {
	var apiErr *api.APIError
	switch {
	case errors.Is(err, db.ErrNotFound):
		response.ErrorResponse(w, http.StatusNotFound, "File not found")
	case errors.Is(err, service.ErrAiDisabled):
		response.ErrorResponse(w, http.StatusServiceUnavailable, "AI features are not available right now")
	case errors.As(err, &apiErr):
		h.logger.Warn("gemini api failure", "status", apiErr.StatusCode, "message", apiErr.Message)
		response.ErrorResponse(w, http.StatusServiceUnavailable, "The AI service is temporarily unavailable. Please try again shortly.")
	default:
		h.logger.Error("ai generation failed", "error", err)
		response.ErrorResponse(w, http.StatusServiceUnavailable, "The AI service is temporarily unavailable. Please try again shortly.")
	}
}
