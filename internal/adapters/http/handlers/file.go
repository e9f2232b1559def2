package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/core/domain/entities"
	"github.com/dalton-cole/primeta/internal/core/service"
	"github.com/dalton-cole/primeta/pkg/response"
)

// FileHandler serves the per-file view and time-tracking endpoints.
type FileHandler struct {
	tracker *service.TrackerService
	logger  *slog.Logger
}

// NewFileHandler initializes a new FileHandler.
func NewFileHandler(tracker *service.TrackerService, logger *slog.Logger) *FileHandler {
	return &FileHandler{tracker: tracker, logger: logger}
}

// View handles POST /repository_files/{id}/view
func (h *FileHandler) View(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathID(r, "id")
	if !ok {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid file id")
		return
	}
	userID := currentUserID(r)
	if userID == 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "User identity is required")
		return
	}

	view, err := h.tracker.RecordView(userID, fileID, 0)
	if err != nil {
		h.respondTrackerError(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, viewStats(view))
}

// TrackTime handles POST /repository_files/{id}/track_time
func (h *FileHandler) TrackTime(w http.ResponseWriter, r *http.Request) {
	fileID, ok := pathID(r, "id")
	if !ok {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid file id")
		return
	}
	userID := currentUserID(r)
	if userID == 0 {
		response.ErrorResponse(w, http.StatusBadRequest, "User identity is required")
		return
	}

	var req struct {
		TimeSpent int `json:"time_spent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.tracker.TrackTime(userID, fileID, req.TimeSpent)
	if err != nil {
		h.respondTrackerError(w, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, viewStats(view))
}

func (h *FileHandler) respondTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidTimeSpent):
		response.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrNotFound):
		response.ErrorResponse(w, http.StatusNotFound, "File or user not found")
	default:
		h.logger.Error("failed to record view", "error", err)
		response.ErrorResponse(w, http.StatusInternalServerError, "Failed to record view")
	}
}

func viewStats(view *entities.FileView) map[string]interface{} {
	return map[string]interface{}{
		"repository_file_id": view.RepositoryFileID,
		"view_count":         view.ViewCount,
		"total_time_spent":   view.TotalTimeSpent,
		"last_viewed_at":     view.LastViewedAt,
	}
}
