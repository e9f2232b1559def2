package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dalton-cole/primeta/internal/adapters/sse"
	"github.com/dalton-cole/primeta/internal/core/service"
	"github.com/dalton-cole/primeta/pkg/response"
)

// EventsHandler serves the server-sent-events stream carrying progress
// snapshots and the repository notification feed.
type EventsHandler struct {
	hub    *sse.Hub
	logger *slog.Logger
}

// NewEventsHandler initializes a new EventsHandler.
func NewEventsHandler(hub *sse.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, logger: logger}
}

// RepositoryEvents handles GET /events/repositories/{id}
func (h *EventsHandler) RepositoryEvents(w http.ResponseWriter, r *http.Request) {
	repoID, ok := pathID(r, "id")
	if !ok {
		response.ErrorResponse(w, http.StatusBadRequest, "Invalid repository id")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.ErrorResponse(w, http.StatusInternalServerError, "SSE not supported")
		return
	}

	topics := []string{
		service.RepositoryProgressTopic(repoID),
		service.RepositoryNotificationsTopic(repoID),
	}
	if userID := currentUserID(r); userID != 0 {
		topics = append(topics, service.UserProgressTopic(userID))
	}

	id, events := h.hub.Subscribe(topics...)
	defer h.hub.Unsubscribe(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to encode sse event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
			flusher.Flush()
		}
	}
}
