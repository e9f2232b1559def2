package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/dalton-cole/primeta/internal/adapters/http/handlers"
	"github.com/dalton-cole/primeta/internal/config"
	"github.com/dalton-cole/primeta/pkg/response"
)

// Handlers bundles the handler groups mounted by the router.
type Handlers struct {
	Repositories *handlers.RepositoryHandler
	Files        *handlers.FileHandler
	Ai           *handlers.AiHandler
	Events       *handlers.EventsHandler
}

// NewRouter creates and configures the chi router with all routes.
func NewRouter(cfg *config.Config, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.SuccessResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/repositories", func(r chi.Router) {
			r.Get("/", h.Repositories.List)
			r.Post("/", h.Repositories.Create)
			r.Get("/{id}", h.Repositories.Get)
			r.Get("/{id}/files", h.Repositories.Files)
			r.Get("/{id}/files/content", h.Repositories.FileContent)
			r.Get("/{id}/progress", h.Repositories.Progress)
			r.Get("/{id}/key_concepts", h.Repositories.KeyConcepts)
			r.Post("/{id}/sync", h.Repositories.Sync)
			r.Post("/{id}/extract_concepts", h.Repositories.ExtractConcepts)
		})

		r.Route("/repository_files", func(r chi.Router) {
			r.Post("/{id}/view", h.Files.View)
			r.Post("/{id}/track_time", h.Files.TrackTime)
		})
	})

	// AI endpoints get a longer timeout for the upstream call plus the
	// abuse throttle.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(120 * time.Second))
		r.Use(newIPThrottle(cfg.AIRateLimit, cfg.AIRateBurst).Middleware)

		r.Get("/api/file_context", h.Ai.FileContext)
		r.Get("/api/suggestions", h.Ai.Suggestions)
		r.Post("/api/submit_feedback", h.Ai.SubmitFeedback)
	})

	// SSE streams stay open indefinitely; no timeout middleware.
	r.Get("/events/repositories/{id}", h.Events.RepositoryEvents)

	// Serve Swagger documentation
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
