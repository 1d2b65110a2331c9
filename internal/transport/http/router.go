package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"imaginarium/internal/handler"
	"imaginarium/internal/httputil"
	"imaginarium/internal/metrics"
	authmw "imaginarium/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	CreationHandler     *handler.CreationHandler
	FeedHandler         *handler.FeedHandler
	EngagementHandler   *handler.EngagementHandler
	NotificationHandler *handler.NotificationHandler
	JWTSecret           string
	// SubmitLimiter throttles POST /creations per user. Nil disables it.
	SubmitLimiter *authmw.RateLimiter
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Every product route requires authentication.
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Route("/creations", func(r chi.Router) {
			if cfg.SubmitLimiter != nil {
				r.With(cfg.SubmitLimiter.Handler).Post("/", cfg.CreationHandler.Submit)
			} else {
				r.Post("/", cfg.CreationHandler.Submit)
			}
			r.Get("/", cfg.FeedHandler.List)
			r.Get("/{id}", cfg.CreationHandler.Get)
			r.Post("/{id}/like", cfg.EngagementHandler.ToggleLike)
			r.Get("/{id}/comments", cfg.EngagementHandler.ListComments)
			r.Post("/{id}/comments", cfg.EngagementHandler.CreateComment)
			r.Post("/{id}/report", cfg.EngagementHandler.Report)
		})

		r.Get("/users/{id}/creations", cfg.CreationHandler.ListByUser)
		r.Get("/search", cfg.FeedHandler.Search)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Patch("/{id}", cfg.NotificationHandler.Update)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllRead)
			r.Post("/push-token", cfg.NotificationHandler.SavePushToken)
		})
	})

	return r
}
