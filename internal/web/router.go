// Package web serves the three views over HTTP for a browser frontend and
// streams controller events over a websocket.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"vocabtalk/internal/usecase"
)

// HealthChecker reports the backend health status string.
type HealthChecker interface {
	Health(ctx context.Context) (string, error)
}

// Dependencies are the collaborators the router dispatches to.
type Dependencies struct {
	Translation  *usecase.TranslationController
	Vocabulary   *usecase.VocabularyController
	Conversation *usecase.ConversationController
	Health       HealthChecker
	Events       http.Handler
	Metrics      http.Handler
	Logger       *zap.Logger

	AllowedOrigins []string
}

// NewRouter builds the HTTP handler for the web surface.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{deps: deps, logger: logger}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.health)
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	if deps.Events != nil {
		router.Method(http.MethodGet, "/events", deps.Events)
	}

	router.Route("/api", func(r chi.Router) {
		r.Route("/translation", func(r chi.Router) {
			r.Get("/", h.translationView)
			r.Post("/translate", h.translate)
			r.Post("/tags/toggle", h.toggleTag)
			r.Post("/tags/reload", h.reloadTags)
			r.Post("/save", h.save)
		})

		r.Route("/vocabulary", func(r chi.Router) {
			r.Get("/", h.vocabulary)
			r.Post("/reload", h.reloadVocabulary)
		})

		r.Route("/conversation", func(r chi.Router) {
			r.Get("/", h.conversation)
			r.Post("/capture/toggle", h.toggleCapture)
			r.Post("/editing", h.setEditing)
			r.Put("/draft", h.updateDraft)
			r.Post("/messages", h.submit)
			r.Post("/turns/{turnID}/annotate", h.annotate)
			r.Post("/turns/{turnID}/speech", h.speak)
		})
	})

	return router
}
