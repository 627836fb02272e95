// Package rest exposes the backend HTTP API: graph CRUD, snapshot
// load/save, and the streamed chat endpoint.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"rootie/infrastructure/llm"
	"rootie/infrastructure/persistence/abstractions"
	"rootie/interfaces/http/rest/handlers"
	"rootie/interfaces/http/rest/middleware"
)

// Router creates and configures the HTTP router
type Router struct {
	repo       abstractions.Repository
	provider   llm.Provider
	logger     *zap.Logger
	enableCORS bool
}

// NewRouter creates a new router instance
func NewRouter(repo abstractions.Repository, provider llm.Provider, logger *zap.Logger, enableCORS bool) *Router {
	return &Router{
		repo:       repo,
		provider:   provider,
		logger:     logger,
		enableCORS: enableCORS,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.enableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	graphHandler := handlers.NewGraphHandler(rt.repo, rt.logger)
	chatHandler := handlers.NewChatHandler(rt.repo, rt.provider, rt.logger)

	router.Get("/api/health", chatHandler.Health)

	router.Route("/api/graphs", func(r chi.Router) {
		r.Get("/", graphHandler.ListGraphs)
		r.Post("/", graphHandler.CreateGraph)
		r.Put("/{graphID}", graphHandler.RenameGraph)
		r.Delete("/{graphID}", graphHandler.DeleteGraph)
		r.Get("/{graphID}/load", graphHandler.LoadGraph)
		r.Post("/{graphID}/save", graphHandler.SaveGraph)
	})

	router.Get("/api/nodes", graphHandler.ListNodes)
	router.Post("/api/chat", chatHandler.Chat)
	router.Post("/api/chat/stream", chatHandler.StreamChat)

	return router
}
