package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veralex-legal/casebrain/internal/api"
	"github.com/veralex-legal/casebrain/internal/api/handlers"
	"github.com/veralex-legal/casebrain/internal/api/middleware"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	IndexHandler    *handlers.IndexHandler
	SearchHandler   *handlers.SearchHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 60 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", cfg.DocumentHandler.Create)
		r.Get("/", cfg.DocumentHandler.List)
		r.Get("/{id}", cfg.DocumentHandler.Get)
		r.Delete("/{id}", cfg.DocumentHandler.Delete)
	})

	r.Route("/index", func(r chi.Router) {
		r.Post("/bulk", cfg.IndexHandler.Bulk)
		r.Get("/status", cfg.IndexHandler.Status)
		r.Post("/{id}", cfg.IndexHandler.Index)
	})

	r.Post("/search", cfg.SearchHandler.Search)
	r.Get("/retrieve", cfg.SearchHandler.Retrieve)

	return r
}
