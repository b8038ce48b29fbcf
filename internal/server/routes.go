package server

import (
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("DSA Quiz API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(d.Logger, d.Checkers))

	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", handleCategories(d.Catalog))
		r.Post("/generate", handleGenerate(d.Logger, d.Generator))
		r.Post("/questions", handleQuestions(d.Cache))
		r.Get("/cache", handleCacheStats(d.Cache))

		r.Post("/sessions", handleCreateSession(d.Sessions))
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(sessionMiddleware(d.Sessions))
			r.Get("/", handleGetSession())
			r.Post("/select", handleSelect())
			r.Post("/submit", handleSubmit())
			r.Post("/reset", handleReset())
			r.Get("/summary", handleSummary())
			r.Get("/events", handleEvents(d.Broker))
			r.Get("/ws", handleSessionWS(d.Logger, d.Broker))
			r.Delete("/", handleDeleteSession(d.Sessions))
		})

		r.Get("/results", handleRecentResults(d.Logger, d.Results))
		r.Get("/results/stats", handleResultStats(d.Logger, d.Results))
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			d.Logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
