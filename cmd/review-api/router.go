// Package main provides the API router setup.
package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/slidegate/review-engine/cmd/review-api/handlers"
	"github.com/slidegate/review-engine/cmd/review-api/middleware"
	"github.com/slidegate/review-engine/internal/objectstore"
	"github.com/slidegate/review-engine/internal/observability"
	"github.com/slidegate/review-engine/internal/status"
)

// RouterDeps holds the services the API routes are built on.
type RouterDeps struct {
	Uploader       handlers.Uploader
	Objects        objectstore.Store
	Statuses       status.Store
	Bucket         string
	RequestTimeout time.Duration
	MaxUploadBytes int64
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(deps.RequestTimeout))

	// Health check (unauthenticated)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"review-engine"}`))
	})

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(logger, deps.Uploader, deps.MaxUploadBytes)
	statusHandler := handlers.NewStatusHandler(logger, deps.Statuses)
	resultHandler := handlers.NewResultHandler(logger, deps.Objects, deps.Statuses, deps.Bucket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/upload", uploadHandler.Upload)
		r.Get("/status", statusHandler.Status)
		r.Get("/review-result", resultHandler.Result)
	})

	return r
}
