// Package api serves the estimation service over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rendis/flowcost/internal/service"
)

// maxBodyBytes bounds request bodies; imported exports can be large.
const maxBodyBytes = 8 << 20

// ServerDeps holds the dependencies for the HTTP server.
type ServerDeps struct {
	Service *service.Service
	Logger  *slog.Logger
	// AllowedOrigins lists the origins allowed by CORS. "*" allows any.
	AllowedOrigins []string
	Version        string
}

// Server serves the REST surface of the estimator.
type Server struct {
	deps    ServerDeps
	origins map[string]bool
}

// NewServer creates a Server.
func NewServer(deps ServerDeps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	origins := make(map[string]bool, len(deps.AllowedOrigins))
	for _, o := range deps.AllowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = true
		}
	}
	return &Server{deps: deps, origins: origins}
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Estimation.
	mux.HandleFunc("POST /api/estimate", s.handleEstimate)
	mux.HandleFunc("POST /api/estimate/batch", s.handleEstimateBatch)
	mux.HandleFunc("POST /api/diagram", s.handleDiagram)

	// Import.
	mux.HandleFunc("GET /api/import/sources", s.handleImportSources)
	mux.HandleFunc("POST /api/import/{source}", s.handleImport)

	// Pricing catalog.
	mux.HandleFunc("GET /api/providers", s.handleProviders)
	mux.HandleFunc("GET /api/providers/detailed", s.handleProvidersDetailed)
	mux.HandleFunc("GET /api/models", s.handleModels)
	mux.HandleFunc("GET /api/models/{provider}/{model}", s.handleModel)
	mux.HandleFunc("GET /api/pricing", s.handlePricing)

	// Tool catalog.
	mux.HandleFunc("GET /api/tools/categories", s.handleToolCategories)
	mux.HandleFunc("GET /api/tools/categories/detailed", s.handleToolCategoriesDetailed)
	mux.HandleFunc("GET /api/tools", s.handleTools)
	mux.HandleFunc("GET /api/tools/{tool_id}", s.handleTool)

	return s.withRequestID(s.withCORS(mux))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("http server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.deps.Logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
