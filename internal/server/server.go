// Package server exposes the idea library and schema generation over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/pders01/voice-schema/internal/ideas"
	"github.com/pders01/voice-schema/internal/logging"
	"github.com/pders01/voice-schema/internal/schema"
)

const shutdownTimeout = 10 * time.Second

// Config holds the listener settings
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Server is the HTTP front end
type Server struct {
	engine *gin.Engine
	cfg    Config
	logger *slog.Logger
}

// New builds the gin engine with its middleware and routes.
func New(cfg Config, repo *ideas.Repository, gen schema.Generator, logger *slog.Logger) *Server {
	logger = logging.Or(logger)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(logger))
	engine.Use(CORS(cfg.AllowedOrigins))

	api := NewAPI(repo, gen, logger)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg, logger: logger}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
