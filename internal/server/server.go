package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beatplayr/backend/internal/api/routes"
	"github.com/beatplayr/backend/internal/config"
)

// Server wraps the HTTP engine and the background stack for easier testing.
type Server struct {
	Engine *gin.Engine
	stack  *routes.Stack
	cfg    config.Config
}

// New wires up the HTTP router with the admission pipeline and handlers.
func New(cfg config.Config) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	stack, err := routes.Register(router, cfg)
	if err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	return &Server{Engine: router, stack: stack, cfg: cfg}, nil
}

// Run starts the HTTP server and the eviction sweeper, shutting both down
// gracefully when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.stack.Sweeper.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer s.stack.Sweeper.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler: s.Engine,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
