package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jaekwang-park/task-sync/internal/middleware"
	"github.com/jaekwang-park/task-sync/internal/service"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

func NewServer(port string, logger *slog.Logger, auth *middleware.Auth, sessions *service.SessionProvider, store *service.TaskStore, profiles *service.ProfileService) *Server {
	router := NewRouter(sessions, store, profiles)

	// Apply middleware chain: recovery -> logging -> auth -> router
	chain := middleware.Recovery(logger)(middleware.Logging(logger)(auth.Middleware(router)))

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf(":%s", port),
			Handler:     chain,
			ReadTimeout: 10 * time.Second,
			// No WriteTimeout: the session and task watch endpoints hold
			// their streams open for the life of the client connection.
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
