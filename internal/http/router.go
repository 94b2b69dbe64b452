package http

import (
	"net/http"

	"github.com/jaekwang-park/task-sync/internal/http/handler"
	"github.com/jaekwang-park/task-sync/internal/service"
)

func NewRouter(sessions *service.SessionProvider, store *service.TaskStore, profiles *service.ProfileService) http.Handler {
	mux := http.NewServeMux()

	// Health check - intentionally outside /api/v1 for ALB health check compatibility
	health := handler.NewHealthHandler()
	mux.Handle("/health", health)

	// Session lifecycle + live session stream
	authHandler := handler.NewAuthHandler(sessions)
	mux.Handle("/api/v1/auth/", authHandler)

	// Task CRUD + live task stream
	taskHandler := handler.NewTaskHandler(store)
	mux.Handle("/api/v1/tasks", taskHandler)
	mux.Handle("/api/v1/tasks/", taskHandler)

	// Profile side record
	profileHandler := handler.NewProfileHandler(profiles)
	mux.Handle("/api/v1/profile", profileHandler)

	return mux
}
