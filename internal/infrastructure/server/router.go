package server

import (
	"log/slog"
	"net/http"

	"github.com/w8kerr/rtmbot/internal/adapter/handler"
	"github.com/w8kerr/rtmbot/internal/adapter/handler/middleware"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	Health  *handler.HealthHandler
	Metrics *handler.MetricsHandler
	Reload  *handler.ReloadHandler
}

// NewRouter creates the HTTP router with all handlers.
func NewRouter(handlers *Handlers, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/health", handlers.Health)
	mux.Handle("/", handlers.Health) // Root path returns health

	if handlers.Metrics != nil {
		mux.Handle("/metrics", handlers.Metrics)
	}

	if handlers.Reload != nil {
		mux.Handle("/-/reload", handlers.Reload)
	}

	// Apply middleware stack
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
