package router

import (
	"net/http"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/handlers"
)

// NewServer creates a new HTTP server with the router configured.
func NewServer(port string, h *handlers.Handlers, origins []string) *http.Server {
	router := NewRouter(h, origins)
	return &http.Server{
		Addr:         ":" + port,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
