// Package router provides HTTP routing configuration for the alert-service API.
// It sets up routes and applies CORS, logging and metrics middleware.
package router

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/handlers"
)

// Router wraps the HTTP router and provides route configuration.
type Router struct {
	router   *httprouter.Router
	handlers *handlers.Handlers
	origins  []string
}

// NewRouter creates a new router with all routes configured. An empty origins list
// allows any origin.
func NewRouter(h *handlers.Handlers, origins []string) *Router {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r := &Router{
		router:   httprouter.New(),
		handlers: h,
		origins:  origins,
	}
	r.router.PanicHandler = panicHandler
	r.setupRoutes()
	return r
}

// Handler returns the HTTP handler with middleware applied:
// logging, then CORS, then metrics, then the router.
func (r *Router) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: r.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return loggingMiddleware(c.Handler(metricsMiddleware(r.handlers.Metrics())(r.router)))
}

func panicHandler(w http.ResponseWriter, r *http.Request, rec any) {
	slog.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", rec)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`{"error":"internal server error"}`))
}
