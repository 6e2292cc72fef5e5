package router

import "net/http"

// setupRoutes configures all HTTP routes for the API.
func (r *Router) setupRoutes() {
	h := r.handlers

	// Alert endpoints
	r.router.POST("/api/v1/alerts/refresh", h.RefreshAlerts)
	r.router.POST("/api/v1/alerts/custom", h.CreateCustomAlert)
	r.router.POST("/api/v1/alerts/dismiss", h.DismissAlert)
	r.router.POST("/api/v1/alerts/notify", h.NotifyAlert)
	r.router.GET("/api/v1/users/:user_id/alerts", h.ListAlerts)

	// Trip endpoints
	r.router.GET("/api/v1/users/:user_id/itinerary", h.GetItinerary)
	r.router.POST("/api/v1/users/:user_id/itinerary", h.CreateItinerary)
	r.router.PUT("/api/v1/users/:user_id/itinerary", h.UpdateItinerary)
	r.router.DELETE("/api/v1/users/:user_id/itinerary", h.ArchiveItinerary)
	r.router.GET("/api/v1/users/:user_id/bookings", h.ListBookings)
	r.router.POST("/api/v1/users/:user_id/bookings", h.ConfirmBooking)
	r.router.POST("/api/v1/users/:user_id/bookings/:booking_id/cancel", h.CancelBooking)

	// Document endpoints
	r.router.POST("/api/v1/documents/classify", h.ClassifyDocuments)
	r.router.GET("/api/v1/users/:user_id/documents", h.ListDocuments)
	r.router.POST("/api/v1/users/:user_id/documents", h.UploadDocument)

	r.router.GET("/api/v1/services/metrics", h.GetServiceMetrics)

	// Health check endpoint
	r.router.HandlerFunc(http.MethodGet, "/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
