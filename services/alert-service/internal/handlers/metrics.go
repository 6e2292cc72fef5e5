package handlers

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/afikmenashe/travel-alerting/pkg/metrics"
)

// ServiceMetricsResponse wraps service metrics with known service list.
type ServiceMetricsResponse struct {
	Services      map[string]*metrics.ServiceMetrics `json:"services"`
	KnownServices []string                           `json:"known_services"`
}

// GetServiceMetrics returns metrics for all services from Redis.
// GET /api/v1/services/metrics
func (h *Handlers) GetServiceMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.metricsRd == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "service metrics are not enabled"})
		return
	}
	ctx := r.Context()

	if serviceName := r.URL.Query().Get("service"); serviceName != "" {
		serviceMetrics, err := h.metricsRd.GetServiceMetrics(ctx, serviceName)
		if err != nil {
			slog.Warn("Failed to get service metrics", "service", serviceName, "error", err)
			serviceMetrics = &metrics.ServiceMetrics{
				ServiceName: serviceName,
				Status:      "offline",
			}
		}
		writeJSON(w, http.StatusOK, serviceMetrics)
		return
	}

	allMetrics, err := h.metricsRd.GetAllServiceMetrics(ctx)
	if err != nil {
		slog.Error("Failed to get all service metrics", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to retrieve service metrics"})
		return
	}
	if allMetrics == nil {
		allMetrics = make(map[string]*metrics.ServiceMetrics)
	}

	// Known services that never reported are offline.
	for _, name := range metrics.ServiceNames {
		if _, exists := allMetrics[name]; !exists {
			allMetrics[name] = &metrics.ServiceMetrics{
				ServiceName: name,
				Status:      "offline",
			}
		}
	}

	writeJSON(w, http.StatusOK, ServiceMetricsResponse{
		Services:      allMetrics,
		KnownServices: metrics.ServiceNames,
	})
}
