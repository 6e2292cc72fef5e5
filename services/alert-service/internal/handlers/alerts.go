package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/aggregator"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// UserRequest names the user an alert operation applies to.
type UserRequest struct {
	UserID string `json:"user_id"`
}

// AlertRequest names one of a user's alerts.
type AlertRequest struct {
	UserID  string `json:"user_id"`
	AlertID string `json:"alert_id"`
}

// CustomAlertRequest represents a request to create a custom alert.
type CustomAlertRequest struct {
	UserID string `json:"user_id"`
	aggregator.CustomAlertSpec
}

// RefreshResponse is an alert set, plus the error when it could not be stored.
type RefreshResponse struct {
	*models.AlertSet
	Error string `json:"error,omitempty"`
}

// AlertListResponse lists a user's alerts.
type AlertListResponse struct {
	UserID string         `json:"user_id"`
	Alerts []models.Alert `json:"alerts"`
	Count  int            `json:"count"`
}

// NotifyResponse reports the outcome of a manual notification.
type NotifyResponse struct {
	UserID  string `json:"user_id"`
	AlertID string `json:"alert_id"`
	Sent    bool   `json:"sent"`
}

// RefreshAlerts recomputes a user's alerts.
// POST /api/v1/alerts/refresh
func (h *Handlers) RefreshAlerts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req UserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	set, err := h.alerts.Refresh(r.Context(), req.UserID)
	if err != nil {
		if set == nil {
			writeError(w, err, "user_id", req.UserID)
			return
		}
		// The alerts were computed but not stored; return them with the failure status.
		status := logError(err, "user_id", req.UserID)
		writeJSON(w, status, RefreshResponse{AlertSet: set, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{AlertSet: set})
}

// ListAlerts returns a user's current and custom alerts.
// GET /api/v1/users/:user_id/alerts?include_dismissed=true
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}

	alerts, err := h.alerts.ListAlerts(r.Context(), userID, boolQuery(r, "include_dismissed"))
	if err != nil {
		writeError(w, err, "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, AlertListResponse{UserID: userID, Alerts: alerts, Count: len(alerts)})
}

// CreateCustomAlert adds a user-authored alert.
// POST /api/v1/alerts/custom
func (h *Handlers) CreateCustomAlert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req CustomAlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	alert, err := h.alerts.CreateCustomAlert(r.Context(), req.UserID, req.CustomAlertSpec)
	if err != nil {
		writeError(w, err, "user_id", req.UserID)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

// DismissAlert hides an alert from the user's list.
// POST /api/v1/alerts/dismiss
func (h *Handlers) DismissAlert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req AlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	record, err := h.alerts.DismissAlert(r.Context(), req.UserID, req.AlertID)
	if err != nil {
		writeError(w, err, "user_id", req.UserID, "alert_id", req.AlertID)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// NotifyAlert sends one of the user's alerts through the notification transports.
// POST /api/v1/alerts/notify
func (h *Handlers) NotifyAlert(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req AlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	alert, state, err := h.alerts.FindAlert(r.Context(), req.UserID, req.AlertID)
	if err != nil {
		writeError(w, err, "user_id", req.UserID, "alert_id", req.AlertID)
		return
	}

	resp := NotifyResponse{UserID: req.UserID, AlertID: req.AlertID}
	resp.Sent = h.notifier.NotifyWithPreferences(r.Context(), req.UserID, *alert, state.Preferences)
	if !resp.Sent {
		h.metrics.IncrementCustom("manual_notifications_failed")
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
