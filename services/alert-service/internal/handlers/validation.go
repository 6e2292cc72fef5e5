package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// decodeJSON decodes the request body as JSON into the provided value.
// Returns true on success, false on error (and writes error response).
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "request body is required"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeJSON writes the value as JSON with appropriate headers.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps err onto a status code and writes it.
func writeError(w http.ResponseWriter, err error, attrs ...any) {
	writeJSON(w, logError(err, attrs...), ErrorResponse{Error: err.Error()})
}

// logError logs err at a level matching its status and returns the status.
func logError(err error, attrs ...any) int {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", append(attrs, "status", status, "error", err)...)
	} else {
		slog.Debug("Request rejected", append(attrs, "status", status, "error", err)...)
	}
	return status
}

// userIDParam extracts the :user_id path parameter.
// Returns the value and true if valid, empty string and false otherwise (and writes error response).
func userIDParam(w http.ResponseWriter, ps httprouter.Params) (string, bool) {
	userID := strings.TrimSpace(ps.ByName("user_id"))
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
		return "", false
	}
	return userID, true
}

// boolQuery reads a boolean query parameter. Missing or unparseable values are false.
func boolQuery(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
