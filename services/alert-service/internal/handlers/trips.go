package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/trips"
)

// BookingListResponse lists a user's bookings.
type BookingListResponse struct {
	UserID   string           `json:"user_id"`
	Bookings []models.Booking `json:"bookings"`
	Count    int              `json:"count"`
}

// GetItinerary returns the user's current itinerary.
// GET /api/v1/users/:user_id/itinerary
func (h *Handlers) GetItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}
	it, err := h.trips.GetItinerary(r.Context(), userID)
	if err != nil {
		writeError(w, err, "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// CreateItinerary replaces the user's current itinerary.
// POST /api/v1/users/:user_id/itinerary
func (h *Handlers) CreateItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}
	var spec trips.ItinerarySpec
	if !decodeJSON(w, r, &spec) {
		return
	}
	it, err := h.trips.CreateItinerary(r.Context(), userID, spec)
	if err != nil {
		writeError(w, err, "user_id", userID)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// UpdateItinerary merges changes into the current itinerary.
// PUT /api/v1/users/:user_id/itinerary
func (h *Handlers) UpdateItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}
	var patch trips.ItineraryPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	it, err := h.trips.UpdateItinerary(r.Context(), userID, patch)
	if err != nil {
		writeError(w, err, "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// ArchiveItinerary archives the current itinerary.
// DELETE /api/v1/users/:user_id/itinerary
func (h *Handlers) ArchiveItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}
	it, err := h.trips.ArchiveItinerary(r.Context(), userID)
	if err != nil {
		writeError(w, err, "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// ListBookings returns the user's bookings.
// GET /api/v1/users/:user_id/bookings
func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}
	bookings, err := h.trips.ListBookings(r.Context(), userID)
	if err != nil {
		writeError(w, err, "user_id", userID)
		return
	}
	writeJSON(w, http.StatusOK, BookingListResponse{UserID: userID, Bookings: bookings, Count: len(bookings)})
}

// ConfirmBooking records a confirmed booking.
// POST /api/v1/users/:user_id/bookings
func (h *Handlers) ConfirmBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}
	var spec trips.BookingSpec
	if !decodeJSON(w, r, &spec) {
		return
	}
	b, err := h.trips.ConfirmBooking(r.Context(), userID, spec)
	if err != nil {
		writeError(w, err, "user_id", userID)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// CancelBooking cancels one booking.
// POST /api/v1/users/:user_id/bookings/:booking_id/cancel
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID, ok := userIDParam(w, ps)
	if !ok {
		return
	}
	bookingID := ps.ByName("booking_id")
	b, err := h.trips.CancelBooking(r.Context(), userID, bookingID)
	if err != nil {
		writeError(w, err, "user_id", userID, "booking_id", bookingID)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
