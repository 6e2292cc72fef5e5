// Package trips manages a user's itineraries and bookings, the inputs of alert evaluation.
package trips

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

const (
	// MaxArchivedItineraries is how many archived itineraries a user keeps.
	MaxArchivedItineraries = 10
	updateAttempts         = 3
)

// Store loads and conditionally saves user state.
type Store interface {
	Get(ctx context.Context, userID string) (*models.UserState, error)
	Put(ctx context.Context, state *models.UserState) error
}

// Service implements itinerary and booking management.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a trips service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// ItinerarySpec is the input for a new itinerary.
type ItinerarySpec struct {
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Destinations []models.Destination `json:"destinations"`
	StartDate    string               `json:"start_date"`
	EndDate      string               `json:"end_date"`
	Days         []models.DayPlan     `json:"days"`
	Travelers    int                  `json:"travelers"`
}

// ItineraryPatch holds the fields an update may change. Nil fields are left as they are.
type ItineraryPatch struct {
	Title        *string                 `json:"title,omitempty"`
	Description  *string                 `json:"description,omitempty"`
	Destinations []models.Destination    `json:"destinations,omitempty"`
	StartDate    *string                 `json:"start_date,omitempty"`
	EndDate      *string                 `json:"end_date,omitempty"`
	Days         []models.DayPlan        `json:"days,omitempty"`
	Travelers    *int                    `json:"travelers,omitempty"`
	Status       *models.ItineraryStatus `json:"status,omitempty"`
}

// BookingSpec is the input for a new booking.
type BookingSpec struct {
	Type           models.BookingType `json:"type"`
	Details        map[string]any     `json:"details"`
	PaymentDetails map[string]any     `json:"payment_details,omitempty"`
}

// CreateItinerary replaces the user's current itinerary with a new draft.
func (s *Service) CreateItinerary(ctx context.Context, userID string, spec ItinerarySpec) (*models.Itinerary, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if len(spec.Destinations) == 0 {
		return nil, apperr.Validation("at least one destination is required")
	}
	for i, d := range spec.Destinations {
		if strings.TrimSpace(d.Location) == "" {
			return nil, apperr.Validation("destination %d has no location", i)
		}
	}
	if spec.StartDate == "" || spec.EndDate == "" {
		return nil, apperr.Validation("start_date and end_date are required")
	}

	now := s.now().UTC()
	it := &models.Itinerary{
		ID:           uuid.NewString(),
		Title:        spec.Title,
		Description:  spec.Description,
		Destinations: spec.Destinations,
		Days:         spec.Days,
		Travelers:    spec.Travelers,
		Status:       models.ItineraryDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := it.SetDates(spec.StartDate, spec.EndDate); err != nil {
		return nil, apperr.Validation("%v", err)
	}
	if it.Title == "" {
		it.Title = "Trip to " + it.PrimaryDestination()
	}
	if it.Travelers <= 0 {
		it.Travelers = 1
	}
	if len(it.Days) == 0 {
		it.Days = DefaultDays(it)
	}

	err := s.update(ctx, userID, true, func(state *models.UserState) error {
		state.CurrentItinerary = it
		state.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Created itinerary", "user_id", userID, "itinerary_id", it.ID, "duration_days", it.DurationDays)
	return it, nil
}

// GetItinerary returns the user's current itinerary.
func (s *Service) GetItinerary(ctx context.Context, userID string) (*models.Itinerary, error) {
	state, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if state.CurrentItinerary == nil {
		return nil, apperr.NotFound("itinerary", userID)
	}
	return state.CurrentItinerary, nil
}

// UpdateItinerary merges patch into the current itinerary and recomputes its duration when
// a date changes.
func (s *Service) UpdateItinerary(ctx context.Context, userID string, patch ItineraryPatch) (*models.Itinerary, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if patch.Status != nil && *patch.Status != models.ItineraryDraft && *patch.Status != models.ItineraryConfirmed {
		return nil, apperr.Validation("status must be draft or confirmed, got %q", *patch.Status)
	}

	var updated *models.Itinerary
	err := s.update(ctx, userID, false, func(state *models.UserState) error {
		it := state.CurrentItinerary
		if it == nil {
			return apperr.NotFound("itinerary", userID)
		}
		if patch.Title != nil {
			it.Title = *patch.Title
		}
		if patch.Description != nil {
			it.Description = *patch.Description
		}
		if patch.Destinations != nil {
			it.Destinations = patch.Destinations
		}
		if patch.Days != nil {
			it.Days = patch.Days
		}
		if patch.Travelers != nil {
			it.Travelers = *patch.Travelers
		}
		if patch.Status != nil {
			it.Status = *patch.Status
		}
		if patch.StartDate != nil || patch.EndDate != nil {
			start, end := it.StartDate, it.EndDate
			if patch.StartDate != nil {
				start = *patch.StartDate
			}
			if patch.EndDate != nil {
				end = *patch.EndDate
			}
			if err := it.SetDates(start, end); err != nil {
				return apperr.Validation("%v", err)
			}
		}
		it.UpdatedAt = s.now().UTC()
		state.UpdatedAt = it.UpdatedAt
		updated = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Updated itinerary", "user_id", userID, "itinerary_id", updated.ID)
	return updated, nil
}

// ArchiveItinerary moves the current itinerary to the archive.
func (s *Service) ArchiveItinerary(ctx context.Context, userID string) (*models.Itinerary, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var archived models.Itinerary
	err := s.update(ctx, userID, false, func(state *models.UserState) error {
		if state.CurrentItinerary == nil {
			return apperr.NotFound("itinerary", userID)
		}
		now := s.now().UTC()
		archived = *state.CurrentItinerary
		archived.Status = models.ItineraryArchived
		archived.ArchivedAt = &now

		state.ArchivedItineraries = append(state.ArchivedItineraries, archived)
		if over := len(state.ArchivedItineraries) - MaxArchivedItineraries; over > 0 {
			state.ArchivedItineraries = append([]models.Itinerary(nil), state.ArchivedItineraries[over:]...)
		}
		state.CurrentItinerary = nil
		state.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Archived itinerary", "user_id", userID, "itinerary_id", archived.ID)
	return &archived, nil
}

// ConfirmBooking records a confirmed booking. The payment status is confirmed when payment
// details are supplied and pending otherwise.
func (s *Service) ConfirmBooking(ctx context.Context, userID string, spec BookingSpec) (*models.Booking, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if !spec.Type.Valid() {
		return nil, apperr.Validation("unknown booking type %q", spec.Type)
	}

	now := s.now().UTC()
	b := models.Booking{
		BookingID:     fmt.Sprintf("%s_%s", spec.Type, strings.ReplaceAll(uuid.NewString(), "-", "")[:12]),
		Type:          spec.Type,
		Status:        models.BookingConfirmed,
		Details:       spec.Details,
		PaymentStatus: "pending",
		CreatedAt:     now,
	}
	if len(spec.PaymentDetails) > 0 {
		b.PaymentStatus = "confirmed"
	}
	if b.Type == models.BookingFlight {
		if _, err := b.Flight(); err != nil {
			return nil, apperr.Validation("%v", err)
		}
	}

	err := s.update(ctx, userID, true, func(state *models.UserState) error {
		state.Bookings = append(state.Bookings, b)
		state.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Confirmed booking", "user_id", userID, "booking_id", b.BookingID, "type", b.Type)
	return &b, nil
}

// CancelBooking marks a booking cancelled. Cancelling twice keeps the first timestamp.
func (s *Service) CancelBooking(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(bookingID) == "" {
		return nil, apperr.Validation("booking_id is required")
	}

	var cancelled models.Booking
	err := s.update(ctx, userID, false, func(state *models.UserState) error {
		i := state.FindBooking(bookingID)
		if i < 0 {
			return apperr.NotFound("booking", bookingID)
		}
		b := &state.Bookings[i]
		if b.Status != models.BookingCancelled {
			now := s.now().UTC()
			b.Status = models.BookingCancelled
			b.CancelledAt = &now
			state.UpdatedAt = now
		}
		cancelled = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Cancelled booking", "user_id", userID, "booking_id", bookingID)
	return &cancelled, nil
}

// ListBookings returns the user's bookings. Unknown users have none.
func (s *Service) ListBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	state, err := s.load(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return []models.Booking{}, nil
	}
	if err != nil {
		return nil, err
	}
	if state.Bookings == nil {
		return []models.Booking{}, nil
	}
	return state.Bookings, nil
}

// DefaultDays builds a plan per trip day starting at the itinerary's start date.
func DefaultDays(it *models.Itinerary) []models.DayPlan {
	start, err := models.ParseTimestamp(it.StartDate)
	if err != nil {
		return nil
	}
	where := it.PrimaryDestination()
	days := make([]models.DayPlan, 0, it.DurationDays)
	for d := 1; d <= it.DurationDays; d++ {
		days = append(days, models.DayPlan{
			Day:   d,
			Date:  start.AddDate(0, 0, d-1).Format("2006-01-02"),
			Title: fmt.Sprintf("Day %d in %s", d, where),
			Activities: []string{
				"Morning Exploration",
				"Afternoon Activities",
				"Dinner and Evening",
			},
		})
	}
	return days
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperr.Validation("user_id is required")
	}
	return nil
}

func (s *Service) load(ctx context.Context, userID string) (*models.UserState, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	state, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		return nil, apperr.Persistence(fmt.Errorf("failed to load user state: %w", err))
	}
	return state, nil
}

// update applies fn to the latest state and saves it, retrying on version conflicts.
func (s *Service) update(ctx context.Context, userID string, createIfMissing bool, fn func(*models.UserState) error) error {
	var err error
	for attempt := 1; attempt <= updateAttempts; attempt++ {
		var state *models.UserState
		state, err = s.store.Get(ctx, userID)
		switch {
		case errors.Is(err, apperr.ErrNotFound) && createIfMissing:
			state = models.NewUserState(userID)
		case errors.Is(err, apperr.ErrNotFound):
			return apperr.NotFound("user", userID)
		case err != nil:
			return apperr.Persistence(fmt.Errorf("failed to load user state: %w", err))
		}

		if err := fn(state); err != nil {
			return err
		}
		err = s.store.Put(ctx, state)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			if errors.Is(err, apperr.ErrValidation) {
				return err
			}
			return apperr.Persistence(err)
		}
		slog.Debug("Retrying trip update after conflict", "user_id", userID, "attempt", attempt)
	}
	return err
}
