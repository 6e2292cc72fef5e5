package models

import (
	"fmt"
	"time"
)

// Preferences holds a user's notification settings.
type Preferences struct {
	// Notifications maps an alert type to whether it may be sent. Absent types are enabled.
	Notifications map[string]bool `json:"notifications,omitempty"`
	Email         string          `json:"email,omitempty"`
	Phone         string          `json:"phone,omitempty"`
}

// NotificationsEnabled reports whether alerts of type t may be sent.
func (p Preferences) NotificationsEnabled(t AlertType) bool {
	enabled, ok := p.Notifications[string(t)]
	return !ok || enabled
}

// UserState is the full per-user document held by the store. Version is owned by the
// store and incremented on every successful write.
type UserState struct {
	UserID              string           `json:"user_id"`
	Version             int64            `json:"version"`
	CurrentItinerary    *Itinerary       `json:"current_itinerary,omitempty"`
	ArchivedItineraries []Itinerary      `json:"archived_itineraries,omitempty"`
	Bookings            []Booking        `json:"bookings"`
	Preferences         Preferences      `json:"preferences"`
	Documents           []Document       `json:"documents"`
	CurrentAlerts       []Alert          `json:"current_alerts"`
	DismissedAlerts     []DismissedAlert `json:"dismissed_alerts"`
	CustomAlerts        []CustomAlert    `json:"custom_alerts"`
	LastAlertCheck      *time.Time       `json:"last_alert_check,omitempty"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// NewUserState returns an empty state for userID that has never been stored.
func NewUserState(userID string) *UserState {
	return &UserState{UserID: userID}
}

// Destinations returns the current itinerary's destinations, if any.
func (s *UserState) Destinations() []Destination {
	if s.CurrentItinerary == nil {
		return nil
	}
	return s.CurrentItinerary.Destinations
}

// HasAlert reports whether alertID is one of the current or custom alerts.
func (s *UserState) HasAlert(alertID string) bool {
	for _, a := range s.CurrentAlerts {
		if a.AlertID == alertID {
			return true
		}
	}
	for _, c := range s.CustomAlerts {
		if c.AlertID == alertID {
			return true
		}
	}
	return false
}

// IsDismissed reports whether alertID was dismissed.
func (s *UserState) IsDismissed(alertID string) bool {
	for _, d := range s.DismissedAlerts {
		if d.AlertID == alertID {
			return true
		}
	}
	return false
}

// FindBooking returns the index of the booking with the given ID, or -1.
func (s *UserState) FindBooking(bookingID string) int {
	for i, b := range s.Bookings {
		if b.BookingID == bookingID {
			return i
		}
	}
	return -1
}

// Validate checks the typed invariants enforced at the store boundary.
func (s *UserState) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	for _, b := range s.Bookings {
		if !b.Type.Valid() {
			return fmt.Errorf("booking %s has unknown type %q", b.BookingID, b.Type)
		}
		if !b.Status.Valid() {
			return fmt.Errorf("booking %s has unknown status %q", b.BookingID, b.Status)
		}
	}
	for _, a := range s.CurrentAlerts {
		if a.Priority < MinPriority || a.Priority > MaxPriority {
			return fmt.Errorf("alert %s has priority %d outside %d-%d", a.AlertID, a.Priority, MinPriority, MaxPriority)
		}
	}
	for _, c := range s.CustomAlerts {
		if c.Priority < MinPriority || c.Priority > MaxPriority {
			return fmt.Errorf("custom alert %s has priority %d outside %d-%d", c.AlertID, c.Priority, MinPriority, MaxPriority)
		}
	}
	if it := s.CurrentItinerary; it != nil && it.StartDate != "" && it.EndDate != "" {
		days, err := durationDays(it.StartDate, it.EndDate)
		if err != nil {
			return fmt.Errorf("itinerary %s: %w", it.ID, err)
		}
		if days != it.DurationDays {
			return fmt.Errorf("itinerary %s has duration_days %d, want %d", it.ID, it.DurationDays, days)
		}
	}
	return nil
}
