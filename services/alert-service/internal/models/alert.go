// Package models defines the typed records stored per user and exchanged between
// adapters, evaluators, the aggregator and the dispatcher.
package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AlertType enumerates the alerts the engine can produce.
type AlertType string

const (
	AlertFlightCheckin     AlertType = "flight_checkin_reminder"
	AlertDepartureReminder AlertType = "departure_reminder"
	AlertGateChange        AlertType = "gate_change"
	AlertSevereWeather     AlertType = "severe_weather"
	AlertWeatherAdvisory   AlertType = "weather_advisory"
	AlertTravelAdvisory    AlertType = "travel_advisory"
	AlertDocumentExpiry    AlertType = "document_expiry"
	AlertCustom            AlertType = "custom"
)

// Evaluator tags carried in Alert.Source.
const (
	SourceFlight   = "flight"
	SourceWeather  = "weather"
	SourceNews     = "news"
	SourceDocument = "document"
	SourceCustom   = "custom"
)

// Priority bounds. Higher is more urgent.
const (
	MinPriority = 1
	MaxPriority = 5
)

// alertNamespace seeds the name-based UUIDs used as alert identities.
var alertNamespace = uuid.MustParse("8d3b2f4e-7c1a-4e59-9b6d-2a0f5c8e1d37")

// Alert is one actionable item in a user's alert set.
type Alert struct {
	AlertID        string    `json:"alert_id"`
	Type           AlertType `json:"type"`
	Priority       int       `json:"priority"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	BookingID      string    `json:"booking_id,omitempty"`
	Location       string    `json:"location,omitempty"`
	Country        string    `json:"country,omitempty"`
	Date           string    `json:"date,omitempty"`
	Document       string    `json:"document,omitempty"`
	URL            string    `json:"url,omitempty"`
	Publisher      string    `json:"publisher,omitempty"`
	ActionRequired bool      `json:"action_required"`
	CreatedAt      time.Time `json:"created_at"`
	Source         string    `json:"source"`
}

// AlertID derives a stable identifier from an alert's type and identifying parts, so the
// same condition keeps its ID across refreshes and dismissals stay attached to it.
func AlertID(t AlertType, parts ...string) string {
	key := string(t) + "|" + strings.ToLower(strings.Join(parts, "|"))
	return uuid.NewSHA1(alertNamespace, []byte(key)).String()
}

// SortByPriority orders alerts by descending priority, keeping emission order for ties.
func SortByPriority(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Priority > alerts[j].Priority
	})
}

// CustomAlert is a user-authored alert. It survives refresh cycles.
type CustomAlert struct {
	AlertID        string     `json:"alert_id"`
	Type           AlertType  `json:"type"`
	Priority       int        `json:"priority"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	TriggerDate    *time.Time `json:"trigger_date,omitempty"`
	ActionRequired bool       `json:"action_required"`
	CreatedAt      time.Time  `json:"created_at"`
	UserCreated    bool       `json:"user_created"`
}

// AsAlert projects a custom alert into the common Alert shape.
func (c CustomAlert) AsAlert() Alert {
	a := Alert{
		AlertID:        c.AlertID,
		Type:           AlertCustom,
		Priority:       c.Priority,
		Title:          c.Title,
		Message:        c.Message,
		ActionRequired: c.ActionRequired,
		CreatedAt:      c.CreatedAt,
		Source:         SourceCustom,
	}
	if c.TriggerDate != nil {
		a.Date = c.TriggerDate.UTC().Format(time.RFC3339)
	}
	return a
}

// DismissedAlert records that a user dismissed an alert.
type DismissedAlert struct {
	AlertID     string    `json:"alert_id"`
	DismissedAt time.Time `json:"dismissed_at"`
}

// AlertSet is the result of one refresh.
type AlertSet struct {
	UserID      string    `json:"user_id"`
	Alerts      []Alert   `json:"alerts"`
	Count       int       `json:"count"`
	LastUpdated time.Time `json:"last_updated"`
	Persisted   bool      `json:"persisted"`
}
