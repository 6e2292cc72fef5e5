package models

import (
	"fmt"
	"time"
)

// ItineraryStatus is the itinerary lifecycle state.
type ItineraryStatus string

const (
	ItineraryDraft     ItineraryStatus = "draft"
	ItineraryConfirmed ItineraryStatus = "confirmed"
	ItineraryArchived  ItineraryStatus = "archived"
)

// Destination is one stop of an itinerary.
type Destination struct {
	Location      string `json:"location"`
	Country       string `json:"country,omitempty"`
	ArrivalDate   string `json:"arrival_date,omitempty"`
	DepartureDate string `json:"departure_date,omitempty"`
}

// NewsQuery is the term used to look up news for the destination.
func (d Destination) NewsQuery() string {
	if d.Country != "" {
		return d.Country
	}
	return d.Location
}

// DayPlan is the plan for one day of a trip.
type DayPlan struct {
	Day        int      `json:"day"`
	Date       string   `json:"date"`
	Title      string   `json:"title"`
	Activities []string `json:"activities"`
	Notes      string   `json:"notes,omitempty"`
}

// Itinerary is a user's trip plan.
type Itinerary struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Destinations []Destination   `json:"destinations"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	DurationDays int             `json:"duration_days"`
	Days         []DayPlan       `json:"days"`
	Travelers    int             `json:"travelers"`
	Status       ItineraryStatus `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	ArchivedAt   *time.Time      `json:"archived_at,omitempty"`
}

// SetDates replaces the trip dates and recomputes DurationDays.
// The itinerary is left untouched when either date is invalid.
func (it *Itinerary) SetDates(start, end string) error {
	days, err := durationDays(start, end)
	if err != nil {
		return err
	}
	it.StartDate = start
	it.EndDate = end
	it.DurationDays = days
	return nil
}

// RecomputeDuration derives DurationDays from the current dates.
func (it *Itinerary) RecomputeDuration() error {
	days, err := durationDays(it.StartDate, it.EndDate)
	if err != nil {
		return err
	}
	it.DurationDays = days
	return nil
}

// MaxItineraryDays bounds the length of a single itinerary.
const MaxItineraryDays = 366

// durationDays counts both the first and the last day of the trip.
func durationDays(start, end string) (int, error) {
	s, err := ParseTimestamp(start)
	if err != nil {
		return 0, fmt.Errorf("invalid start_date: %w", err)
	}
	e, err := ParseTimestamp(end)
	if err != nil {
		return 0, fmt.Errorf("invalid end_date: %w", err)
	}
	if e.Before(s) {
		return 0, fmt.Errorf("end_date %s is before start_date %s", end, start)
	}
	days := DaysBetween(s, e) + 1
	if days > MaxItineraryDays {
		return 0, fmt.Errorf("itinerary spans %d days, at most %d are allowed", days, MaxItineraryDays)
	}
	return days, nil
}

// PrimaryDestination is the first destination's location, used for titles.
func (it *Itinerary) PrimaryDestination() string {
	if it == nil || len(it.Destinations) == 0 {
		return ""
	}
	return it.Destinations[0].Location
}
