package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// FlightStatusSource reports live flight status. A nil result means no status is known.
type FlightStatusSource interface {
	Fetch(ctx context.Context, carrier, number, date string) *models.FlightStatus
}

// FlightEvaluator emits check-in, departure and gate-change alerts for confirmed flights.
type FlightEvaluator struct {
	status FlightStatusSource
	rules  *Set
}

// NewFlightEvaluator creates the evaluator. status may be nil, which disables gate checks.
func NewFlightEvaluator(status FlightStatusSource, rules *Set) *FlightEvaluator {
	return &FlightEvaluator{status: status, rules: rules}
}

// Evaluate inspects each booking against the time until its departure.
func (e *FlightEvaluator) Evaluate(ctx context.Context, bookings []models.Booking, now time.Time) ([]models.Alert, error) {
	cfg := e.rules.Current().Flight
	var alerts []models.Alert

	for _, b := range bookings {
		if err := ctx.Err(); err != nil {
			return alerts, err
		}
		if !b.IsConfirmedFlight() {
			continue
		}
		details, err := b.Flight()
		if err != nil {
			slog.Debug("Skipping flight with undecodable details", "booking_id", b.BookingID, "error", err)
			continue
		}
		departure, err := details.Departure()
		if err != nil {
			continue
		}
		diff := departure.Sub(now)
		flight := details.DisplayNumber()

		switch {
		case cfg.CheckIn.Contains(diff):
			alerts = append(alerts, models.Alert{
				AlertID:        models.AlertID(models.AlertFlightCheckin, b.BookingID),
				Type:           models.AlertFlightCheckin,
				Priority:       3,
				Title:          "Flight Check-in Available",
				Message:        fmt.Sprintf("Check-in is now available for your flight %s", flight),
				BookingID:      b.BookingID,
				Date:           details.DepartureDate,
				ActionRequired: true,
				CreatedAt:      now,
				Source:         models.SourceFlight,
			})
		case cfg.Departure.Contains(diff):
			alerts = append(alerts, models.Alert{
				AlertID:        models.AlertID(models.AlertDepartureReminder, b.BookingID),
				Type:           models.AlertDepartureReminder,
				Priority:       4,
				Title:          "Upcoming Flight Departure",
				Message:        fmt.Sprintf("Your flight %s departs in approximately %.1f hours", flight, diff.Hours()),
				BookingID:      b.BookingID,
				Date:           details.DepartureDate,
				ActionRequired: false,
				CreatedAt:      now,
				Source:         models.SourceFlight,
			})
		}

		if cfg.GateWatch.Contains(diff) {
			if a, ok := e.gateChange(ctx, b, details, departure, now); ok {
				alerts = append(alerts, a)
			}
		}
	}
	return alerts, nil
}

// gateChange compares the reported gate with the one recorded on the booking. Bookings
// without a recorded gate have no baseline and never produce an alert, and synthetic
// status is never trusted as a gate report.
func (e *FlightEvaluator) gateChange(ctx context.Context, b models.Booking, d *models.FlightDetails, departure, now time.Time) (models.Alert, bool) {
	if e.status == nil || d.Gate == "" {
		return models.Alert{}, false
	}
	carrier, number := d.CarrierAndNumber()
	st := e.status.Fetch(ctx, carrier, number, departure.UTC().Format("2006-01-02"))
	if st == nil || st.Source == models.SourceMock || st.Gate == "" || strings.EqualFold(st.Gate, d.Gate) {
		return models.Alert{}, false
	}

	return models.Alert{
		AlertID:        models.AlertID(models.AlertGateChange, b.BookingID, st.Gate),
		Type:           models.AlertGateChange,
		Priority:       5,
		Title:          "Gate Change Alert",
		Message:        fmt.Sprintf("Gate change for flight %s. New gate: %s", d.DisplayNumber(), st.Gate),
		BookingID:      b.BookingID,
		Date:           d.DepartureDate,
		ActionRequired: true,
		CreatedAt:      now,
		Source:         models.SourceFlight,
	}, true
}
