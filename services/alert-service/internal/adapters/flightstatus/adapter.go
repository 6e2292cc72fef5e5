// Package flightstatus reports the live status of a flight, falling back to synthetic data
// when the provider is unconfigured or unreachable.
package flightstatus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/upstream"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/synthetic"
)

// LiveSource is a provider of real flight status.
type LiveSource interface {
	Status(ctx context.Context, carrier, number, date string) (*models.FlightStatus, *apperr.UpstreamError)
}

var syntheticStatuses = []string{"On Time", "Delayed", "Boarding", "Departed", "Arrived"}
var syntheticTerminals = []string{"1", "2", "3", "4"}

// Synthetic generates plausible flight status.
type Synthetic struct {
	src synthetic.Source
	now func() time.Time
}

// NewSynthetic creates a synthetic source drawing from src.
func NewSynthetic(src synthetic.Source) *Synthetic {
	return &Synthetic{src: src, now: time.Now}
}

// Status always succeeds and tags its output as mock.
func (s *Synthetic) Status(carrier, number, date string) *models.FlightStatus {
	if date == "" {
		date = s.now().UTC().Format("2006-01-02")
	}
	st := &models.FlightStatus{
		CarrierCode:  carrier,
		FlightNumber: number,
		Date:         date,
		Status:       synthetic.Pick(s.src, syntheticStatuses),
		Departure:    date + "T08:00:00",
		Arrival:      date + "T11:30:00",
		Gate:         fmt.Sprintf("A%d", synthetic.Between(s.src, 1, 50)),
		Terminal:     synthetic.Pick(s.src, syntheticTerminals),
		Source:       models.SourceMock,
	}
	if synthetic.Chance(s.src, 0.3) {
		st.DelayMinutes = synthetic.Between(s.src, 0, 60)
	}
	return st
}

// Adapter is the flight-status source used by the rules engine.
type Adapter struct {
	live    LiveSource
	synth   *Synthetic
	counter upstream.Counter
}

// NewAdapter wires the sources. live may be nil, in which case only synthetic data is served.
func NewAdapter(live LiveSource, synth *Synthetic, counter upstream.Counter) *Adapter {
	if counter == nil {
		counter = upstream.NoOpCounter
	}
	return &Adapter{live: live, synth: synth, counter: counter}
}

// Fetch returns the status of a flight. It never fails: upstream errors are logged and
// answered with synthetic data. A nil result means the live provider has no such flight.
func (a *Adapter) Fetch(ctx context.Context, carrier, number, date string) *models.FlightStatus {
	if a.live == nil {
		return a.synth.Status(carrier, number, date)
	}

	st, uerr := a.live.Status(ctx, carrier, number, date)
	if uerr != nil {
		upstream.LogFallback("flightstatus", uerr, a.counter, "carrier", carrier, "flight_number", number)
		return a.synth.Status(carrier, number, date)
	}
	if st == nil {
		slog.Debug("Flight not found upstream", "carrier", carrier, "flight_number", number, "date", date)
	}
	return st
}
