// Package weather provides normalized multi-day forecasts, falling back to synthetic data
// when no provider is configured or the provider fails.
package weather

import (
	"context"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/upstream"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/synthetic"
)

// DefaultDays is the forecast length used when a caller asks for none.
const DefaultDays = 5

// LiveSource is a forecast provider.
type LiveSource interface {
	Forecast(ctx context.Context, location string, days int) (*models.Forecast, *apperr.UpstreamError)
}

var syntheticConditions = []string{
	"Clear", "Partly Cloudy", "Cloudy", "Light Rain",
	"Heavy Rain", "Sunny", "Overcast", "Thunderstorm",
}

// Synthetic generates plausible forecasts.
type Synthetic struct {
	src synthetic.Source
	now func() time.Time
}

// NewSynthetic creates a synthetic source drawing from src.
func NewSynthetic(src synthetic.Source) *Synthetic {
	return &Synthetic{src: src, now: time.Now}
}

// Forecast always succeeds and tags its output as mock.
func (s *Synthetic) Forecast(location string, days int) *models.Forecast {
	now := s.now().UTC()
	out := &models.Forecast{
		Location:  models.Location{Name: location, Country: "Unknown"},
		Days:      make([]models.ForecastDay, 0, days),
		Alerts:    []models.WeatherWarning{},
		Source:    models.SourceMock,
		Timestamp: now,
	}
	for i := 0; i < days; i++ {
		out.Days = append(out.Days, models.ForecastDay{
			Date: now.AddDate(0, 0, i).Format("2006-01-02"),
			Temperature: models.Temperature{
				Min: float64(synthetic.Between(s.src, 5, 20)),
				Max: float64(synthetic.Between(s.src, 20, 35)),
				Avg: float64(synthetic.Between(s.src, 10, 28)),
			},
			Conditions: models.Conditions{
				Description: synthetic.Pick(s.src, syntheticConditions),
				Humidity:    float64(synthetic.Between(s.src, 40, 85)),
				WindSpeed:   float64(synthetic.Between(s.src, 5, 20)),
			},
			Precipitation: synthetic.Round1(synthetic.Uniform(s.src, 0, 10)),
		})
	}
	return out
}

// Adapter is the weather source used by the rules engine.
type Adapter struct {
	live    LiveSource
	synth   *Synthetic
	counter upstream.Counter
}

// NewAdapter wires the sources. live may be nil.
func NewAdapter(live LiveSource, synth *Synthetic, counter upstream.Counter) *Adapter {
	if counter == nil {
		counter = upstream.NoOpCounter
	}
	return &Adapter{live: live, synth: synth, counter: counter}
}

// Forecast returns a forecast for location. It never fails.
func (a *Adapter) Forecast(ctx context.Context, location string, days int) *models.Forecast {
	if days <= 0 {
		days = DefaultDays
	}
	if a.live == nil {
		return a.synth.Forecast(location, days)
	}

	f, uerr := a.live.Forecast(ctx, location, days)
	if uerr != nil {
		upstream.LogFallback("weather", uerr, a.counter, "location", location)
		return a.synth.Forecast(location, days)
	}
	return f
}
