package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// ForecastSource returns a multi-day forecast for a location.
type ForecastSource interface {
	Forecast(ctx context.Context, location string, days int) *models.Forecast
}

// WeatherEvaluator emits severe-weather and weather-advisory alerts per forecast day.
type WeatherEvaluator struct {
	forecasts ForecastSource
	rules     *Set
}

// NewWeatherEvaluator creates the evaluator.
func NewWeatherEvaluator(forecasts ForecastSource, rules *Set) *WeatherEvaluator {
	return &WeatherEvaluator{forecasts: forecasts, rules: rules}
}

// Evaluate scans the forecast of every destination that has a location and arrival date.
// Each forecast day yields at most one alert.
func (e *WeatherEvaluator) Evaluate(ctx context.Context, destinations []models.Destination, now time.Time) ([]models.Alert, error) {
	cfg := e.rules.Current().Weather
	var alerts []models.Alert

	for _, dest := range destinations {
		if err := ctx.Err(); err != nil {
			return alerts, err
		}
		if dest.Location == "" || dest.ArrivalDate == "" {
			continue
		}
		forecast := e.forecasts.Forecast(ctx, dest.Location, cfg.ForecastDays)
		if forecast == nil {
			continue
		}

		for _, day := range forecast.Days {
			desc := day.Conditions.Description
			lower := strings.ToLower(desc)
			if desc == "" {
				desc = "N/A"
			}

			switch {
			case matchesAny(lower, cfg.Severe):
				alerts = append(alerts, models.Alert{
					AlertID:        models.AlertID(models.AlertSevereWeather, dest.Location, day.Date),
					Type:           models.AlertSevereWeather,
					Priority:       4,
					Title:          fmt.Sprintf("Severe Weather Alert - %s", dest.Location),
					Message:        fmt.Sprintf("Severe weather expected in %s on %s: %s", dest.Location, day.Date, desc),
					Location:       dest.Location,
					Country:        dest.Country,
					Date:           day.Date,
					ActionRequired: true,
					CreatedAt:      now,
					Source:         models.SourceWeather,
				})
			case matchesAny(lower, cfg.Moderate):
				alerts = append(alerts, models.Alert{
					AlertID:        models.AlertID(models.AlertWeatherAdvisory, dest.Location, day.Date),
					Type:           models.AlertWeatherAdvisory,
					Priority:       2,
					Title:          fmt.Sprintf("Weather Advisory - %s", dest.Location),
					Message:        fmt.Sprintf("Weather conditions may affect travel in %s on %s: %s", dest.Location, day.Date, desc),
					Location:       dest.Location,
					Country:        dest.Country,
					Date:           day.Date,
					ActionRequired: false,
					CreatedAt:      now,
					Source:         models.SourceWeather,
				})
			}
		}
	}
	return alerts, nil
}

// matchesAny is a case-insensitive substring match; text must already be lowercased.
func matchesAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(text, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
