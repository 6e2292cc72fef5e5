package rules

import (
	"context"
	"sync"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// FakeFlightStatus returns a fixed status and records lookups.
type FakeFlightStatus struct {
	mu     sync.Mutex
	Status *models.FlightStatus
	Calls  []string
}

func (f *FakeFlightStatus) Fetch(ctx context.Context, carrier, number, date string) *models.FlightStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, carrier+number+"@"+date)
	return f.Status
}

// FakeForecasts returns canned forecasts keyed by location.
type FakeForecasts struct {
	ByLocation map[string]*models.Forecast
	Days       []int
}

func (f *FakeForecasts) Forecast(ctx context.Context, location string, days int) *models.Forecast {
	f.Days = append(f.Days, days)
	return f.ByLocation[location]
}

// FakeNews returns canned news keyed by query.
type FakeNews struct {
	ByQuery map[string]*models.NewsResult
	Queries []string
}

func (f *FakeNews) TravelNews(ctx context.Context, location string, daysBack int) *models.NewsResult {
	f.Queries = append(f.Queries, location)
	return f.ByQuery[location]
}

// FakeDocuments returns the recorded documents unless Documents is set.
type FakeDocuments struct {
	Documents []models.Document
}

func (f *FakeDocuments) List(ctx context.Context, userID string, recorded []models.Document) *models.DocumentListing {
	if f.Documents != nil {
		return &models.DocumentListing{Documents: f.Documents, Source: "s3"}
	}
	return &models.DocumentListing{Documents: recorded, Source: models.SourceMock}
}

func forecastOf(days ...string) *models.Forecast {
	f := &models.Forecast{Source: models.SourceMock}
	for i, d := range days {
		f.Days = append(f.Days, models.ForecastDay{
			Date:       "2026-10-1" + string(rune('5'+i)),
			Conditions: models.Conditions{Description: d},
		})
	}
	return f
}
