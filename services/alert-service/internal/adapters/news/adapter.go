// Package news finds travel-relevant news for a destination and ranks it by relevance.
package news

import (
	"context"
	"fmt"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/upstream"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// DefaultDaysBack is the search window used when a caller asks for none.
const DefaultDaysBack = 7

// LiveSource is a news provider.
type LiveSource interface {
	TravelNews(ctx context.Context, location string, daysBack int) (*models.NewsResult, *apperr.UpstreamError)
}

// Synthetic serves a fixed set of benign articles about the location.
type Synthetic struct {
	now func() time.Time
}

// NewSynthetic creates the synthetic news source.
func NewSynthetic() *Synthetic {
	return &Synthetic{now: time.Now}
}

// TravelNews always succeeds and tags its output as mock.
func (s *Synthetic) TravelNews(location string) *models.NewsResult {
	now := s.now().UTC()
	ago := func(d time.Duration) string { return now.Add(-d).Format(time.RFC3339) }

	articles := []models.NewsArticle{
		{
			Title:          fmt.Sprintf("New Flight Routes to %s Announced", location),
			Description:    fmt.Sprintf("Major airline announces new direct flights to %s, improving connectivity for travelers.", location),
			URL:            "https://example.com/news1",
			Source:         "Travel Weekly",
			PublishedAt:    ago(2 * time.Hour),
			RelevanceScore: 0.9,
			Category:       models.CategoryTransportation,
		},
		{
			Title:          fmt.Sprintf("Tourism in %s Shows Strong Recovery", location),
			Description:    fmt.Sprintf("Latest statistics show tourism numbers in %s are bouncing back.", location),
			URL:            "https://example.com/news2",
			Source:         "Tourism Today",
			PublishedAt:    ago(6 * time.Hour),
			RelevanceScore: 0.7,
			Category:       models.CategoryTourism,
		},
		{
			Title:          fmt.Sprintf("Weather Alert: Heavy Rain Expected in %s", location),
			Description:    fmt.Sprintf("Meteorologists warn of heavy rainfall in %s region this week.", location),
			URL:            "https://example.com/news3",
			Source:         "Weather Central",
			PublishedAt:    ago(time.Hour),
			RelevanceScore: 0.8,
			Category:       models.CategoryWeather,
		},
	}
	return &models.NewsResult{
		Location:   location,
		Articles:   articles,
		TotalFound: len(articles),
		Source:     models.SourceMock,
		Timestamp:  now,
	}
}

// Adapter is the news source used by the rules engine.
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
	if synth == nil {
		synth = NewSynthetic()
	}
	return &Adapter{live: live, synth: synth, counter: counter}
}

// TravelNews returns ranked news for location. It never fails.
func (a *Adapter) TravelNews(ctx context.Context, location string, daysBack int) *models.NewsResult {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	if a.live == nil {
		return a.synth.TravelNews(location)
	}

	res, uerr := a.live.TravelNews(ctx, location, daysBack)
	if uerr != nil {
		upstream.LogFallback("news", uerr, a.counter, "location", location)
		return a.synth.TravelNews(location)
	}
	return res
}
