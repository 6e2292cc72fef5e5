package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// NewsSource returns ranked travel news for a place.
type NewsSource interface {
	TravelNews(ctx context.Context, location string, daysBack int) *models.NewsResult
}

// NewsEvaluator emits travel-advisory alerts from the top news for each destination.
type NewsEvaluator struct {
	news  NewsSource
	rules *Set
}

// NewNewsEvaluator creates the evaluator.
func NewNewsEvaluator(news NewsSource, rules *Set) *NewsEvaluator {
	return &NewsEvaluator{news: news, rules: rules}
}

// Evaluate looks up news by each destination's country, or its location when the country
// is unknown, and flags top articles that mention an advisory keyword.
func (e *NewsEvaluator) Evaluate(ctx context.Context, destinations []models.Destination, now time.Time) ([]models.Alert, error) {
	cfg := e.rules.Current().News
	var alerts []models.Alert
	seen := make(map[string]bool)

	for _, dest := range destinations {
		if err := ctx.Err(); err != nil {
			return alerts, err
		}
		if dest.Location == "" {
			continue
		}
		country := dest.NewsQuery()
		res := e.news.TravelNews(ctx, country, cfg.DaysBack)
		if res == nil {
			continue
		}

		articles := res.Articles
		if len(articles) > cfg.TopArticles {
			articles = articles[:cfg.TopArticles]
		}
		for _, art := range articles {
			text := strings.ToLower(art.Title + "\n" + art.Description)
			if !matchesAny(text, cfg.AdvisoryKeywords) {
				continue
			}
			ref := art.URL
			if ref == "" {
				ref = art.Title
			}
			id := models.AlertID(models.AlertTravelAdvisory, country, ref)
			if seen[id] {
				continue
			}
			seen[id] = true

			publisher := art.Source
			if publisher == "" {
				publisher = "Unknown"
			}
			alerts = append(alerts, models.Alert{
				AlertID:        id,
				Type:           models.AlertTravelAdvisory,
				Priority:       3,
				Title:          fmt.Sprintf("Travel Advisory - %s", country),
				Message:        fmt.Sprintf("Travel news for %s: %s...", country, truncateRunes(art.Title, cfg.MessageTitleLen)),
				Location:       dest.Location,
				Country:        country,
				URL:            art.URL,
				Publisher:      publisher,
				ActionRequired: true,
				CreatedAt:      now,
				Source:         models.SourceNews,
			})
		}
	}
	return alerts, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
