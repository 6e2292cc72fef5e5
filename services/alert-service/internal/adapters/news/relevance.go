package news

import (
	"sort"
	"strings"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// MaxArticles is how many ranked articles a result keeps.
const MaxArticles = 10

var (
	travelKeywords   = []string{"travel", "tourism", "airport", "flight", "hotel", "border", "visa", "embassy", "security", "alert", "warning", "advisory"}
	priorityKeywords = []string{"security alert", "travel warning", "embassy", "border closure"}
	mediumKeywords   = []string{"flight", "airport", "hotel", "tourism"}
)

var categoryKeywords = []struct {
	category models.NewsCategory
	words    []string
}{
	{models.CategorySecurity, []string{"security", "alert", "warning", "embassy"}},
	{models.CategoryTransportation, []string{"flight", "airline", "airport"}},
	{models.CategoryWeather, []string{"weather", "storm", "hurricane", "flood"}},
	{models.CategoryAccommodation, []string{"hotel", "accommodation", "booking"}},
	{models.CategoryTourism, []string{"tourism", "attraction", "festival"}},
}

// RawArticle is an article as received from a provider, before filtering and scoring.
type RawArticle struct {
	Title       string
	Description string
	URL         string
	Source      string
	PublishedAt string
}

func (a RawArticle) text() (string, string) {
	return strings.ToLower(a.Title), strings.ToLower(a.Description)
}

func containsAny(title, desc string, words []string) bool {
	for _, w := range words {
		if strings.Contains(title, w) || strings.Contains(desc, w) {
			return true
		}
	}
	return false
}

// IsTravelRelevant reports whether the article mentions location and a travel keyword.
func IsTravelRelevant(a RawArticle, location string) bool {
	title, desc := a.text()
	loc := strings.ToLower(location)
	mentioned := strings.Contains(title, loc) || strings.Contains(desc, loc)
	return mentioned && containsAny(title, desc, travelKeywords)
}

// Score rates an article's relevance to location in [0, 1].
func Score(a RawArticle, location string, now time.Time) float64 {
	title, desc := a.text()
	loc := strings.ToLower(location)

	score := 0.0
	if strings.Contains(title, loc) {
		score += 0.5
	}
	if strings.Contains(desc, loc) {
		score += 0.3
	}
	if containsAny(title, desc, priorityKeywords) {
		score += 0.4
	}
	if containsAny(title, desc, mediumKeywords) {
		score += 0.2
	}

	if published, err := models.ParseTimestamp(a.PublishedAt); err == nil {
		age := now.Sub(published)
		switch {
		case age < 6*time.Hour:
			score += 0.2
		case age < 24*time.Hour:
			score += 0.1
		}
	}
	return min(score, 1.0)
}

// Categorize assigns the first matching category, or general.
func Categorize(a RawArticle) models.NewsCategory {
	title, desc := a.text()
	for _, c := range categoryKeywords {
		if containsAny(title, desc, c.words) {
			return c.category
		}
	}
	return models.CategoryGeneral
}

// Rank filters raw articles to travel-relevant ones, scores and categorizes them, and
// returns them best first along with how many passed the filter.
func Rank(raw []RawArticle, location string, now time.Time) ([]models.NewsArticle, int) {
	out := make([]models.NewsArticle, 0, len(raw))
	for _, a := range raw {
		if !IsTravelRelevant(a, location) {
			continue
		}
		out = append(out, models.NewsArticle{
			Title:          a.Title,
			Description:    a.Description,
			URL:            a.URL,
			Source:         a.Source,
			PublishedAt:    a.PublishedAt,
			RelevanceScore: Score(a, location, now),
			Category:       Categorize(a),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelevanceScore > out[j].RelevanceScore
	})

	total := len(out)
	if len(out) > MaxArticles {
		out = out[:MaxArticles]
	}
	return out, total
}
