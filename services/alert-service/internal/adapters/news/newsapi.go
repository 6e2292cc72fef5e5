package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/upstream"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// DefaultNewsAPIURL is the NewsAPI.org base.
const DefaultNewsAPIURL = "https://newsapi.org/v2"

var queryKeywords = []string{"travel", "tourism", "airport", "airline", "flight", "hotel", "border", "visa", "embassy", "security alert"}

// NewsAPI searches NewsAPI.org's /everything endpoint.
type NewsAPI struct {
	client *upstream.Client
	base   string
	apiKey string
	now    func() time.Time
}

// NewNewsAPI returns nil when apiKey is empty.
func NewNewsAPI(baseURL, apiKey string, opts upstream.Options) *NewsAPI {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultNewsAPIURL
	}
	return &NewsAPI{
		client: upstream.New("newsapi", opts),
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		now:    time.Now,
	}
}

type everythingResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// BuildQuery returns the search expression for a location.
func BuildQuery(location string) string {
	return fmt.Sprintf("(%s) AND (%s)", location, strings.Join(queryKeywords, " OR "))
}

// TravelNews fetches articles from the last daysBack days and ranks them.
func (n *NewsAPI) TravelNews(ctx context.Context, location string, daysBack int) (*models.NewsResult, *apperr.UpstreamError) {
	now := n.now().UTC()
	query := url.Values{
		"q":        {BuildQuery(location)},
		"from":     {now.AddDate(0, 0, -daysBack).Format("2006-01-02")},
		"to":       {now.Format("2006-01-02")},
		"sortBy":   {"publishedAt"},
		"language": {"en"},
		"pageSize": {"20"},
	}
	headers := map[string]string{"X-Api-Key": n.apiKey}

	var resp everythingResponse
	if uerr := n.client.GetJSON(ctx, "everything", n.base+"/everything", query, headers, &resp); uerr != nil {
		return nil, uerr
	}
	if resp.Status == "error" {
		return nil, &apperr.UpstreamError{
			Provider: "newsapi",
			Op:       "everything",
			Err:      fmt.Errorf("%s: %s", resp.Code, resp.Message),
		}
	}

	raw := make([]RawArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		raw = append(raw, RawArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}
	articles, total := Rank(raw, location, now)
	return &models.NewsResult{
		Location:   location,
		Articles:   articles,
		TotalFound: total,
		Source:     "newsapi",
		Timestamp:  now,
	}, nil
}
