package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/transport/retry"
)

// webhookBody is the JSON posted to generic webhooks.
type webhookBody struct {
	Topic   string   `json:"topic"`
	Payload *Payload `json:"payload"`
	SentAt  string   `json:"sent_at"`
}

// slackBody is the Slack incoming-webhook message shape.
type slackBody struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color,omitempty"`
	Title  string       `json:"title,omitempty"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Webhook posts payloads as JSON to a fixed URL. With Slack set it posts a Slack
// incoming-webhook message instead.
type Webhook struct {
	url        string
	slack      bool
	httpClient *http.Client
	now        func() time.Time
}

// NewWebhook creates a generic JSON webhook transport. It returns nil for an empty URL.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	return newWebhook(url, timeout, false)
}

// NewSlack creates a Slack incoming-webhook transport. It returns nil for an empty URL.
func NewSlack(url string, timeout time.Duration) *Webhook {
	return newWebhook(url, timeout, true)
}

func newWebhook(url string, timeout time.Duration, slack bool) *Webhook {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:        url,
		slack:      slack,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Name returns the transport name.
func (w *Webhook) Name() string {
	if w.slack {
		return "slack"
	}
	return "webhook"
}

// Publish posts p to the endpoint.
func (w *Webhook) Publish(ctx context.Context, topic string, p *Payload) error {
	if !strings.HasPrefix(w.url, "http://") && !strings.HasPrefix(w.url, "https://") {
		return retry.Permanent(fmt.Errorf("invalid %s URL: must be an HTTP/HTTPS URL", w.Name()))
	}

	var body any = webhookBody{Topic: topic, Payload: p, SentAt: w.now().UTC().Format(time.RFC3339)}
	if w.slack {
		body = buildSlackBody(p)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", w.Name(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s notification to %s: %w", w.Name(), maskURL(w.url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &retry.StatusError{Endpoint: w.Name(), StatusCode: resp.StatusCode}
	}

	slog.Info("Sent notification", "transport", w.Name(), "topic", topic, "alert_id", p.AlertID)
	return nil
}

func buildSlackBody(p *Payload) slackBody {
	return slackBody{
		Text: p.Subject,
		Attachments: []slackAttachment{{
			Color: priorityColor(p.Priority),
			Title: p.Subject,
			Text:  p.Default,
			Fields: []slackField{
				{Title: "Priority", Value: fmt.Sprintf("%d", p.Priority), Short: true},
				{Title: "Type", Value: p.AlertType, Short: true},
			},
		}},
	}
}

func priorityColor(priority int) string {
	switch {
	case priority >= 5:
		return "danger"
	case priority >= 3:
		return "warning"
	default:
		return "good"
	}
}

// maskURL hides the secret tail of webhook URLs in logs and errors.
func maskURL(url string) string {
	if len(url) > 50 {
		return url[:30] + "..." + url[len(url)-10:]
	}
	return url
}
