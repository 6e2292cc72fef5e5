package email

import (
	"context"
	"log/slog"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/transport"
)

// Transport emails the payload to the recipient taken from the user's preferences.
type Transport struct {
	registry *Registry
	from     string
}

// NewTransport creates an email transport sending from the given address.
func NewTransport(registry *Registry, from string) *Transport {
	return &Transport{registry: registry, from: from}
}

// Name returns the transport name.
func (t *Transport) Name() string { return "email" }

// Publish sends the email rendition of p. Payloads without a recipient are skipped.
func (t *Transport) Publish(ctx context.Context, topic string, p *transport.Payload) error {
	if p.Recipient == "" {
		slog.Debug("Skipping email notification without recipient", "topic", topic, "alert_id", p.AlertID)
		return nil
	}
	return t.registry.Send(ctx, &Request{
		From:    t.from,
		To:      []string{p.Recipient},
		Subject: p.Subject,
		Body:    p.Email,
	})
}

var _ transport.Transport = (*Transport)(nil)
