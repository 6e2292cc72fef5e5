// Package transport delivers notification payloads to SNS, Kafka, email, webhooks and logs.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/transport/retry"
)

// Payload is one notification rendered for every channel.
type Payload struct {
	Default   string `json:"default"`
	Email     string `json:"email"`
	SMS       string `json:"sms"`
	Subject   string `json:"subject"`
	Recipient string `json:"recipient,omitempty"`

	UserID    string `json:"user_id"`
	AlertID   string `json:"alert_id"`
	AlertType string `json:"alert_type"`
	Priority  int    `json:"priority"`
}

// Transport publishes a payload to a named topic.
type Transport interface {
	Name() string
	Publish(ctx context.Context, topic string, p *Payload) error
}

// Fanout publishes to several transports concurrently, retrying transient failures per
// transport. A publish succeeds when at least one transport delivered it.
type Fanout struct {
	transports []Transport
	retry      retry.Config
}

// NewFanout creates a fanout over transports.
func NewFanout(cfg retry.Config, transports ...Transport) *Fanout {
	return &Fanout{transports: transports, retry: cfg}
}

// Name returns the transport name.
func (f *Fanout) Name() string {
	return "fanout"
}

// Publish delivers p through every transport.
func (f *Fanout) Publish(ctx context.Context, topic string, p *Payload) error {
	if len(f.transports) == 0 {
		return fmt.Errorf("no notification transports configured")
	}

	var (
		mu        sync.Mutex
		errs      []error
		delivered int
		g         errgroup.Group
	)
	for _, t := range f.transports {
		g.Go(func() error {
			err := retry.Do(ctx, f.retry, t.Name()+" publish", func(ctx context.Context) error {
				return t.Publish(ctx, topic, p)
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("Notification transport failed",
					"transport", t.Name(),
					"topic", topic,
					"alert_id", p.AlertID,
					"error", err,
				)
				errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
				return nil
			}
			delivered++
			return nil
		})
	}
	_ = g.Wait()

	if delivered == 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Names lists the fanned-out transports.
func (f *Fanout) Names() []string {
	names := make([]string, 0, len(f.transports))
	for _, t := range f.transports {
		names = append(names, t.Name())
	}
	return names
}

// Log writes payloads to the structured log. It is the development transport.
type Log struct{}

// Name returns the transport name.
func (Log) Name() string { return "log" }

// Publish logs p.
func (Log) Publish(ctx context.Context, topic string, p *Payload) error {
	slog.Info("Notification",
		"topic", topic,
		"user_id", p.UserID,
		"alert_id", p.AlertID,
		"priority", p.Priority,
		"subject", p.Subject,
		"message", p.Default,
	)
	return nil
}
