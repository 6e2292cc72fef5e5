// Package notifier turns alerts into notifications and hands them to a transport.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/transport"
)

const (
	// TopicPrefix is prepended to the user ID to form the notification topic.
	TopicPrefix = "travel-alerts-"
	// MaxSMSRunes bounds the SMS rendition.
	MaxSMSRunes = 160
	// DefaultSubject is used for alerts without a title.
	DefaultSubject = "Travel Alert"
)

// StateReader loads user state for preference lookups.
type StateReader interface {
	Get(ctx context.Context, userID string) (*models.UserState, error)
}

// Counter receives notification counters.
type Counter interface {
	IncrementCustom(name string)
}

type noopCounter struct{}

func (noopCounter) IncrementCustom(string) {}

// Notifier sends single alerts to users, honoring their notification preferences.
type Notifier struct {
	states    StateReader
	transport transport.Transport
	metrics   Counter
}

// New creates a notifier. A nil counter disables metrics.
func New(states StateReader, t transport.Transport, metrics Counter) *Notifier {
	if metrics == nil {
		metrics = noopCounter{}
	}
	return &Notifier{states: states, transport: t, metrics: metrics}
}

// Topic returns the notification topic for userID.
func Topic(userID string) string {
	return TopicPrefix + userID
}

// Channels names the transports notifications go through.
func (n *Notifier) Channels() []string {
	if f, ok := n.transport.(interface{ Names() []string }); ok {
		return f.Names()
	}
	return []string{n.transport.Name()}
}

// Notify loads the user's preferences and sends the alert. It reports false only when the
// transport failed; an opted-out alert type counts as handled.
func (n *Notifier) Notify(ctx context.Context, userID string, alert models.Alert) bool {
	var prefs models.Preferences
	state, err := n.states.Get(ctx, userID)
	switch {
	case err == nil:
		prefs = state.Preferences
	case errors.Is(err, apperr.ErrNotFound):
	default:
		slog.Warn("Failed to load preferences, using defaults", "user_id", userID, "error", err)
	}
	return n.NotifyWithPreferences(ctx, userID, alert, prefs)
}

// NotifyWithPreferences sends the alert using already loaded preferences.
func (n *Notifier) NotifyWithPreferences(ctx context.Context, userID string, alert models.Alert, prefs models.Preferences) bool {
	if !prefs.NotificationsEnabled(alert.Type) {
		slog.Info("Notification suppressed by preferences",
			"user_id", userID,
			"alert_id", alert.AlertID,
			"type", alert.Type,
		)
		n.metrics.IncrementCustom("notifications_suppressed")
		return true
	}

	topic := Topic(userID)
	if err := n.transport.Publish(ctx, topic, BuildPayload(userID, alert, prefs)); err != nil {
		slog.Error("Failed to send notification",
			"user_id", userID,
			"alert_id", alert.AlertID,
			"topic", topic,
			"transport", n.transport.Name(),
			"error", err,
		)
		n.metrics.IncrementCustom("notifications_failed")
		return false
	}

	slog.Info("Sent notification", "user_id", userID, "alert_id", alert.AlertID, "topic", topic)
	n.metrics.IncrementCustom("notifications_sent")
	return true
}

// BuildPayload renders alert for every channel.
func BuildPayload(userID string, alert models.Alert, prefs models.Preferences) *transport.Payload {
	subject := alert.Title
	if subject == "" {
		subject = DefaultSubject
	}
	return &transport.Payload{
		Default:   alert.Message,
		Email:     fmt.Sprintf("Travel Alert: %s\n\n%s", alert.Title, alert.Message),
		SMS:       truncateRunes(alert.Title, MaxSMSRunes),
		Subject:   subject,
		Recipient: prefs.Email,
		UserID:    userID,
		AlertID:   alert.AlertID,
		AlertType: string(alert.Type),
		Priority:  alert.Priority,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
