// Package processor drives alert refreshes from the refresh topic and dispatches the
// high-priority results.
package processor

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/events"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/store"
)

// MessageReader reads refresh requests from a message queue.
type MessageReader interface {
	// ReadMessage reads the next message and returns the parsed RefreshRequested event.
	// Returns the raw message for offset tracking.
	ReadMessage(ctx context.Context) (*events.RefreshRequested, *kafka.Message, error)

	// CommitMessage commits the offset for the given message.
	CommitMessage(ctx context.Context, msg *kafka.Message) error

	// Close closes the reader and releases resources.
	Close() error
}

// Refresher recomputes a user's alerts.
type Refresher interface {
	Refresh(ctx context.Context, userID string) (*models.AlertSet, error)
}

// StateReader loads user state for dismissal and preference checks.
type StateReader interface {
	Get(ctx context.Context, userID string) (*models.UserState, error)
}

// Dispatcher sends one alert using already loaded preferences.
type Dispatcher interface {
	NotifyWithPreferences(ctx context.Context, userID string, alert models.Alert, prefs models.Preferences) bool
	Channels() []string
}

// Ledger remembers delivered notifications.
type Ledger interface {
	WasNotified(ctx context.Context, userID, alertID string) (bool, error)
	RecordNotification(ctx context.Context, n store.Notification) (bool, error)
}
