package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// NotifiedTTL is how long a Redis notification record is kept.
const NotifiedTTL = 30 * 24 * time.Hour

// DefaultNotifiedPrefix namespaces notification records in Redis.
const DefaultNotifiedPrefix = "travel:notified:"

// Notification records that an alert was delivered to a user.
type Notification struct {
	UserID     string
	AlertID    string
	AlertType  string
	Priority   int
	Transports []string
}

// NotificationLedger remembers which alerts a user has already been notified about, so
// redelivered refresh requests do not notify twice.
type NotificationLedger interface {
	WasNotified(ctx context.Context, userID, alertID string) (bool, error)
	// RecordNotification stores n and reports whether it was new.
	RecordNotification(ctx context.Context, n Notification) (bool, error)
}

const notificationsSchema = `
	CREATE TABLE IF NOT EXISTS notifications (
		notification_id BIGSERIAL PRIMARY KEY,
		user_id         TEXT NOT NULL,
		alert_id        TEXT NOT NULL,
		alert_type      TEXT NOT NULL,
		priority        INT NOT NULL,
		transports      TEXT[] NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, alert_id)
	)
`

// WasNotified reports whether a notification row exists for the alert.
func (db *DB) WasNotified(ctx context.Context, userID, alertID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications WHERE user_id = $1 AND alert_id = $2
		)
	`
	var exists bool
	if err := db.conn.QueryRowContext(ctx, query, userID, alertID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return exists, nil
}

// RecordNotification inserts a notification row. A second insert for the same
// (user_id, alert_id) is a no-op.
func (db *DB) RecordNotification(ctx context.Context, n Notification) (bool, error) {
	query := `
		INSERT INTO notifications (user_id, alert_id, alert_type, priority, transports)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, alert_id) DO NOTHING
		RETURNING notification_id
	`
	transports := n.Transports
	if transports == nil {
		transports = []string{}
	}
	var id int64
	err := db.conn.QueryRowContext(ctx, query,
		n.UserID,
		n.AlertID,
		n.AlertType,
		n.Priority,
		pq.Array(transports),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug("Notification already recorded", "user_id", n.UserID, "alert_id", n.AlertID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert notification: %w", err)
	}
	slog.Debug("Recorded notification", "notification_id", id, "user_id", n.UserID, "alert_id", n.AlertID)
	return true, nil
}

// WasNotified reports whether the alert is in the in-memory ledger.
func (m *Memory) WasNotified(ctx context.Context, userID, alertID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notified[notifiedKey(userID, alertID)], nil
}

// RecordNotification adds the alert to the in-memory ledger.
func (m *Memory) RecordNotification(ctx context.Context, n Notification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := notifiedKey(n.UserID, n.AlertID)
	if m.notified[key] {
		return false, nil
	}
	m.notified[key] = true
	return true, nil
}

// WasNotified reports whether a notification key exists.
func (r *Redis) WasNotified(ctx context.Context, userID, alertID string) (bool, error) {
	n, err := r.client.Exists(ctx, DefaultNotifiedPrefix+notifiedKey(userID, alertID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return n > 0, nil
}

// RecordNotification sets the notification key if absent. Records expire after NotifiedTTL.
func (r *Redis) RecordNotification(ctx context.Context, n Notification) (bool, error) {
	ok, err := r.client.SetNX(ctx, DefaultNotifiedPrefix+notifiedKey(n.UserID, n.AlertID), n.AlertType, NotifiedTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record notification: %w", err)
	}
	return ok, nil
}

func notifiedKey(userID, alertID string) string {
	return userID + ":" + alertID
}
