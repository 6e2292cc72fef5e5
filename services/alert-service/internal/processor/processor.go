package processor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/events"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/store"
)

// Processor consumes refresh requests, refreshes the user's alerts and notifies the user
// about new alerts at or above the minimum priority.
type Processor struct {
	reader      MessageReader
	refresher   Refresher
	states      StateReader
	dispatcher  Dispatcher
	ledger      Ledger
	minPriority int
	metrics     MetricsRecorder
}

// NewProcessor creates a new refresh processor with no-op metrics.
func NewProcessor(reader MessageReader, refresher Refresher, states StateReader, dispatcher Dispatcher, ledger Ledger, minPriority int) *Processor {
	return NewProcessorWithMetrics(reader, refresher, states, dispatcher, ledger, minPriority, nil)
}

// NewProcessorWithMetrics creates a processor with the provided metrics recorder.
// If m is nil, a no-op implementation is used.
func NewProcessorWithMetrics(reader MessageReader, refresher Refresher, states StateReader, dispatcher Dispatcher, ledger Ledger, minPriority int, m MetricsRecorder) *Processor {
	if m == nil {
		m = &NoOpMetrics{}
	}
	return &Processor{
		reader:      reader,
		refresher:   refresher,
		states:      states,
		dispatcher:  dispatcher,
		ledger:      ledger,
		minPriority: minPriority,
		metrics:     m,
	}
}

// ProcessRefreshes continuously reads refresh requests and handles them until ctx is done.
// An offset is committed only after the refresh was persisted or failed permanently, so a
// crash in between leads to redelivery.
func (p *Processor) ProcessRefreshes(ctx context.Context) error {
	slog.Info("Starting refresh processing loop", "notify_min_priority", p.minPriority)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Refresh processing loop stopped")
			return nil
		default:
			req, msg, err := p.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if msg == nil {
					slog.Error("Failed to read refresh request", "error", err)
					continue
				}
				// Undecodable messages can never succeed; skip past them.
				slog.Error("Dropping malformed refresh request",
					"partition", msg.Partition,
					"offset", msg.Offset,
					"error", err,
				)
				p.metrics.RecordError()
				p.metrics.IncrementCustom("refresh_requests_malformed")
				p.commit(ctx, msg, "")
				continue
			}

			p.metrics.RecordReceived()

			if !p.processMessage(ctx, req) {
				continue
			}
			p.commit(ctx, msg, req.UserID)
		}
	}
}

// commit records the offset. A failed commit is logged; the offset is committed again
// with the next successful message.
func (p *Processor) commit(ctx context.Context, msg *kafka.Message, userID string) {
	if err := p.reader.CommitMessage(ctx, msg); err != nil {
		slog.Error("Failed to commit offset",
			"user_id", userID,
			"offset", msg.Offset,
			"error", err,
		)
	}
}

// processMessage refreshes one user. It returns true when the message should be committed.
func (p *Processor) processMessage(ctx context.Context, req *events.RefreshRequested) bool {
	start := time.Now()

	slog.Debug("Received refresh request",
		"user_id", req.UserID,
		"reason", req.Reason,
		"requested_at", req.RequestedAt,
	)

	set, err := p.refresher.Refresh(ctx, req.UserID)
	switch {
	case err == nil:
	case apperr.IsPermanent(err):
		slog.Warn("Skipping refresh request that cannot succeed", "user_id", req.UserID, "error", err)
		p.metrics.RecordError()
		return true
	case errors.Is(err, apperr.ErrConflict):
		// Another writer stored a newer state; the computed alerts are still current.
		slog.Info("Refresh raced a concurrent update", "user_id", req.UserID)
	default:
		slog.Error("Refresh failed", "user_id", req.UserID, "error", err)
		p.metrics.RecordError()
		return false
	}

	if set == nil || len(set.Alerts) == 0 {
		p.metrics.RecordProcessed(time.Since(start))
		return true
	}

	state, err := p.states.Get(ctx, req.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		p.metrics.RecordProcessed(time.Since(start))
		return true
	}
	if err != nil {
		slog.Error("Failed to load user state for notifications", "user_id", req.UserID, "error", err)
		p.metrics.RecordError()
		return false
	}

	sent := p.dispatch(ctx, state, set.Alerts)
	p.metrics.RecordProcessed(time.Since(start))

	slog.Info("Processed refresh request",
		"user_id", req.UserID,
		"alerts", len(set.Alerts),
		"notified", sent,
		"duration", time.Since(start),
	)
	return true
}

// dispatch notifies the user about each eligible alert once. Delivery failures are logged
// and counted by the dispatcher; they do not hold back the offset.
func (p *Processor) dispatch(ctx context.Context, state *models.UserState, alerts []models.Alert) int {
	sent := 0
	for _, alert := range alerts {
		if alert.Priority < p.minPriority || state.IsDismissed(alert.AlertID) {
			continue
		}

		if p.ledger != nil {
			done, err := p.ledger.WasNotified(ctx, state.UserID, alert.AlertID)
			if err != nil {
				slog.Warn("Failed to check notification ledger", "user_id", state.UserID, "alert_id", alert.AlertID, "error", err)
			}
			if done {
				p.metrics.IncrementCustom("notifications_deduplicated")
				continue
			}
		}

		if !p.dispatcher.NotifyWithPreferences(ctx, state.UserID, alert, state.Preferences) {
			p.metrics.RecordError()
			continue
		}
		sent++
		p.metrics.RecordPublished()

		if p.ledger != nil {
			_, err := p.ledger.RecordNotification(ctx, store.Notification{
				UserID:     state.UserID,
				AlertID:    alert.AlertID,
				AlertType:  string(alert.Type),
				Priority:   alert.Priority,
				Transports: p.dispatcher.Channels(),
			})
			if err != nil {
				slog.Warn("Failed to record notification", "user_id", state.UserID, "alert_id", alert.AlertID, "error", err)
			}
		}
	}
	return sent
}
