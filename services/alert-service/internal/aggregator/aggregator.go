// Package aggregator runs the alert evaluators for a user, merges and ranks their output,
// and manages the user's custom and dismissed alerts.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

const (
	// MaxCustomAlerts is how many custom alerts a user keeps; older ones are dropped.
	MaxCustomAlerts = 100
	// MaxDismissedAlerts is how many dismissals a user keeps; older ones are dropped.
	MaxDismissedAlerts = 200
	// mutateAttempts bounds the read-modify-write retries of user-initiated changes.
	mutateAttempts = 3
)

// Aggregator orchestrates alert refreshes and alert bookkeeping for users.
type Aggregator struct {
	store   Store
	eval    Evaluators
	metrics MetricsRecorder
	now     func() time.Time
}

// NewAggregator creates an aggregator with no-op metrics.
func NewAggregator(store Store, eval Evaluators) *Aggregator {
	return NewAggregatorWithMetrics(store, eval, nil)
}

// NewAggregatorWithMetrics creates an aggregator with the provided metrics recorder.
// If m is nil, a no-op implementation is used.
func NewAggregatorWithMetrics(store Store, eval Evaluators, m MetricsRecorder) *Aggregator {
	if m == nil {
		m = &NoOpMetrics{}
	}
	return &Aggregator{
		store:   store,
		eval:    eval,
		metrics: m,
		now:     time.Now,
	}
}

// Refresh recomputes the user's alerts and persists them as the current set.
//
// An unknown user yields an empty set and nothing is written. When the write fails the
// computed set is still returned, with Persisted false, alongside a ConflictError or an
// ErrPersistence error.
func (a *Aggregator) Refresh(ctx context.Context, userID string) (*models.AlertSet, error) {
	start := time.Now()
	a.metrics.RecordReceived()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}

	now := a.now().UTC()
	state, err := a.store.Get(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		slog.Debug("Refresh for unknown user", "user_id", userID)
		return &models.AlertSet{UserID: userID, Alerts: []models.Alert{}, LastUpdated: now}, nil
	}
	if err != nil {
		a.metrics.RecordError()
		return nil, apperr.Persistence(fmt.Errorf("failed to load user state: %w", err))
	}

	alerts := a.evaluate(ctx, state, now)

	set := &models.AlertSet{
		UserID:      userID,
		Alerts:      alerts,
		Count:       len(alerts),
		LastUpdated: now,
	}

	state.CurrentAlerts = alerts
	state.LastAlertCheck = &now
	state.UpdatedAt = now
	if err := a.store.Put(ctx, state); err != nil {
		a.metrics.RecordError()
		if errors.Is(err, apperr.ErrConflict) {
			a.metrics.IncrementCustom("store_conflicts")
			slog.Warn("Refresh lost a concurrent update", "user_id", userID, "error", err)
			return set, err
		}
		slog.Error("Failed to persist refreshed alerts", "user_id", userID, "error", err)
		return set, apperr.Persistence(err)
	}
	set.Persisted = true

	a.metrics.IncrementCustom("refresh_completed")
	a.metrics.AddCustom("alerts_generated", uint64(len(alerts)))
	a.metrics.RecordProcessed(time.Since(start))

	slog.Info("Refreshed alerts",
		"user_id", userID,
		"count", len(alerts),
		"duration", time.Since(start),
	)
	return set, nil
}

// evaluate runs every evaluator concurrently. A failing or panicking evaluator contributes
// no alerts. The result keeps evaluator order, drops repeated IDs and is sorted by priority.
func (a *Aggregator) evaluate(ctx context.Context, state *models.UserState, now time.Time) []models.Alert {
	destinations := state.Destinations()
	steps := []struct {
		name string
		run  func() ([]models.Alert, error)
	}{
		{models.SourceFlight, func() ([]models.Alert, error) {
			if a.eval.Flight == nil {
				return nil, nil
			}
			return a.eval.Flight.Evaluate(ctx, state.Bookings, now)
		}},
		{models.SourceWeather, func() ([]models.Alert, error) {
			if a.eval.Weather == nil {
				return nil, nil
			}
			return a.eval.Weather.Evaluate(ctx, destinations, now)
		}},
		{models.SourceNews, func() ([]models.Alert, error) {
			if a.eval.News == nil {
				return nil, nil
			}
			return a.eval.News.Evaluate(ctx, destinations, now)
		}},
		{models.SourceDocument, func() ([]models.Alert, error) {
			if a.eval.Documents == nil {
				return nil, nil
			}
			return a.eval.Documents.Evaluate(ctx, state.UserID, state.Documents, now)
		}},
	}

	results := make([][]models.Alert, len(steps))
	var g errgroup.Group
	for i, step := range steps {
		g.Go(func() error {
			results[i] = a.runIsolated(state.UserID, step.name, step.run)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]bool)
	merged := []models.Alert{}
	for _, rs := range results {
		for _, alert := range rs {
			if seen[alert.AlertID] {
				continue
			}
			seen[alert.AlertID] = true
			merged = append(merged, alert)
		}
	}
	models.SortByPriority(merged)
	return merged
}

func (a *Aggregator) runIsolated(userID, name string, run func() ([]models.Alert, error)) (alerts []models.Alert) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Evaluator panicked", "evaluator", name, "user_id", userID, "panic", r)
			a.metrics.IncrementCustom("evaluator_failed_" + name)
			alerts = nil
		}
	}()

	alerts, err := run()
	if err != nil {
		slog.Error("Evaluator failed", "evaluator", name, "user_id", userID, "error", err)
		a.metrics.IncrementCustom("evaluator_failed_" + name)
		return nil
	}
	return alerts
}

// CustomAlertSpec is the caller input for a custom alert.
type CustomAlertSpec struct {
	Title          string `json:"title"`
	Message        string `json:"message"`
	Priority       *int   `json:"priority,omitempty"`
	TriggerDate    string `json:"trigger_date,omitempty"`
	ActionRequired bool   `json:"action_required"`
}

// CreateCustomAlert adds a user-authored alert, creating the user's state if needed.
func (a *Aggregator) CreateCustomAlert(ctx context.Context, userID string, spec CustomAlertSpec) (*models.CustomAlert, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}
	if strings.TrimSpace(spec.Message) == "" {
		return nil, apperr.Validation("message is required")
	}
	priority := models.MinPriority
	if spec.Priority != nil {
		priority = *spec.Priority
	}
	if priority < models.MinPriority || priority > models.MaxPriority {
		return nil, apperr.Validation("priority must be between %d and %d, got %d", models.MinPriority, models.MaxPriority, priority)
	}
	var trigger *time.Time
	if strings.TrimSpace(spec.TriggerDate) != "" {
		ts, err := models.ParseTimestamp(spec.TriggerDate)
		if err != nil {
			return nil, apperr.Validation("invalid trigger_date: %v", err)
		}
		trigger = &ts
	}
	title := spec.Title
	if strings.TrimSpace(title) == "" {
		title = "Custom Alert"
	}

	now := a.now().UTC()
	alert := models.CustomAlert{
		AlertID:        uuid.NewString(),
		Type:           models.AlertCustom,
		Priority:       priority,
		Title:          title,
		Message:        spec.Message,
		TriggerDate:    trigger,
		ActionRequired: spec.ActionRequired,
		CreatedAt:      now,
		UserCreated:    true,
	}

	err := a.mutate(ctx, userID, true, func(state *models.UserState) (bool, error) {
		state.CustomAlerts = append(state.CustomAlerts, alert)
		if over := len(state.CustomAlerts) - MaxCustomAlerts; over > 0 {
			state.CustomAlerts = append([]models.CustomAlert(nil), state.CustomAlerts[over:]...)
		}
		state.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Created custom alert", "user_id", userID, "alert_id", alert.AlertID, "priority", priority)
	return &alert, nil
}

// DismissAlert records that the user dismissed alertID. Dismissing twice returns the
// original record.
func (a *Aggregator) DismissAlert(ctx context.Context, userID, alertID string) (*models.DismissedAlert, error) {
	userID = strings.TrimSpace(userID)
	alertID = strings.TrimSpace(alertID)
	if userID == "" || alertID == "" {
		return nil, apperr.Validation("user_id and alert_id are required")
	}

	var record models.DismissedAlert
	err := a.mutate(ctx, userID, false, func(state *models.UserState) (bool, error) {
		if !state.HasAlert(alertID) {
			return false, apperr.NotFound("alert", alertID)
		}
		for _, d := range state.DismissedAlerts {
			if d.AlertID == alertID {
				record = d
				return false, nil
			}
		}
		record = models.DismissedAlert{AlertID: alertID, DismissedAt: a.now().UTC()}
		state.DismissedAlerts = append(state.DismissedAlerts, record)
		if over := len(state.DismissedAlerts) - MaxDismissedAlerts; over > 0 {
			state.DismissedAlerts = append([]models.DismissedAlert(nil), state.DismissedAlerts[over:]...)
		}
		state.UpdatedAt = record.DismissedAt
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Dismissed alert", "user_id", userID, "alert_id", alertID)
	return &record, nil
}

// ListAlerts returns the current and custom alerts ordered by priority. Dismissed alerts
// are left out unless includeDismissed is set. Unknown users have no alerts.
func (a *Aggregator) ListAlerts(ctx context.Context, userID string, includeDismissed bool) ([]models.Alert, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}

	state, err := a.store.Get(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return []models.Alert{}, nil
	}
	if err != nil {
		return nil, apperr.Persistence(fmt.Errorf("failed to load user state: %w", err))
	}

	out := make([]models.Alert, 0, len(state.CurrentAlerts)+len(state.CustomAlerts))
	for _, alert := range state.CurrentAlerts {
		if includeDismissed || !state.IsDismissed(alert.AlertID) {
			out = append(out, alert)
		}
	}
	for _, c := range state.CustomAlerts {
		if includeDismissed || !state.IsDismissed(c.AlertID) {
			out = append(out, c.AsAlert())
		}
	}
	models.SortByPriority(out)
	return out, nil
}

// FindAlert returns one of the user's current or custom alerts along with the user's state.
func (a *Aggregator) FindAlert(ctx context.Context, userID, alertID string) (*models.Alert, *models.UserState, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(alertID) == "" {
		return nil, nil, apperr.Validation("user_id and alert_id are required")
	}
	state, err := a.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, apperr.Persistence(fmt.Errorf("failed to load user state: %w", err))
	}
	for _, alert := range state.CurrentAlerts {
		if alert.AlertID == alertID {
			return &alert, state, nil
		}
	}
	for _, c := range state.CustomAlerts {
		if c.AlertID == alertID {
			alert := c.AsAlert()
			return &alert, state, nil
		}
	}
	return nil, nil, apperr.NotFound("alert", alertID)
}

// mutate applies fn to the user's latest state and writes it back, retrying when another
// writer got there first. fn reports whether it changed the state.
func (a *Aggregator) mutate(ctx context.Context, userID string, createIfMissing bool, fn func(*models.UserState) (bool, error)) error {
	var err error
	for attempt := 1; attempt <= mutateAttempts; attempt++ {
		var state *models.UserState
		state, err = a.store.Get(ctx, userID)
		switch {
		case errors.Is(err, apperr.ErrNotFound) && createIfMissing:
			state = models.NewUserState(userID)
		case errors.Is(err, apperr.ErrNotFound):
			return apperr.NotFound("user", userID)
		case err != nil:
			return apperr.Persistence(fmt.Errorf("failed to load user state: %w", err))
		}

		changed, ferr := fn(state)
		if ferr != nil || !changed {
			return ferr
		}

		err = a.store.Put(ctx, state)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return apperr.Persistence(err)
		}
		a.metrics.IncrementCustom("store_conflicts")
		slog.Debug("Retrying user state update after conflict", "user_id", userID, "attempt", attempt)
	}
	return err
}
