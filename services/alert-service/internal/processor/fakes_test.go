package processor

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/events"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/store"
)

// Delivery is one scripted ReadMessage result.
type Delivery struct {
	Req    *events.RefreshRequested
	Offset int64
	Err    error
	NoMsg  bool
}

// FakeReader replays deliveries and cancels the loop once they run out.
type FakeReader struct {
	Deliveries []Delivery
	Cancel     context.CancelFunc
	CommitErr  error
	Committed  []int64
	index      int
}

func (f *FakeReader) ReadMessage(ctx context.Context) (*events.RefreshRequested, *kafka.Message, error) {
	if f.index >= len(f.Deliveries) {
		f.Cancel()
		return nil, nil, context.Canceled
	}
	d := f.Deliveries[f.index]
	f.index++
	if d.NoMsg {
		return nil, nil, d.Err
	}
	return d.Req, &kafka.Message{Offset: d.Offset}, d.Err
}

func (f *FakeReader) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	if f.CommitErr != nil {
		return f.CommitErr
	}
	f.Committed = append(f.Committed, msg.Offset)
	return nil
}

func (f *FakeReader) Close() error {
	return nil
}

// FakeRefresher returns a scripted set and error per user.
type FakeRefresher struct {
	Sets  map[string]*models.AlertSet
	Errs  map[string]error
	Calls []string
}

func (f *FakeRefresher) Refresh(ctx context.Context, userID string) (*models.AlertSet, error) {
	f.Calls = append(f.Calls, userID)
	return f.Sets[userID], f.Errs[userID]
}

// FakeStates serves fixed user states.
type FakeStates struct {
	States map[string]*models.UserState
	Err    error
}

func (f *FakeStates) Get(ctx context.Context, userID string) (*models.UserState, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	s, ok := f.States[userID]
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	return s, nil
}

// FakeDispatcher records dispatched alerts. Alerts listed in Fail are reported as failed.
type FakeDispatcher struct {
	Sent []string
	Fail map[string]bool
}

func (f *FakeDispatcher) NotifyWithPreferences(ctx context.Context, userID string, alert models.Alert, prefs models.Preferences) bool {
	if f.Fail[alert.AlertID] {
		return false
	}
	f.Sent = append(f.Sent, alert.AlertID)
	return true
}

func (f *FakeDispatcher) Channels() []string { return []string{"fake"} }

// FakeMetrics counts recorded metrics.
type FakeMetrics struct {
	mu        sync.Mutex
	Received  int
	Processed int
	Published int
	Errors    int
	Custom    map[string]int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{Custom: make(map[string]int)}
}

func (m *FakeMetrics) RecordReceived() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Received++
}

func (m *FakeMetrics) RecordProcessed(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Processed++
}

func (m *FakeMetrics) RecordPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published++
}

func (m *FakeMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

func (m *FakeMetrics) IncrementCustom(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Custom[name]++
}

var _ Ledger = (*store.Memory)(nil)

func refresh(userID string, offset int64) Delivery {
	return Delivery{Req: events.NewRefreshRequested(userID, "test", time.Now()), Offset: offset}
}

func alert(id string, priority int) models.Alert {
	return models.Alert{AlertID: id, Type: models.AlertGateChange, Priority: priority, Title: id}
}
