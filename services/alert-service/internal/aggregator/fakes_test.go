package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// FakeStore is an in-memory Store with version checks.
type FakeStore struct {
	mu     sync.Mutex
	states map[string][]byte
	GetErr error
	PutErr error
	Puts   int
}

func NewFakeStore(states ...*models.UserState) *FakeStore {
	s := &FakeStore{states: make(map[string][]byte)}
	for _, st := range states {
		b, _ := json.Marshal(st)
		s.states[st.UserID] = b
	}
	return s
}

func (s *FakeStore) Get(ctx context.Context, userID string) (*models.UserState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	b, ok := s.states[userID]
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	var st models.UserState
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *FakeStore) Put(ctx context.Context, state *models.UserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	var current int64
	if b, ok := s.states[state.UserID]; ok {
		var st models.UserState
		_ = json.Unmarshal(b, &st)
		current = st.Version
	}
	if current != state.Version {
		return &apperr.ConflictError{UserID: state.UserID, ExpectedVersion: state.Version, ActualVersion: current}
	}
	state.Version++
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.states[state.UserID] = b
	s.Puts++
	return nil
}

func (s *FakeStore) State(userID string) *models.UserState {
	st, _ := s.Get(context.Background(), userID)
	return st
}

// FakeBookingEvaluator returns fixed alerts, an error, or panics.
type FakeBookingEvaluator struct {
	Alerts []models.Alert
	Err    error
	Panic  bool
}

func (f *FakeBookingEvaluator) Evaluate(ctx context.Context, bookings []models.Booking, now time.Time) ([]models.Alert, error) {
	if f.Panic {
		panic("boom")
	}
	return f.Alerts, f.Err
}

// FakeDestinationEvaluator returns fixed alerts or an error.
type FakeDestinationEvaluator struct {
	Alerts []models.Alert
	Err    error
	Panic  bool
}

func (f *FakeDestinationEvaluator) Evaluate(ctx context.Context, destinations []models.Destination, now time.Time) ([]models.Alert, error) {
	if f.Panic {
		panic("boom")
	}
	return f.Alerts, f.Err
}

// FakeDocumentEvaluator returns fixed alerts or an error.
type FakeDocumentEvaluator struct {
	Alerts []models.Alert
	Err    error
}

func (f *FakeDocumentEvaluator) Evaluate(ctx context.Context, userID string, recorded []models.Document, now time.Time) ([]models.Alert, error) {
	return f.Alerts, f.Err
}

// FakeMetrics counts custom metrics.
type FakeMetrics struct {
	mu      sync.Mutex
	Custom  map[string]uint64
	Errors  int
	Process int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{Custom: make(map[string]uint64)}
}

func (m *FakeMetrics) RecordReceived() {}

func (m *FakeMetrics) RecordProcessed(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Process++
}

func (m *FakeMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

func (m *FakeMetrics) IncrementCustom(name string) { m.AddCustom(name, 1) }

func (m *FakeMetrics) AddCustom(name string, value uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Custom[name] += value
}

func (m *FakeMetrics) Get(name string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Custom[name]
}

var errEvaluator = errors.New("provider exploded")

func alert(id string, priority int, source string) models.Alert {
	return models.Alert{AlertID: id, Type: models.AlertCustom, Priority: priority, Title: id, Source: source}
}
