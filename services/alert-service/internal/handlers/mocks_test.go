package handlers

import (
	"context"
	"time"

	"github.com/afikmenashe/travel-alerting/pkg/metrics"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/documents"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/aggregator"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/trips"
)

// mockAlerts implements AlertService. Unset callbacks return zero-value successes.
type mockAlerts struct {
	RefreshFn     func(ctx context.Context, userID string) (*models.AlertSet, error)
	ListAlertsFn  func(ctx context.Context, userID string, includeDismissed bool) ([]models.Alert, error)
	CreateFn      func(ctx context.Context, userID string, spec aggregator.CustomAlertSpec) (*models.CustomAlert, error)
	DismissFn     func(ctx context.Context, userID, alertID string) (*models.DismissedAlert, error)
	FindAlertFn   func(ctx context.Context, userID, alertID string) (*models.Alert, *models.UserState, error)
	ListDismissed []bool
}

func (m *mockAlerts) Refresh(ctx context.Context, userID string) (*models.AlertSet, error) {
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, userID)
	}
	return &models.AlertSet{UserID: userID, Alerts: []models.Alert{}, Persisted: true}, nil
}

func (m *mockAlerts) ListAlerts(ctx context.Context, userID string, includeDismissed bool) ([]models.Alert, error) {
	m.ListDismissed = append(m.ListDismissed, includeDismissed)
	if m.ListAlertsFn != nil {
		return m.ListAlertsFn(ctx, userID, includeDismissed)
	}
	return []models.Alert{}, nil
}

func (m *mockAlerts) CreateCustomAlert(ctx context.Context, userID string, spec aggregator.CustomAlertSpec) (*models.CustomAlert, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userID, spec)
	}
	return &models.CustomAlert{AlertID: "custom-1", Type: models.AlertCustom, Title: spec.Title, UserCreated: true}, nil
}

func (m *mockAlerts) DismissAlert(ctx context.Context, userID, alertID string) (*models.DismissedAlert, error) {
	if m.DismissFn != nil {
		return m.DismissFn(ctx, userID, alertID)
	}
	return &models.DismissedAlert{AlertID: alertID, DismissedAt: time.Now()}, nil
}

func (m *mockAlerts) FindAlert(ctx context.Context, userID, alertID string) (*models.Alert, *models.UserState, error) {
	if m.FindAlertFn != nil {
		return m.FindAlertFn(ctx, userID, alertID)
	}
	return &models.Alert{AlertID: alertID, Priority: 5}, models.NewUserState(userID), nil
}

// mockTrips implements TripService.
type mockTrips struct {
	CreateFn  func(ctx context.Context, userID string, spec trips.ItinerarySpec) (*models.Itinerary, error)
	GetFn     func(ctx context.Context, userID string) (*models.Itinerary, error)
	UpdateFn  func(ctx context.Context, userID string, patch trips.ItineraryPatch) (*models.Itinerary, error)
	ArchiveFn func(ctx context.Context, userID string) (*models.Itinerary, error)
	ConfirmFn func(ctx context.Context, userID string, spec trips.BookingSpec) (*models.Booking, error)
	CancelFn  func(ctx context.Context, userID, bookingID string) (*models.Booking, error)
	ListFn    func(ctx context.Context, userID string) ([]models.Booking, error)
}

func (m *mockTrips) CreateItinerary(ctx context.Context, userID string, spec trips.ItinerarySpec) (*models.Itinerary, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userID, spec)
	}
	return &models.Itinerary{Title: spec.Title}, nil
}

func (m *mockTrips) GetItinerary(ctx context.Context, userID string) (*models.Itinerary, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID)
	}
	return &models.Itinerary{Title: "Trip"}, nil
}

func (m *mockTrips) UpdateItinerary(ctx context.Context, userID string, patch trips.ItineraryPatch) (*models.Itinerary, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, userID, patch)
	}
	return &models.Itinerary{Title: "Trip"}, nil
}

func (m *mockTrips) ArchiveItinerary(ctx context.Context, userID string) (*models.Itinerary, error) {
	if m.ArchiveFn != nil {
		return m.ArchiveFn(ctx, userID)
	}
	return &models.Itinerary{Title: "Trip"}, nil
}

func (m *mockTrips) ConfirmBooking(ctx context.Context, userID string, spec trips.BookingSpec) (*models.Booking, error) {
	if m.ConfirmFn != nil {
		return m.ConfirmFn(ctx, userID, spec)
	}
	return &models.Booking{BookingID: "flight_1", Type: spec.Type, Status: models.BookingConfirmed}, nil
}

func (m *mockTrips) CancelBooking(ctx context.Context, userID, bookingID string) (*models.Booking, error) {
	if m.CancelFn != nil {
		return m.CancelFn(ctx, userID, bookingID)
	}
	return &models.Booking{BookingID: bookingID, Status: models.BookingCancelled}, nil
}

func (m *mockTrips) ListBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID)
	}
	return []models.Booking{}, nil
}

// mockNotifier records sent alert IDs and reports Result.
type mockNotifier struct {
	Result bool
	Sent   []string
}

func (m *mockNotifier) NotifyWithPreferences(ctx context.Context, userID string, alert models.Alert, prefs models.Preferences) bool {
	if m.Result {
		m.Sent = append(m.Sent, alert.AlertID)
	}
	return m.Result
}

// mockStates serves fixed states; unknown users are not found.
type mockStates struct {
	States map[string]*models.UserState
	Err    error
}

func (m *mockStates) Get(ctx context.Context, userID string) (*models.UserState, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if s, ok := m.States[userID]; ok {
		return s, nil
	}
	return nil, apperr.NotFound("user", userID)
}

// mockDocs echoes the recorded documents as the fallback listing.
type mockDocs struct {
	Recorded []models.Document
}

func (m *mockDocs) List(ctx context.Context, userID string, recorded []models.Document) *models.DocumentListing {
	m.Recorded = recorded
	return &models.DocumentListing{Documents: recorded, Source: "fallback"}
}

// mockUploader captures the last upload.
type mockUploader struct {
	Req  documents.UploadRequest
	Body string
	Err  error
}

func (m *mockUploader) Upload(ctx context.Context, req documents.UploadRequest) (*models.Document, error) {
	m.Req = req
	if req.Body != nil {
		buf := make([]byte, 512)
		n, _ := req.Body.Read(buf)
		m.Body = string(buf[:n])
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.Document{
		Key:          documents.Prefix(req.UserID) + "abc.pdf",
		Filename:     req.Filename,
		DocumentType: documents.Classify(req.Filename),
		ExpiryDate:   req.ExpiryDate,
	}, nil
}

// mockMetricsReader serves fixed service metrics.
type mockMetricsReader struct {
	Services map[string]*metrics.ServiceMetrics
	Err      error
}

func (m *mockMetricsReader) GetServiceMetrics(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error) {
	if s, ok := m.Services[serviceName]; ok {
		return s, nil
	}
	return nil, apperr.NotFound("service", serviceName)
}

func (m *mockMetricsReader) GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]*metrics.ServiceMetrics, len(m.Services))
	for k, v := range m.Services {
		out[k] = v
	}
	return out, nil
}

// countingMetrics counts custom metrics.
type countingMetrics struct {
	NoOpMetrics
	Custom map[string]int
}

func (m *countingMetrics) IncrementCustom(name string) {
	if m.Custom == nil {
		m.Custom = make(map[string]int)
	}
	m.Custom[name]++
}
