package handlers

import (
	"context"
	"time"

	"github.com/afikmenashe/travel-alerting/pkg/metrics"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/documents"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/aggregator"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/trips"
)

// AlertService is the alert engine surface the API exposes.
type AlertService interface {
	Refresh(ctx context.Context, userID string) (*models.AlertSet, error)
	ListAlerts(ctx context.Context, userID string, includeDismissed bool) ([]models.Alert, error)
	CreateCustomAlert(ctx context.Context, userID string, spec aggregator.CustomAlertSpec) (*models.CustomAlert, error)
	DismissAlert(ctx context.Context, userID, alertID string) (*models.DismissedAlert, error)
	FindAlert(ctx context.Context, userID, alertID string) (*models.Alert, *models.UserState, error)
}

// TripService manages itineraries and bookings.
type TripService interface {
	CreateItinerary(ctx context.Context, userID string, spec trips.ItinerarySpec) (*models.Itinerary, error)
	GetItinerary(ctx context.Context, userID string) (*models.Itinerary, error)
	UpdateItinerary(ctx context.Context, userID string, patch trips.ItineraryPatch) (*models.Itinerary, error)
	ArchiveItinerary(ctx context.Context, userID string) (*models.Itinerary, error)
	ConfirmBooking(ctx context.Context, userID string, spec trips.BookingSpec) (*models.Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID string) (*models.Booking, error)
	ListBookings(ctx context.Context, userID string) ([]models.Booking, error)
}

// Notifier sends a single alert.
type Notifier interface {
	NotifyWithPreferences(ctx context.Context, userID string, alert models.Alert, prefs models.Preferences) bool
}

// StateReader loads user state.
type StateReader interface {
	Get(ctx context.Context, userID string) (*models.UserState, error)
}

// DocumentLister lists a user's documents, falling back to the recorded ones.
type DocumentLister interface {
	List(ctx context.Context, userID string, recorded []models.Document) *models.DocumentListing
}

// DocumentUploader stores a document.
type DocumentUploader interface {
	Upload(ctx context.Context, req documents.UploadRequest) (*models.Document, error)
}

// MetricsReader reads service metrics reported to Redis.
type MetricsReader interface {
	GetServiceMetrics(ctx context.Context, serviceName string) (*metrics.ServiceMetrics, error)
	GetAllServiceMetrics(ctx context.Context) (map[string]*metrics.ServiceMetrics, error)
}

// MetricsRecorder counts API activity.
type MetricsRecorder interface {
	RecordReceived()
	RecordProcessed(latency time.Duration)
	RecordError()
	IncrementCustom(name string)
}

// NoOpMetrics is a null-object implementation of MetricsRecorder.
type NoOpMetrics struct{}

// Compile-time check that NoOpMetrics implements MetricsRecorder.
var _ MetricsRecorder = NoOpMetrics{}

// RecordReceived does nothing.
func (NoOpMetrics) RecordReceived() {}

// RecordProcessed does nothing.
func (NoOpMetrics) RecordProcessed(time.Duration) {}

// RecordError does nothing.
func (NoOpMetrics) RecordError() {}

// IncrementCustom does nothing.
func (NoOpMetrics) IncrementCustom(string) {}
