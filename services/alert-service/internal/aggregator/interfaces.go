package aggregator

import (
	"context"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// Store loads and conditionally saves user state. Get returns an error matching
// apperr.ErrNotFound for unknown users; Put fails with an apperr.ConflictError when the
// stored version no longer matches state.Version.
type Store interface {
	Get(ctx context.Context, userID string) (*models.UserState, error)
	Put(ctx context.Context, state *models.UserState) error
}

// BookingEvaluator derives alerts from bookings.
type BookingEvaluator interface {
	Evaluate(ctx context.Context, bookings []models.Booking, now time.Time) ([]models.Alert, error)
}

// DestinationEvaluator derives alerts from itinerary destinations.
type DestinationEvaluator interface {
	Evaluate(ctx context.Context, destinations []models.Destination, now time.Time) ([]models.Alert, error)
}

// DocumentEvaluator derives alerts from a user's documents.
type DocumentEvaluator interface {
	Evaluate(ctx context.Context, userID string, recorded []models.Document, now time.Time) ([]models.Alert, error)
}

// Evaluators groups the evaluators a refresh runs. A nil evaluator is skipped.
type Evaluators struct {
	Flight    BookingEvaluator
	Weather   DestinationEvaluator
	News      DestinationEvaluator
	Documents DocumentEvaluator
}
