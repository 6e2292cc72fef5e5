// Package documents lists a user's travel documents from object storage and classifies
// uploads by filename.
package documents

import (
	"context"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/adapters/upstream"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// LiveSource lists stored documents.
type LiveSource interface {
	List(ctx context.Context, userID string) ([]models.Document, *apperr.UpstreamError)
}

// Adapter is the document-metadata source used by the rules engine.
type Adapter struct {
	live    LiveSource
	counter upstream.Counter
}

// NewAdapter wires the live store. live may be nil.
func NewAdapter(live LiveSource, counter upstream.Counter) *Adapter {
	if counter == nil {
		counter = upstream.NoOpCounter
	}
	return &Adapter{live: live, counter: counter}
}

// List returns the user's documents. When storage is unconfigured or unreachable the
// documents already recorded on the user's state are returned, tagged as mock.
func (a *Adapter) List(ctx context.Context, userID string, recorded []models.Document) *models.DocumentListing {
	if a.live != nil {
		docs, uerr := a.live.List(ctx, userID)
		if uerr == nil {
			return &models.DocumentListing{Documents: docs, Source: "s3"}
		}
		upstream.LogFallback("documents", uerr, a.counter, "user_id", userID)
	}

	docs := make([]models.Document, len(recorded))
	copy(docs, recorded)
	return &models.DocumentListing{Documents: docs, Source: models.SourceMock}
}
