package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/synthetic"
)

// DocumentSource lists a user's documents. recorded is what the user state already knows.
type DocumentSource interface {
	List(ctx context.Context, userID string, recorded []models.Document) *models.DocumentListing
}

const placeholderExpiryMessage = "Your passport may expire soon. Please verify the expiry date and renew if necessary."

// DocumentEvaluator emits document-expiry alerts for passports.
type DocumentEvaluator struct {
	docs  DocumentSource
	src   synthetic.Source
	rules *Set
}

// NewDocumentEvaluator creates the evaluator. src drives the placeholder heuristic used
// when a passport's expiry date is unknown.
func NewDocumentEvaluator(docs DocumentSource, src synthetic.Source, rules *Set) *DocumentEvaluator {
	return &DocumentEvaluator{docs: docs, src: src, rules: rules}
}

// Evaluate checks every identification document whose filename names a passport.
func (e *DocumentEvaluator) Evaluate(ctx context.Context, userID string, recorded []models.Document, now time.Time) ([]models.Alert, error) {
	cfg := e.rules.Current().Documents
	listing := e.docs.List(ctx, userID, recorded)
	if listing == nil {
		return nil, nil
	}

	keyword := strings.ToLower(cfg.FilenameKeyword)
	horizon := now.AddDate(0, 0, cfg.ExpiryHorizonDays)
	var alerts []models.Alert

	for _, doc := range listing.Documents {
		if err := ctx.Err(); err != nil {
			return alerts, err
		}
		if doc.DocumentType != models.DocIdentification || !strings.Contains(strings.ToLower(doc.Filename), keyword) {
			continue
		}

		var message, date string
		switch {
		case doc.ExpiryDate != nil:
			exp := doc.ExpiryDate.UTC()
			if exp.After(horizon) {
				continue
			}
			date = exp.Format("2006-01-02")
			if exp.Before(now) {
				message = fmt.Sprintf("Your passport expired on %s. Renew it before you travel.", date)
			} else {
				message = fmt.Sprintf("Your passport expires on %s. Please renew it if your trip requires more validity.", date)
			}
		case synthetic.Chance(e.src, cfg.PlaceholderProbability):
			message = placeholderExpiryMessage
		default:
			continue
		}

		ref := doc.Key
		if ref == "" {
			ref = doc.Filename
		}
		alerts = append(alerts, models.Alert{
			AlertID:        models.AlertID(models.AlertDocumentExpiry, ref),
			Type:           models.AlertDocumentExpiry,
			Priority:       4,
			Title:          "Passport Expiry Warning",
			Message:        message,
			Document:       doc.Filename,
			Date:           date,
			ActionRequired: true,
			CreatedAt:      now,
			Source:         models.SourceDocument,
		})
	}
	return alerts, nil
}
