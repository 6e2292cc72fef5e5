package documents

import (
	"strings"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

// Order matters: the first matching rule wins.
var classifierRules = []struct {
	docType models.DocumentType
	words   []string
}{
	{models.DocIdentification, []string{"passport", "visa", "id"}},
	{models.DocFlight, []string{"ticket", "boarding", "flight"}},
	{models.DocAccommodation, []string{"hotel", "reservation", "booking"}},
	{models.DocInsurance, []string{"insurance", "policy"}},
	{models.DocItinerary, []string{"itinerary", "plan", "schedule"}},
}

// Classify infers a document's type from its filename.
func Classify(filename string) models.DocumentType {
	name := strings.ToLower(filename)
	for _, rule := range classifierRules {
		for _, w := range rule.words {
			if strings.Contains(name, w) {
				return rule.docType
			}
		}
	}
	return models.DocOther
}
