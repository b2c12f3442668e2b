// Package changes contains the pure logic for staged updates to published churches.
// It decides which edited fields publish immediately and which wait for re-verification.
package changes

// Sensitivity tells whether a changed field may publish without review.
type Sensitivity int

const (
	// RequiresReverification fields describe heritage or identity and wait for approval.
	RequiresReverification Sensitivity = iota
	// DirectPublish fields are operational and go live immediately.
	DirectPublish
)

var reverificationFields = map[string]bool{
	"name":                   true,
	"fullName":               true,
	"parishName":             true,
	"location":               true,
	"address":                true,
	"municipality":           true,
	"province":               true,
	"diocese":                true,
	"foundingYear":           true,
	"founders":               true,
	"historicalBackground":   true,
	"description":            true,
	"architecturalStyle":     true,
	"classification":         true,
	"heritageClassification": true,
	"heritageInformation":    true,
	"culturalSignificance":   true,
	"coordinates":            true,
	"latitude":               true,
	"longitude":              true,
}

var directPublishFields = map[string]bool{
	"contactInfo":    true,
	"phone":          true,
	"email":          true,
	"website":        true,
	"facebookPage":   true,
	"massSchedules":  true,
	"images":         true,
	"photos":         true,
	"videos":         true,
	"virtualTour":    true,
	"documents":      true,
	"tags":           true,
	"feastDay":       true,
	"priest":         true,
	"assignedPriest": true,
}

// Classify returns the sensitivity of field. Unknown fields require re-verification.
func Classify(field string) Sensitivity {
	if directPublishFields[field] && !reverificationFields[field] {
		return DirectPublish
	}
	return RequiresReverification
}
