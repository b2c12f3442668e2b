// Package church contains the pure business logic for the church status workflow.
// This is part of the Functional Core - no I/O, only pure functions.
package church

import "strings"

// Status represents the publication state of a church record.
type Status string

const (
	StatusPending        Status = "pending"
	StatusHeritageReview Status = "heritage_review"
	StatusApproved       Status = "approved"

	// Reserved statuses are accepted as stored values but no transition
	// in the table leads to or from them.
	StatusRejected      Status = "rejected"
	StatusUnderReview   Status = "under_review"
	StatusNeedsRevision Status = "needs_revision"
)

var knownStatuses = map[Status]bool{
	StatusPending:        true,
	StatusHeritageReview: true,
	StatusApproved:       true,
	StatusRejected:       true,
	StatusUnderReview:    true,
	StatusNeedsRevision:  true,
}

// IsValid reports whether s is one of the known statuses, reserved ones included.
func (s Status) IsValid() bool {
	return knownStatuses[s]
}

// IsReserved reports whether s is a reserved status with no wired transitions.
func (s Status) IsReserved() bool {
	switch s {
	case StatusRejected, StatusUnderReview, StatusNeedsRevision:
		return true
	}
	return false
}

// IsPublic reports whether a church in this status is visible to public users.
func (s Status) IsPublic() bool {
	return s == StatusApproved
}

// InitialStatus returns the status every new church record starts in.
func InitialStatus() Status {
	return StatusPending
}

// Role identifies the kind of actor invoking a workflow operation.
type Role string

const (
	RoleChanceryOffice   Role = "chancery_office"
	RoleMuseumResearcher Role = "museum_researcher"
	RoleParish           Role = "parish"
	RolePublicUser       Role = "public_user"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleChanceryOffice, RoleMuseumResearcher, RoleParish, RolePublicUser:
		return true
	}
	return false
}

// Classification is the heritage tag of a church.
type Classification string

const (
	ClassificationICP         Classification = "ICP"
	ClassificationNCT         Classification = "NCT"
	ClassificationNonHeritage Classification = "non_heritage"
	ClassificationUnknown     Classification = "unknown"
)

// IsHeritage reports whether the classification requires museum validation.
// Comparison is case-insensitive because parish submissions are free text.
func (c Classification) IsHeritage() bool {
	switch Classification(strings.ToUpper(strings.TrimSpace(string(c)))) {
	case ClassificationICP, ClassificationNCT:
		return true
	}
	return false
}
