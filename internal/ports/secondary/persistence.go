// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
)

var (
	// ErrChurchNotFound is returned when no church has the requested ID.
	ErrChurchNotFound = errors.New("church not found")

	// ErrStatusConflict is returned when a conditional status write observes
	// a status other than the one the caller expected.
	ErrStatusConflict = errors.New("church status changed concurrently")
)

// ChurchRepository defines the secondary port for church persistence.
// Church records are never deleted through this port.
type ChurchRepository interface {
	// Create persists a new church.
	Create(ctx context.Context, church *ChurchRecord) error

	// GetByID retrieves a church by its ID. Returns ErrChurchNotFound if absent.
	GetByID(ctx context.Context, id string) (*ChurchRecord, error)

	// Update applies a partial update to a single church atomically.
	Update(ctx context.Context, id string, update ChurchUpdate) error

	// List retrieves churches matching the given filters.
	List(ctx context.Context, filters ChurchFilters) ([]*ChurchRecord, error)

	// GetNextID returns the next available church ID.
	GetNextID(ctx context.Context) (string, error)
}

// ChurchRecord represents a church as stored in persistence.
type ChurchRecord struct {
	ID             string
	Status         string
	Classification string
	Diocese        string
	// Fields is the descriptive payload (name, location, schedules, media, ...).
	Fields            map[string]any
	HasPendingChanges bool
	PendingChanges    *PendingChangesRecord // non-nil iff HasPendingChanges
	Version           int
	CreatedAt         string
	UpdatedAt         string
}

// Name returns the display name stored in the payload.
func (c *ChurchRecord) Name() string {
	if s, ok := c.Fields["name"].(string); ok {
		return s
	}
	return ""
}

// PendingChangesRecord is a staged edit to a published church.
type PendingChangesRecord struct {
	Data              map[string]any `json:"data"`
	ChangedFields     []string       `json:"changedFields"`
	SubmittedBy       string         `json:"submittedBy"`
	SubmittedAt       string         `json:"submittedAt,omitempty"`
	ForwardedToMuseum bool           `json:"forwardedToMuseum"`
	ForwardedAt       string         `json:"forwardedAt,omitempty"`
	ForwardedBy       string         `json:"forwardedBy,omitempty"`
}

// ChurchUpdate describes a partial update. Zero-valued members are left untouched.
type ChurchUpdate struct {
	Status         string
	Classification string
	// Fields is merged into the payload; a nil value removes the key.
	Fields map[string]any
	// PendingChanges replaces the staged edit and sets HasPendingChanges.
	PendingChanges *PendingChangesRecord
	// ClearPendingChanges deletes the staged edit and clears HasPendingChanges.
	ClearPendingChanges bool
	// ExpectedStatus, when set, makes the write conditional on the stored status.
	ExpectedStatus string
}

// IsEmpty reports whether the update would change nothing.
func (u ChurchUpdate) IsEmpty() bool {
	return u.Status == "" && u.Classification == "" && len(u.Fields) == 0 &&
		u.PendingChanges == nil && !u.ClearPendingChanges
}

// ChurchFilters contains filter options for querying churches.
type ChurchFilters struct {
	Status            string
	Diocese           string
	Classification    string
	HasPendingChanges *bool
	Limit             int
}
