package primary

import "context"

// ChurchService defines the primary port for church record operations.
type ChurchService interface {
	// CreateChurch registers a new church in the initial workflow status.
	CreateChurch(ctx context.Context, req CreateChurchRequest) (*CreateChurchResponse, error)

	// GetChurch retrieves a church by ID.
	GetChurch(ctx context.Context, churchID string) (*Church, error)

	// ListChurches lists churches with optional filters.
	ListChurches(ctx context.Context, filters ChurchFilters) ([]*Church, error)
}

// CreateChurchRequest contains parameters for registering a church.
type CreateChurchRequest struct {
	Actor          Actor
	Name           string `validate:"required"`
	Classification string
	Diocese        string
	Fields         map[string]any
}

// CreateChurchResponse contains the result of registering a church.
type CreateChurchResponse struct {
	ChurchID string
	Church   *Church
}

// Church represents a church at the port boundary.
type Church struct {
	ID                string
	Name              string
	Status            string
	Classification    string
	Diocese           string
	Fields            map[string]any
	HasPendingChanges bool
	PendingChanges    *PendingChanges
	CreatedAt         string
	UpdatedAt         string
}

// PendingChanges is a staged edit at the port boundary.
type PendingChanges struct {
	Data              map[string]any
	ChangedFields     []string
	SubmittedBy       string
	SubmittedAt       string
	ForwardedToMuseum bool
	ForwardedAt       string
	ForwardedBy       string
}

// ChurchFilters contains filter options for listing churches.
type ChurchFilters struct {
	Status           string
	Diocese          string
	Classification   string
	OnlyPendingEdits bool
	Limit            int
}
