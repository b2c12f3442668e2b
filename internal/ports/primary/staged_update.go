package primary

import "context"

// StagedUpdateService defines the primary port for edits to published churches.
type StagedUpdateService interface {
	// CategorizeChanges splits an edit into review-required and direct-publish fields.
	CategorizeChanges(original, updated map[string]any) ChangeSet

	// SubmitUpdate publishes operational fields immediately and stages
	// sensitive fields of an approved church for re-verification.
	SubmitUpdate(ctx context.Context, req SubmitUpdateRequest) SubmitUpdateResult

	// ApplyPendingChanges merges a staged edit into the canonical record.
	ApplyPendingChanges(ctx context.Context, req ApplyPendingChangesRequest) OperationResult

	// ForwardPendingChangesToMuseum flags a staged edit for heritage sign-off
	// without unpublishing the church.
	ForwardPendingChangesToMuseum(ctx context.Context, req ForwardPendingChangesRequest) OperationResult
}

// ChangeSet is the categorized difference between two versions of a church.
type ChangeSet struct {
	HasSensitiveChanges  bool
	SensitiveChanges     map[string]any
	SensitiveFields      []string
	DirectPublishChanges map[string]any
	DirectPublishFields  []string
}

// SubmitUpdateRequest contains a content edit to a church.
type SubmitUpdateRequest struct {
	ChurchID string `validate:"required"`
	Actor    Actor
	Data     map[string]any `validate:"required"`
}

// SubmitUpdateResult reports what an edit did.
type SubmitUpdateResult struct {
	Success         bool
	Error           string
	PublishedFields []string
	StagedFields    []string
}

// ApplyPendingChangesRequest approves a staged edit.
type ApplyPendingChangesRequest struct {
	ChurchID string `validate:"required"`
	Actor    Actor
	// EditedData replaces the submitted staged data when the reviewer corrected it.
	EditedData  map[string]any
	Note        string
	IsAutomated bool
}

// ForwardPendingChangesRequest sends a staged edit to the museum researcher.
type ForwardPendingChangesRequest struct {
	ChurchID string `validate:"required"`
	Actor    Actor
	Note     string
}

// OperationResult is the outcome of a staged-update operation.
type OperationResult struct {
	Success bool
	Error   string
}
