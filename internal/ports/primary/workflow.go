package primary

import "context"

// WorkflowService defines the primary port for church status transitions.
// Domain failures are reported in result values; none of these methods panic
// or return Go errors.
type WorkflowService interface {
	// GetValidTransitions lists the transitions role may invoke from status.
	GetValidTransitions(status, role string) []Transition

	// IsTransitionValid checks a transition without side effects.
	IsTransitionValid(tc TransitionContext) ValidationResult

	// ExecuteTransition revalidates, runs the transition hook and appends an
	// audit entry. It does not write the church status; see TransitionChurch.
	ExecuteTransition(ctx context.Context, tc TransitionContext) ExecutionResult

	// GetNextActions derives the UI actions available to role.
	GetNextActions(churchID, status, role string) []ActionDescriptor

	// TransitionChurch loads the church, executes the transition and writes
	// the new status conditionally on the status it observed.
	TransitionChurch(ctx context.Context, req TransitionRequest) ExecutionResult
}

// Actor identifies the user invoking an operation.
type Actor struct {
	UID     string `validate:"required"`
	Email   string `validate:"omitempty,email"`
	Name    string
	Role    string `validate:"required,oneof=chancery_office museum_researcher parish public_user"`
	Diocese string
}

// TransitionContext describes a requested status change.
type TransitionContext struct {
	ChurchID       string `validate:"required"`
	FromStatus     string `validate:"required"`
	ToStatus       string `validate:"required"`
	Actor          Actor
	Note           string
	Classification string
	Diocese        string
	Metadata       map[string]any
	IsAutomated    bool
}

// TransitionRequest asks the service to move a stored church to a new status.
type TransitionRequest struct {
	ChurchID    string `validate:"required"`
	ToStatus    string `validate:"required"`
	Actor       Actor
	Note        string
	IsAutomated bool
}

// Transition is one row of the workflow table at the port boundary.
type Transition struct {
	FromStatus    string
	ToStatus      string
	RequiredRoles []string
	Label         string
	RequiresNote  bool
}

// ValidationResult is the outcome of IsTransitionValid.
type ValidationResult struct {
	Valid  bool
	Reason string
}

// ExecutionResult is the outcome of ExecuteTransition and TransitionChurch.
type ExecutionResult struct {
	Success bool
	Error   string
	// AuditLogID is empty when the audit write failed under best-effort policy.
	AuditLogID string
}

// ActionDescriptor is a caller-facing action derived from the workflow table.
type ActionDescriptor struct {
	ChurchID     string
	FromStatus   string
	TargetStatus string
	Label        string
	RequiresNote bool
}
