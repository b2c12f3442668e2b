package church

import (
	"fmt"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// TransitionContext carries everything a transition guard may inspect.
// Populated by the caller; guards never read the store.
type TransitionContext struct {
	ChurchID       string
	From           Status
	To             Status
	Role           Role
	Note           string
	Classification Classification
}

// Condition is a guard predicate attached to a transition.
type Condition func(ctx TransitionContext) GuardResult

// Always is the guard for transitions with no extra condition.
func Always(TransitionContext) GuardResult {
	return GuardResult{Allowed: true}
}

// RequireNote evaluates whether a non-blank note accompanies the transition.
// Rule: Returning an approved church to heritage review must be explained.
func RequireNote(ctx TransitionContext) GuardResult {
	if strings.TrimSpace(ctx.Note) == "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("A note is required to move church %s from %s to %s", ctx.ChurchID, ctx.From, ctx.To),
		}
	}
	return GuardResult{Allowed: true}
}

// RequireNonHeritage evaluates whether a church may skip heritage review.
// Rule: ICP and NCT churches must be validated by a museum researcher before approval.
func RequireNonHeritage(ctx TransitionContext) GuardResult {
	if ctx.Classification.IsHeritage() {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Church %s is classified %s and must pass heritage review before approval", ctx.ChurchID, ctx.Classification),
		}
	}
	return GuardResult{Allowed: true}
}

// ForwardContext provides context for forwarding staged edits to the museum.
type ForwardContext struct {
	ChurchID          string
	Role              Role
	ChurchExists      bool
	HasPendingChanges bool
}

// CanForwardPendingChanges evaluates whether staged edits can be forwarded for heritage sign-off.
// Rules:
// - Only the chancery office may forward
// - Church must exist
// - Church must have staged edits
func CanForwardPendingChanges(ctx ForwardContext) GuardResult {
	if ctx.Role != RoleChanceryOffice {
		return GuardResult{
			Allowed: false,
			Reason:  "Unauthorized: only chancery office can forward pending changes",
		}
	}
	if !ctx.ChurchExists {
		return GuardResult{Allowed: false, Reason: "Church not found"}
	}
	if !ctx.HasPendingChanges {
		return GuardResult{Allowed: false, Reason: "No pending changes to forward"}
	}
	return GuardResult{Allowed: true}
}

// ApplyContext provides context for merging staged edits into a church.
type ApplyContext struct {
	ChurchID          string
	ChurchExists      bool
	HasPendingChanges bool
}

// CanApplyPendingChanges evaluates whether staged edits can be merged.
// Rules:
// - Church must exist
// - Church must have staged edits
func CanApplyPendingChanges(ctx ApplyContext) GuardResult {
	if !ctx.ChurchExists {
		return GuardResult{Allowed: false, Reason: "Church not found"}
	}
	if !ctx.HasPendingChanges {
		return GuardResult{Allowed: false, Reason: "No pending changes to apply"}
	}
	return GuardResult{Allowed: true}
}

// CreateContext provides context for church creation guards.
type CreateContext struct {
	Role Role
}

// CanCreateChurch evaluates whether the actor may register a new church.
// Rule: Only parish secretaries and the chancery office create church records.
func CanCreateChurch(ctx CreateContext) GuardResult {
	if ctx.Role != RoleParish && ctx.Role != RoleChanceryOffice {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Role %s cannot create church records", ctx.Role),
		}
	}
	return GuardResult{Allowed: true}
}

// SubmitUpdateContext provides context for content edit guards.
type SubmitUpdateContext struct {
	ChurchID     string
	Role         Role
	ChurchExists bool
}

// CanSubmitUpdate evaluates whether the actor may edit a church profile.
// Rule: Public users and museum researchers do not edit church content.
func CanSubmitUpdate(ctx SubmitUpdateContext) GuardResult {
	if !ctx.ChurchExists {
		return GuardResult{Allowed: false, Reason: "Church not found"}
	}
	if ctx.Role != RoleParish && ctx.Role != RoleChanceryOffice {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Role %s cannot edit church %s", ctx.Role, ctx.ChurchID),
		}
	}
	return GuardResult{Allowed: true}
}
