package church

import (
	"fmt"
	"slices"
	"time"

	"github.com/visita/churchflow/internal/core/effects"
)

// Hook computes the side effects of a transition before the audit write.
// The caller passes the current time to keep hooks deterministic under test.
type Hook func(ctx TransitionContext, now time.Time) []effects.Effect

// Transition is one declarative row of the workflow table.
type Transition struct {
	From          Status
	To            Status
	RequiredRoles []Role
	Condition     Condition
	OnTransition  Hook // optional
	Label         string
	RequiresNote  bool
}

// AllowsRole reports whether role may invoke the transition.
func (t Transition) AllowsRole(role Role) bool {
	return slices.Contains(t.RequiredRoles, role)
}

// Table is an immutable list of transitions. All workflow decisions are
// derived from it; there are no status-specific branches elsewhere.
type Table []Transition

// DefaultTable returns the church workflow table.
// A fresh slice is returned on every call so callers cannot mutate shared state.
func DefaultTable() Table {
	return Table{
		{
			From:          StatusPending,
			To:            StatusPending,
			RequiredRoles: []Role{RoleParish},
			Condition:     Always,
			Label:         "Resubmit for review",
		},
		{
			From:          StatusPending,
			To:            StatusApproved,
			RequiredRoles: []Role{RoleChanceryOffice},
			Condition:     RequireNonHeritage,
			OnTransition:  stampApproval,
			Label:         "Approve and publish",
		},
		{
			From:          StatusPending,
			To:            StatusHeritageReview,
			RequiredRoles: []Role{RoleChanceryOffice},
			Condition:     Always,
			OnTransition:  stampHeritageReview,
			Label:         "Forward to museum researcher",
		},
		{
			From:          StatusHeritageReview,
			To:            StatusApproved,
			RequiredRoles: []Role{RoleMuseumResearcher},
			Condition:     Always,
			OnTransition:  stampApproval,
			Label:         "Validate heritage and approve",
		},
		{
			From:          StatusApproved,
			To:            StatusHeritageReview,
			RequiredRoles: []Role{RoleChanceryOffice},
			Condition:     RequireNote,
			OnTransition:  reopenHeritageReview,
			Label:         "Return to heritage review",
			RequiresNote:  true,
		},
	}
}

// Find returns the transition from -> to, if one exists.
func (t Table) Find(from, to Status) (Transition, bool) {
	for _, tr := range t {
		if tr.From == from && tr.To == to {
			return tr, true
		}
	}
	return Transition{}, false
}

// ValidTransitions returns every transition out of from that role may invoke.
func (t Table) ValidTransitions(from Status, role Role) []Transition {
	var out []Transition
	for _, tr := range t {
		if tr.From == from && tr.AllowsRole(role) {
			out = append(out, tr)
		}
	}
	return out
}

// Validate evaluates whether the transition described by ctx may run.
// Rules:
// - A transition from ctx.From to ctx.To must exist in the table
// - ctx.Role must be one of its required roles
// - Its condition must pass
func (t Table) Validate(ctx TransitionContext) GuardResult {
	tr, ok := t.Find(ctx.From, ctx.To)
	if !ok {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("No transition from %s to %s", ctx.From, ctx.To),
		}
	}

	if !tr.AllowsRole(ctx.Role) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Role %s is not authorized to move a church from %s to %s", ctx.Role, ctx.From, ctx.To),
		}
	}

	if tr.Condition != nil {
		if res := tr.Condition(ctx); !res.Allowed {
			return res
		}
	}

	return GuardResult{Allowed: true}
}

// Reachable returns every status reachable from InitialStatus through the table.
func (t Table) Reachable() map[Status]bool {
	seen := map[Status]bool{InitialStatus(): true}
	queue := []Status{InitialStatus()}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, tr := range t {
			if tr.From == cur && !seen[tr.To] {
				seen[tr.To] = true
				queue = append(queue, tr.To)
			}
		}
	}
	return seen
}

func stampApproval(ctx TransitionContext, now time.Time) []effects.Effect {
	return []effects.Effect{
		effects.UpdateChurchFields(ctx.ChurchID, map[string]any{"approvedAt": now.UTC().Format(time.RFC3339)}),
	}
}

func stampHeritageReview(ctx TransitionContext, now time.Time) []effects.Effect {
	return []effects.Effect{
		effects.UpdateChurchFields(ctx.ChurchID, map[string]any{"heritageReviewRequestedAt": now.UTC().Format(time.RFC3339)}),
	}
}

func reopenHeritageReview(ctx TransitionContext, now time.Time) []effects.Effect {
	return []effects.Effect{
		effects.LogEffect{
			Level:   "info",
			Message: "approved church returned to heritage review",
			Fields:  map[string]any{"church_id": ctx.ChurchID, "note": ctx.Note},
		},
		effects.UpdateChurchFields(ctx.ChurchID, map[string]any{"heritageReviewRequestedAt": now.UTC().Format(time.RFC3339)}),
	}
}
