package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/visita/churchflow/internal/ports/primary"
)

// WorkflowAdapter translates CLI operations to WorkflowService calls.
type WorkflowAdapter struct {
	workflow primary.WorkflowService
	churches primary.ChurchService
	audit    primary.AuditService
	out      io.Writer
}

// NewWorkflowAdapter creates a new WorkflowAdapter with the given services.
func NewWorkflowAdapter(workflow primary.WorkflowService, churches primary.ChurchService, audit primary.AuditService, out io.Writer) *WorkflowAdapter {
	return &WorkflowAdapter{
		workflow: workflow,
		churches: churches,
		audit:    audit,
		out:      out,
	}
}

// Actions lists what role can do with a church in its current status.
func (a *WorkflowAdapter) Actions(ctx context.Context, churchID, role string) error {
	church, err := a.churches.GetChurch(ctx, churchID)
	if err != nil {
		return fmt.Errorf("failed to get church: %w", err)
	}

	actions := a.workflow.GetNextActions(church.ID, church.Status, role)
	if len(actions) == 0 {
		fmt.Fprintf(a.out, "No actions available for %s on %s (%s)\n", role, church.ID, church.Status)
		return nil
	}

	fmt.Fprintf(a.out, "%s is %s\n", church.ID, colorizeStatus(church.Status))
	for _, act := range actions {
		note := ""
		if act.RequiresNote {
			note = " (note required)"
		}
		fmt.Fprintf(a.out, "  → %-16s %s%s\n", act.TargetStatus, act.Label, note)
	}
	return nil
}

// Transitions prints the transition table rows available to role from status.
func (a *WorkflowAdapter) Transitions(status, role string) {
	transitions := a.workflow.GetValidTransitions(status, role)
	if len(transitions) == 0 {
		fmt.Fprintf(a.out, "No transitions from %s for %s\n", status, role)
		return
	}
	for _, tr := range transitions {
		fmt.Fprintf(a.out, "%s → %s [%s] %s\n", tr.FromStatus, tr.ToStatus, strings.Join(tr.RequiredRoles, ","), tr.Label)
	}
}

// Transition moves a church to a new status.
func (a *WorkflowAdapter) Transition(ctx context.Context, req primary.TransitionRequest) error {
	result := a.workflow.TransitionChurch(ctx, req)
	if !result.Success {
		fmt.Fprintln(a.out, failure("%s", result.Error))
		return errors.New(result.Error)
	}

	fmt.Fprintln(a.out, success("Church %s moved to %s", req.ChurchID, req.ToStatus))
	if result.AuditLogID != "" {
		fmt.Fprintf(a.out, "  audit: %s\n", result.AuditLogID)
	}
	return nil
}

// History prints the audit trail, oldest first.
func (a *WorkflowAdapter) History(ctx context.Context, filters primary.AuditLogFilters) error {
	entries, err := a.audit.ListAuditLogs(ctx, filters)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No audit entries found")
		return nil
	}

	for _, e := range entries {
		move := e.ToStatus
		if e.FromStatus != "" && e.FromStatus != e.ToStatus {
			move = e.FromStatus + " → " + e.ToStatus
		}
		who := e.ChangedBy.UID
		if e.ChangedBy.Role != "" {
			who += " (" + e.ChangedBy.Role + ")"
		}
		fmt.Fprintf(a.out, "%s  %-10s %-26s %-34s %s\n", e.Timestamp, e.ChurchID, e.Action, move, who)
		if e.Note != "" {
			fmt.Fprintf(a.out, "    note: %s\n", e.Note)
		}
	}
	return nil
}
