package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visita/churchflow/internal/ports/primary"
	"github.com/visita/churchflow/internal/wire"
)

// TransitionCmd moves a church through the verification workflow.
func TransitionCmd() *cobra.Command {
	var note string
	var automated bool

	cmd := &cobra.Command{
		Use:   "transition [church-id] [status]",
		Short: "Move a church to a new workflow status",
		Long: `Move a church to a new workflow status.

Statuses: pending, approved, under_review, heritage_review, returned, archived.
Returning a church to the parish requires --note.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.WorkflowAdapter().Transition(NewContext(), primary.TransitionRequest{
				ChurchID:    args[0],
				ToStatus:    args[1],
				Note:        note,
				IsAutomated: automated,
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Reason for the change")
	cmd.Flags().BoolVar(&automated, "automated", false, "Mark as performed by an automated process")
	return cmd
}

// ActionsCmd lists the next actions available to the acting role.
func ActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions [church-id]",
		Short: "Show what the acting role can do with a church",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor := GetActor()
			if actor.Role == "" {
				return fmt.Errorf("no role set: use --role or VISITA_ACTOR_ROLE")
			}
			return wire.WorkflowAdapter().Actions(NewContext(), args[0], actor.Role)
		},
	}
}

// TransitionsCmd prints the workflow table rows for a status.
func TransitionsCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "Show workflow transitions from a status",
		RunE: func(cmd *cobra.Command, args []string) error {
			wire.WorkflowAdapter().Transitions(from, GetActor().Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "pending", "Status to list transitions from")
	return cmd
}
