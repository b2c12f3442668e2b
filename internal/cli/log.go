package cli

import (
	"github.com/spf13/cobra"

	"github.com/visita/churchflow/internal/ports/primary"
	"github.com/visita/churchflow/internal/wire"
)

// HistoryCmd shows the audit trail.
func HistoryCmd() *cobra.Command {
	var filters primary.AuditLogFilters

	cmd := &cobra.Command{
		Use:   "history [church-id]",
		Short: "Show the audit trail",
		Long: `Show the status change audit trail, oldest first.

Examples:
  visita history                     # all entries
  visita history CH-0001             # one church
  visita history --action submit_update --limit 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				filters.ChurchID = args[0]
			}
			return wire.WorkflowAdapter().History(NewContext(), filters)
		},
	}

	cmd.Flags().StringVarP(&filters.Action, "action", "a", "", "Filter by action")
	cmd.Flags().StringVar(&filters.ActorUID, "by", "", "Filter by acting user ID")
	cmd.Flags().IntVarP(&filters.Limit, "limit", "n", 50, "Maximum number of entries")
	return cmd
}
