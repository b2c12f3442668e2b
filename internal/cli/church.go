package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visita/churchflow/internal/ports/primary"
	"github.com/visita/churchflow/internal/wire"
)

// ChurchCmd returns the church command group.
func ChurchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "church",
		Short: "Manage church records",
		Long:  "Register, list, show and edit church records in the VISITA registry",
	}

	cmd.AddCommand(churchCreateCmd())
	cmd.AddCommand(churchListCmd())
	cmd.AddCommand(churchShowCmd())
	cmd.AddCommand(churchEditCmd())
	cmd.AddCommand(churchApplyCmd())
	cmd.AddCommand(churchForwardCmd())
	return cmd
}

func churchCreateCmd() *cobra.Command {
	var classification string
	var sets []string

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Register a new church (starts in pending)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			diocese := GetActor().Diocese
			if diocese == "" {
				diocese = wire.Get().Config.Diocese
			}
			return wire.ChurchAdapter().Create(NewContext(), primary.CreateChurchRequest{
				Name:           args[0],
				Classification: classification,
				Diocese:        diocese,
				Fields:         fields,
			})
		},
	}

	cmd.Flags().StringVar(&classification, "classification", "", "Heritage classification (ICP, NCT, non_heritage)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field assignment key=value (repeatable; JSON values accepted)")
	return cmd
}

func churchListCmd() *cobra.Command {
	var filters primary.ChurchFilters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List churches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ChurchAdapter().List(NewContext(), filters)
		},
	}

	cmd.Flags().StringVarP(&filters.Status, "status", "s", "", "Filter by status")
	cmd.Flags().StringVar(&filters.Diocese, "in-diocese", "", "Filter by diocese")
	cmd.Flags().StringVar(&filters.Classification, "classification", "", "Filter by classification")
	cmd.Flags().BoolVar(&filters.OnlyPendingEdits, "pending-edits", false, "Only churches with staged edits")
	cmd.Flags().IntVarP(&filters.Limit, "limit", "n", 0, "Maximum number of churches")
	return cmd
}

func churchShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [church-id]",
		Short: "Show church details and any staged edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := wire.ChurchAdapter().Show(NewContext(), args[0])
			return err
		},
	}
}

func churchEditCmd() *cobra.Command {
	var sets []string
	var data string

	cmd := &cobra.Command{
		Use:   "edit [church-id]",
		Short: "Edit church content",
		Long: `Edit church content.

For approved churches, operational fields (mass schedules, contact details,
media) publish immediately and sensitive fields (name, history, location,
classification) are staged for review.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := collectChanges(data, sets)
			if err != nil {
				return err
			}
			return wire.ChurchAdapter().Edit(NewContext(), primary.SubmitUpdateRequest{
				ChurchID: args[0],
				Data:     changes,
			})
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field assignment key=value (repeatable; JSON values accepted)")
	cmd.Flags().StringVar(&data, "data", "", "Changes as a JSON object")
	return cmd
}

func churchApplyCmd() *cobra.Command {
	var note, data string
	var automated bool

	cmd := &cobra.Command{
		Use:   "apply [church-id]",
		Short: "Apply a church's staged edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edited map[string]any
			if data != "" {
				if err := json.Unmarshal([]byte(data), &edited); err != nil {
					return fmt.Errorf("invalid --data: %w", err)
				}
			}
			return wire.ChurchAdapter().Apply(NewContext(), primary.ApplyPendingChangesRequest{
				ChurchID:    args[0],
				EditedData:  edited,
				Note:        note,
				IsAutomated: automated,
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Review note")
	cmd.Flags().StringVar(&data, "data", "", "Corrected staged data as a JSON object (replaces the submitted data)")
	cmd.Flags().BoolVar(&automated, "automated", false, "Mark as applied by an automated process")
	return cmd
}

func churchForwardCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "forward [church-id]",
		Short: "Forward a staged edit to the museum researcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.ChurchAdapter().Forward(NewContext(), primary.ForwardPendingChangesRequest{
				ChurchID: args[0],
				Note:     note,
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Note for the museum researcher")
	return cmd
}

// collectChanges merges a JSON object with key=value assignments; assignments win.
func collectChanges(data string, sets []string) (map[string]any, error) {
	changes := map[string]any{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &changes); err != nil {
			return nil, fmt.Errorf("invalid --data: %w", err)
		}
	}
	assigned, err := parseAssignments(sets)
	if err != nil {
		return nil, err
	}
	for k, v := range assigned {
		changes[k] = v
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("nothing to change: use --set or --data")
	}
	return changes, nil
}

// parseAssignments turns key=value pairs into a field map. Values that parse
// as JSON keep their JSON type; anything else is a string.
func parseAssignments(sets []string) (map[string]any, error) {
	out := make(map[string]any, len(sets))
	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", s)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}
