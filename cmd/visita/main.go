package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visita/churchflow/internal/cli"
	"github.com/visita/churchflow/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "visita",
		Short:   "VISITA - church registry verification workflow",
		Version: version.String(),
		Long: `VISITA manages the verification workflow of the church registry.
Parishes register and edit churches, the chancery office reviews and publishes
them, and museum researchers validate heritage-classified sites.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cli.StoreActor(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return cli.PrintMetrics(cmd)
		},
	}
	cli.AddActorFlags(rootCmd)

	// Registry
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.ChurchCmd())

	// Workflow
	rootCmd.AddCommand(cli.TransitionCmd())
	rootCmd.AddCommand(cli.ActionsCmd())
	rootCmd.AddCommand(cli.TransitionsCmd())
	rootCmd.AddCommand(cli.HistoryCmd())

	// Developer tools
	rootCmd.AddCommand(cli.DevCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
