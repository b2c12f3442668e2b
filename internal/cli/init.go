package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visita/churchflow/internal/config"
	"github.com/visita/churchflow/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	var dbPath, auditPolicy, diocese string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize VISITA in the current directory",
		Long: `Write .visita/config.json in the current directory and create the
database with the required schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			cfg := config.Default()
			if existing, err := config.LoadConfig(dir); err == nil {
				cfg = existing
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if auditPolicy != "" {
				cfg.AuditPolicy = auditPolicy
			}
			if diocese != "" {
				cfg.Diocese = diocese
			}
			if cfg.AuditPolicy == "" {
				cfg.AuditPolicy = config.AuditPolicyBestEffort
			}
			if cfg.LogFormat == "" {
				cfg.LogFormat = "text"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := config.SaveConfig(dir, cfg); err != nil {
				return err
			}
			fmt.Println("✓ Config written to .visita/config.json")

			path := cfg.DBPath
			if path == "" {
				if path, err = config.DefaultDBPath(); err != nil {
					return err
				}
			}
			database, err := db.Open(path)
			if err != nil {
				return err
			}
			defer database.Close()

			fmt.Printf("✓ Database initialized at %s (schema v%d)\n", path, db.LatestVersion())
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  visita church create \"San Agustin Church\" --as u1 --role parish")
			fmt.Println("  visita church list")
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Database path (default ~/.visita/visita.db)")
	cmd.Flags().StringVar(&auditPolicy, "audit-policy", "", "Audit failure policy (best-effort or strict)")
	cmd.Flags().StringVar(&diocese, "diocese-default", "", "Default diocese for new churches")
	return cmd
}
