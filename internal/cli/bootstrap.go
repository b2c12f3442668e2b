// Package cli provides CLI commands for the VISITA application.
package cli

import (
	gocontext "context"
	"os"

	"github.com/spf13/cobra"

	"github.com/visita/churchflow/internal/ctxutil"
	"github.com/visita/churchflow/internal/metrics"
	"github.com/visita/churchflow/internal/wire"
)

// globalActor stores the identity for the current CLI invocation.
// Set once at startup by StoreActor().
var globalActor ctxutil.Actor

// AddActorFlags registers the persistent identity flags on root.
// Flags default to the VISITA_ACTOR_* environment variables.
func AddActorFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.String("as", os.Getenv("VISITA_ACTOR_UID"), "Acting user ID")
	flags.String("role", os.Getenv("VISITA_ACTOR_ROLE"), "Acting role (chancery_office, museum_researcher, parish, public_user)")
	flags.String("email", os.Getenv("VISITA_ACTOR_EMAIL"), "Acting user email")
	flags.String("name", os.Getenv("VISITA_ACTOR_NAME"), "Acting user display name")
	flags.String("diocese", os.Getenv("VISITA_DIOCESE"), "Diocese of the acting user")
	flags.Bool("metrics", false, "Print workflow counters to stderr after the command")
}

// StoreActor reads the identity flags and stores them globally.
// Should be called once at CLI startup in PersistentPreRun.
func StoreActor(cmd *cobra.Command) {
	flags := cmd.Flags()
	uid, _ := flags.GetString("as")
	role, _ := flags.GetString("role")
	email, _ := flags.GetString("email")
	name, _ := flags.GetString("name")
	diocese, _ := flags.GetString("diocese")
	globalActor = ctxutil.Actor{UID: uid, Email: email, Name: name, Role: role, Diocese: diocese}
}

// PrintMetrics writes the counters collected during this invocation to
// stderr when --metrics is set.
func PrintMetrics(cmd *cobra.Command) error {
	if on, _ := cmd.Flags().GetBool("metrics"); !on {
		return nil
	}
	return metrics.WriteSummary(wire.Get().Registry, os.Stderr)
}

// GetActor returns the stored actor from CLI startup.
func GetActor() ctxutil.Actor {
	return globalActor
}

// NewContext creates a context.Background() with the current actor embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	ctx := gocontext.Background()
	if globalActor.UID != "" {
		return ctxutil.WithActor(ctx, globalActor)
	}
	return ctx
}
