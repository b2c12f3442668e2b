// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"strings"

	"github.com/fatih/color"
)

// colorizeStatus formats a workflow status with semantic color
func colorizeStatus(status string) string {
	upper := strings.ToUpper(status)
	switch status {
	case "approved":
		return color.New(color.FgGreen).Sprint(upper)
	case "heritage_review":
		return color.New(color.FgHiMagenta).Sprint(upper)
	case "pending":
		return color.New(color.FgYellow).Sprint(upper)
	case "rejected", "needs_revision":
		return color.New(color.FgRed).Sprint(upper)
	default:
		return upper
	}
}

func success(format string, args ...any) string {
	return color.New(color.FgGreen).Sprintf("✓ "+format, args...)
}

func failure(format string, args ...any) string {
	return color.New(color.FgRed).Sprintf("✗ "+format, args...)
}
