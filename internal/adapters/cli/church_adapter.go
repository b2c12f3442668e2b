package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/visita/churchflow/internal/ports/primary"
)

// ChurchAdapter translates CLI operations to ChurchService and
// StagedUpdateService calls.
type ChurchAdapter struct {
	churches primary.ChurchService
	staged   primary.StagedUpdateService
	out      io.Writer
}

// NewChurchAdapter creates a new ChurchAdapter with the given services.
func NewChurchAdapter(churches primary.ChurchService, staged primary.StagedUpdateService, out io.Writer) *ChurchAdapter {
	return &ChurchAdapter{
		churches: churches,
		staged:   staged,
		out:      out,
	}
}

// Create registers a new church.
func (a *ChurchAdapter) Create(ctx context.Context, req primary.CreateChurchRequest) error {
	resp, err := a.churches.CreateChurch(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, success("Created church %s: %s (%s)", resp.ChurchID, resp.Church.Name, resp.Church.Status))
	return nil
}

// List lists churches with optional filters.
func (a *ChurchAdapter) List(ctx context.Context, filters primary.ChurchFilters) error {
	churches, err := a.churches.ListChurches(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list churches: %w", err)
	}

	if len(churches) == 0 {
		fmt.Fprintln(a.out, "No churches found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-10s %-17s %-14s %-8s %s\n", "ID", "STATUS", "CLASS", "EDITS", "NAME")
	fmt.Fprintln(a.out, "────────────────────────────────────────────────────────────────")
	for _, c := range churches {
		edits := ""
		if c.HasPendingChanges {
			edits = "staged"
		}
		fmt.Fprintf(a.out, "%-10s %-17s %-14s %-8s %s\n", c.ID, c.Status, c.Classification, edits, c.Name)
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays details for a single church, including any staged edit.
func (a *ChurchAdapter) Show(ctx context.Context, churchID string) (*primary.Church, error) {
	church, err := a.churches.GetChurch(ctx, churchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get church: %w", err)
	}

	fmt.Fprintf(a.out, "\nChurch:  %s\n", church.ID)
	fmt.Fprintf(a.out, "Name:    %s\n", church.Name)
	fmt.Fprintf(a.out, "Status:  %s\n", colorizeStatus(church.Status))
	fmt.Fprintf(a.out, "Class:   %s\n", church.Classification)
	if church.Diocese != "" {
		fmt.Fprintf(a.out, "Diocese: %s\n", church.Diocese)
	}
	for _, k := range sortedKeys(church.Fields) {
		if k == "name" {
			continue
		}
		fmt.Fprintf(a.out, "  %s: %v\n", k, church.Fields[k])
	}

	if p := church.PendingChanges; p != nil {
		fmt.Fprintf(a.out, "\nStaged edit by %s", p.SubmittedBy)
		if p.SubmittedAt != "" {
			fmt.Fprintf(a.out, " at %s", p.SubmittedAt)
		}
		fmt.Fprintln(a.out)
		if p.ForwardedToMuseum {
			fmt.Fprintf(a.out, "Forwarded to museum by %s at %s\n", p.ForwardedBy, p.ForwardedAt)
		}
		for _, f := range p.ChangedFields {
			fmt.Fprintf(a.out, "  %s: %v → %v\n", f, church.Fields[f], p.Data[f])
		}
	}
	fmt.Fprintln(a.out)

	return church, nil
}

// Edit submits a content edit.
func (a *ChurchAdapter) Edit(ctx context.Context, req primary.SubmitUpdateRequest) error {
	result := a.staged.SubmitUpdate(ctx, req)
	if !result.Success {
		return errors.New(result.Error)
	}

	if len(result.PublishedFields) == 0 && len(result.StagedFields) == 0 {
		fmt.Fprintf(a.out, "No changes to church %s\n", req.ChurchID)
		return nil
	}
	if len(result.PublishedFields) > 0 {
		fmt.Fprintln(a.out, success("Published: %s", strings.Join(result.PublishedFields, ", ")))
	}
	if len(result.StagedFields) > 0 {
		fmt.Fprintf(a.out, "Awaiting review: %s\n", strings.Join(result.StagedFields, ", "))
	}
	return nil
}

// Apply merges the staged edit into the church record.
func (a *ChurchAdapter) Apply(ctx context.Context, req primary.ApplyPendingChangesRequest) error {
	result := a.staged.ApplyPendingChanges(ctx, req)
	if !result.Success {
		return errors.New(result.Error)
	}

	fmt.Fprintln(a.out, success("Applied staged changes to %s", req.ChurchID))
	return nil
}

// Forward sends the staged edit to the museum researcher.
func (a *ChurchAdapter) Forward(ctx context.Context, req primary.ForwardPendingChangesRequest) error {
	result := a.staged.ForwardPendingChangesToMuseum(ctx, req)
	if !result.Success {
		return errors.New(result.Error)
	}

	fmt.Fprintln(a.out, success("Forwarded staged changes for %s to museum review", req.ChurchID))
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
