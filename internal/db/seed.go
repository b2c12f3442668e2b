package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SeedFixtures populates the database with development fixtures covering
// every active workflow status and a staged edit on a published church.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC().Format(time.RFC3339)

	churches := []struct {
		id, status, classification, diocese string
		fields                              map[string]any
		pending                             map[string]any
	}{
		{
			id: "CH-0001", status: "approved", classification: "ICP", diocese: "tagbilaran",
			fields: map[string]any{
				"name":          "Baclayon Church",
				"municipality":  "Baclayon",
				"foundingYear":  1596,
				"massSchedules": []string{"Sun 06:00", "Sun 17:00"},
				"latitude":      9.6228,
				"longitude":     123.9135,
			},
			pending: map[string]any{
				"data":          map[string]any{"historicalBackground": "One of the oldest stone churches in the country."},
				"changedFields": []string{"historicalBackground"},
				"submittedBy":   "parish-baclayon",
				"submittedAt":   now,
			},
		},
		{
			id: "CH-0002", status: "heritage_review", classification: "NCT", diocese: "tagbilaran",
			fields: map[string]any{"name": "Loboc Church", "municipality": "Loboc"},
		},
		{
			id: "CH-0003", status: "pending", classification: "non_heritage", diocese: "talibon",
			fields: map[string]any{"name": "Talibon Cathedral", "municipality": "Talibon"},
		},
	}

	for _, c := range churches {
		fields, err := json.Marshal(c.fields)
		if err != nil {
			return fmt.Errorf("seed churches: %w", err)
		}
		var pending sql.NullString
		if c.pending != nil {
			raw, err := json.Marshal(c.pending)
			if err != nil {
				return fmt.Errorf("seed churches: %w", err)
			}
			pending = sql.NullString{String: string(raw), Valid: true}
		}
		if _, err := database.Exec(
			"INSERT INTO churches (id, status, classification, diocese, fields, has_pending_changes, pending_changes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			c.id, c.status, c.classification, c.diocese, string(fields), pending.Valid, pending, now,
		); err != nil {
			return fmt.Errorf("seed churches: %w", err)
		}
	}

	return nil
}
