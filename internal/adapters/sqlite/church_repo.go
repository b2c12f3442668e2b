// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/visita/churchflow/internal/ports/secondary"
)

const churchColumns = `id, status, classification, diocese, fields, has_pending_changes, pending_changes, version, created_at, updated_at`

// ChurchRepository implements secondary.ChurchRepository with SQLite.
type ChurchRepository struct {
	db *sql.DB
}

// NewChurchRepository creates a new SQLite church repository.
func NewChurchRepository(db *sql.DB) *ChurchRepository {
	return &ChurchRepository{db: db}
}

// Create persists a new church.
func (r *ChurchRepository) Create(ctx context.Context, church *secondary.ChurchRecord) error {
	fields, err := encodeFields(church.Fields)
	if err != nil {
		return err
	}
	pending, err := encodePending(church.PendingChanges)
	if err != nil {
		return err
	}

	var diocese sql.NullString
	if church.Diocese != "" {
		diocese = sql.NullString{String: church.Diocese, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO churches (id, status, classification, diocese, fields, has_pending_changes, pending_changes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		church.ID,
		church.Status,
		church.Classification,
		diocese,
		fields,
		pending.Valid,
		pending,
	)
	if err != nil {
		return fmt.Errorf("failed to create church: %w", err)
	}

	return nil
}

// GetByID retrieves a church by its ID.
func (r *ChurchRepository) GetByID(ctx context.Context, id string) (*secondary.ChurchRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+churchColumns+" FROM churches WHERE id = ?", id)
	record, err := scanChurch(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", secondary.ErrChurchNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get church: %w", err)
	}
	return record, nil
}

// Update applies a partial update to a single church inside one transaction.
// Payload fields are replaced whole; a nil value removes the key.
func (r *ChurchRepository) Update(ctx context.Context, id string, update secondary.ChurchUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin church update: %w", err)
	}
	defer tx.Rollback()

	var (
		status         string
		classification string
		fields         string
		hasPending     bool
		pending        sql.NullString
		version        int
	)
	err = tx.QueryRowContext(ctx,
		"SELECT status, classification, fields, has_pending_changes, pending_changes, version FROM churches WHERE id = ?",
		id,
	).Scan(&status, &classification, &fields, &hasPending, &pending, &version)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", secondary.ErrChurchNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read church for update: %w", err)
	}

	if update.ExpectedStatus != "" && status != update.ExpectedStatus {
		return fmt.Errorf("%w: expected %s, found %s", secondary.ErrStatusConflict, update.ExpectedStatus, status)
	}

	if update.Status != "" {
		status = update.Status
	}
	if update.Classification != "" {
		classification = update.Classification
	}
	if len(update.Fields) > 0 {
		fields, err = patchFields(fields, update.Fields)
		if err != nil {
			return err
		}
	}
	if update.ClearPendingChanges {
		pending = sql.NullString{}
	}
	if update.PendingChanges != nil {
		pending, err = encodePending(update.PendingChanges)
		if err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE churches SET status = ?, classification = ?, fields = ?, has_pending_changes = ?, pending_changes = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND version = ?`,
		status, classification, fields, pending.Valid, pending, id, version,
	)
	if err != nil {
		return fmt.Errorf("failed to update church: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: church %s was modified concurrently", secondary.ErrStatusConflict, id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit church update: %w", err)
	}
	return nil
}

// List retrieves churches matching the given filters.
func (r *ChurchRepository) List(ctx context.Context, filters secondary.ChurchFilters) ([]*secondary.ChurchRecord, error) {
	query := "SELECT " + churchColumns + " FROM churches WHERE 1=1"
	args := []any{}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	if filters.Diocese != "" {
		query += " AND diocese = ?"
		args = append(args, filters.Diocese)
	}

	if filters.Classification != "" {
		query += " AND classification = ?"
		args = append(args, filters.Classification)
	}

	if filters.HasPendingChanges != nil {
		query += " AND has_pending_changes = ?"
		args = append(args, *filters.HasPendingChanges)
	}

	query += " ORDER BY id ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list churches: %w", err)
	}
	defer rows.Close()

	var churches []*secondary.ChurchRecord
	for rows.Next() {
		record, err := scanChurch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan church: %w", err)
		}
		churches = append(churches, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list churches: %w", err)
	}

	return churches, nil
}

// GetNextID returns the next available church ID.
func (r *ChurchRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	prefixLen := len("CH-") + 1
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM churches", prefixLen),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next church ID: %w", err)
	}

	return fmt.Sprintf("CH-%04d", maxID+1), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChurch(row rowScanner) (*secondary.ChurchRecord, error) {
	var (
		diocese   sql.NullString
		fields    string
		pending   sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)

	record := &secondary.ChurchRecord{}
	err := row.Scan(&record.ID,
		&record.Status,
		&record.Classification,
		&diocese,
		&fields,
		&record.HasPendingChanges,
		&pending,
		&record.Version,
		&createdAt,
		&updatedAt)
	if err != nil {
		return nil, err
	}

	record.Diocese = diocese.String
	record.CreatedAt = createdAt.Format(time.RFC3339)
	record.UpdatedAt = updatedAt.Format(time.RFC3339)

	if err := json.Unmarshal([]byte(fields), &record.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields of church %s: %w", record.ID, err)
	}
	if record.Fields == nil {
		record.Fields = map[string]any{}
	}
	if pending.Valid {
		record.PendingChanges = &secondary.PendingChangesRecord{}
		if err := json.Unmarshal([]byte(pending.String), record.PendingChanges); err != nil {
			return nil, fmt.Errorf("failed to decode pending changes of church %s: %w", record.ID, err)
		}
	}

	return record, nil
}

func encodeFields(fields map[string]any) (string, error) {
	if fields == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode church fields: %w", err)
	}
	return string(raw), nil
}

func encodePending(p *secondary.PendingChangesRecord) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode pending changes: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

// patchFields applies one JSON Patch operation per top-level field to the
// stored payload document.
func patchFields(doc string, changes map[string]any) (string, error) {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ops := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		path := "/" + pointerEscaper.Replace(k)
		if changes[k] == nil {
			ops = append(ops, map[string]any{"op": "remove", "path": path})
			continue
		}
		ops = append(ops, map[string]any{"op": "add", "path": path, "value": changes[k]})
	}

	raw, err := json.Marshal(ops)
	if err != nil {
		return "", fmt.Errorf("failed to encode field patch: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode field patch: %w", err)
	}

	opts := jsonpatch.NewApplyOptions()
	opts.AllowMissingPathOnRemove = true
	patched, err := patch.ApplyWithOptions([]byte(doc), opts)
	if err != nil {
		return "", fmt.Errorf("failed to patch church fields: %w", err)
	}
	return string(patched), nil
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Ensure ChurchRepository implements the interface
var _ secondary.ChurchRepository = (*ChurchRepository)(nil)
