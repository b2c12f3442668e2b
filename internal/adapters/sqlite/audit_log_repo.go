package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/visita/churchflow/internal/ports/secondary"
)

// AuditLogRepository implements secondary.AuditLogRepository with SQLite.
// The schema rejects UPDATE and DELETE on audit rows.
type AuditLogRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewAuditLogRepository creates a new SQLite audit log repository.
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db, now: time.Now}
}

// Append persists a new audit entry, assigning ID and Timestamp when empty.
func (r *AuditLogRepository) Append(ctx context.Context, entry *secondary.AuditLogRecord) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = r.now().UTC().Format(secondary.AuditTimestampLayout)
	}

	var metadata sql.NullString
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO status_change_audit_logs (id, church_id, action, from_status, to_status, changed_by_uid, changed_by_email, changed_by_name, changed_by_role, timestamp, note, metadata, is_automated, diocese) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ChurchID,
		entry.Action,
		nullString(entry.FromStatus),
		nullString(entry.ToStatus),
		entry.ChangedBy.UID,
		nullString(entry.ChangedBy.Email),
		nullString(entry.ChangedBy.Name),
		nullString(entry.ChangedBy.Role),
		entry.Timestamp,
		nullString(entry.Note),
		metadata,
		entry.IsAutomated,
		nullString(entry.Diocese),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}

	return nil
}

// List retrieves audit entries matching the given filters, oldest first.
func (r *AuditLogRepository) List(ctx context.Context, filters secondary.AuditLogFilters) ([]*secondary.AuditLogRecord, error) {
	query := `SELECT id, church_id, action, from_status, to_status, changed_by_uid, changed_by_email, changed_by_name, changed_by_role, timestamp, note, metadata, is_automated, diocese FROM status_change_audit_logs WHERE 1=1`
	args := []any{}

	if filters.ChurchID != "" {
		query += " AND church_id = ?"
		args = append(args, filters.ChurchID)
	}

	if filters.Action != "" {
		query += " AND action = ?"
		args = append(args, filters.Action)
	}

	if filters.ActorUID != "" {
		query += " AND changed_by_uid = ?"
		args = append(args, filters.ActorUID)
	}

	query += " ORDER BY timestamp ASC, rowid ASC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*secondary.AuditLogRecord
	for rows.Next() {
		var (
			fromStatus sql.NullString
			toStatus   sql.NullString
			email      sql.NullString
			name       sql.NullString
			role       sql.NullString
			note       sql.NullString
			metadata   sql.NullString
			diocese    sql.NullString
		)

		record := &secondary.AuditLogRecord{}
		err := rows.Scan(&record.ID,
			&record.ChurchID,
			&record.Action,
			&fromStatus,
			&toStatus,
			&record.ChangedBy.UID,
			&email,
			&name,
			&role,
			&record.Timestamp,
			&note,
			&metadata,
			&record.IsAutomated,
			&diocese)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		record.FromStatus = fromStatus.String
		record.ToStatus = toStatus.String
		record.ChangedBy.Email = email.String
		record.ChangedBy.Name = name.String
		record.ChangedBy.Role = role.String
		record.Note = note.String
		record.Diocese = diocese.String
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &record.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata of audit log %s: %w", record.ID, err)
			}
		}

		entries = append(entries, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	return entries, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Ensure AuditLogRepository implements the interface
var _ secondary.AuditLogRepository = (*AuditLogRepository)(nil)
