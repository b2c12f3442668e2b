package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete modern schema for fresh installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Repository tests
// load it through GetSchemaSQL() so a column referenced by repository code but
// missing here fails immediately with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Run `make test` to verify alignment
const SchemaSQL = `
-- Churches (canonical records; descriptive fields live in the JSON payload)
CREATE TABLE IF NOT EXISTS churches (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL CHECK(status IN ('pending', 'heritage_review', 'approved', 'rejected', 'under_review', 'needs_revision')) DEFAULT 'pending',
	classification TEXT NOT NULL DEFAULT 'unknown',
	diocese TEXT,
	fields TEXT NOT NULL DEFAULT '{}',
	has_pending_changes INTEGER NOT NULL DEFAULT 0 CHECK(has_pending_changes IN (0, 1)),
	pending_changes TEXT,
	version INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	CHECK ((has_pending_changes = 1) = (pending_changes IS NOT NULL))
);

CREATE INDEX IF NOT EXISTS idx_churches_status ON churches(status);
CREATE INDEX IF NOT EXISTS idx_churches_diocese ON churches(diocese);
CREATE INDEX IF NOT EXISTS idx_churches_pending ON churches(has_pending_changes);

-- Status change audit logs (append-only)
CREATE TABLE IF NOT EXISTS status_change_audit_logs (
	id TEXT PRIMARY KEY,
	church_id TEXT NOT NULL,
	action TEXT NOT NULL,
	from_status TEXT,
	to_status TEXT,
	changed_by_uid TEXT NOT NULL,
	changed_by_email TEXT,
	changed_by_name TEXT,
	changed_by_role TEXT,
	timestamp TEXT NOT NULL,
	note TEXT,
	metadata TEXT,
	is_automated INTEGER NOT NULL DEFAULT 0,
	diocese TEXT
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_church ON status_change_audit_logs(church_id);
CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON status_change_audit_logs(timestamp);

CREATE TRIGGER IF NOT EXISTS audit_logs_no_update
BEFORE UPDATE ON status_change_audit_logs
BEGIN
	SELECT RAISE(ABORT, 'audit log entries are append-only');
END;

CREATE TRIGGER IF NOT EXISTS audit_logs_no_delete
BEFORE DELETE ON status_change_audit_logs
BEGIN
	SELECT RAISE(ABORT, 'audit log entries are append-only');
END;
`

// InitSchema creates the database schema
func InitSchema(conn *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		// schema_version table exists - run any pending migrations
		return RunMigrations(conn)
	}

	var churchTables int
	err = conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='churches'").Scan(&churchTables)
	if err != nil {
		return err
	}
	if churchTables > 0 {
		// Unversioned database from before migrations were tracked
		return RunMigrations(conn)
	}

	// Completely fresh install - create modern schema directly
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := createVersionTable(conn); err != nil {
		return err
	}
	// Mark all migrations as applied for fresh installs
	for _, m := range migrations {
		if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
