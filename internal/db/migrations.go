package db

import (
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_churches_and_audit_logs",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_version_to_churches",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "make_audit_logs_append_only",
		Up:      migrationV3,
	},
}

// LatestVersion returns the highest known migration version.
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

// CurrentVersion returns the highest applied migration version, or 0.
func CurrentVersion(conn *sql.DB) (int, error) {
	var version int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current schema version: %w", err)
	}
	return version, nil
}

// RunMigrations executes all pending migrations
func RunMigrations(conn *sql.DB) error {
	if err := createVersionTable(conn); err != nil {
		return err
	}

	currentVersion, err := CurrentVersion(conn)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		logrus.WithFields(logrus.Fields{
			"version": migration.Version,
			"name":    migration.Name,
		}).Info("migration applied")
	}

	return nil
}

func createVersionTable(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// migrationV1 creates the church and audit log tables
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS churches (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL CHECK(status IN ('pending', 'heritage_review', 'approved', 'rejected', 'under_review', 'needs_revision')) DEFAULT 'pending',
			classification TEXT NOT NULL DEFAULT 'unknown',
			diocese TEXT,
			fields TEXT NOT NULL DEFAULT '{}',
			has_pending_changes INTEGER NOT NULL DEFAULT 0 CHECK(has_pending_changes IN (0, 1)),
			pending_changes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CHECK ((has_pending_changes = 1) = (pending_changes IS NOT NULL))
		);

		CREATE INDEX IF NOT EXISTS idx_churches_status ON churches(status);
		CREATE INDEX IF NOT EXISTS idx_churches_diocese ON churches(diocese);
		CREATE INDEX IF NOT EXISTS idx_churches_pending ON churches(has_pending_changes);

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
	`)
	return err
}

// migrationV2 adds the optimistic concurrency counter to churches
func migrationV2(tx *sql.Tx) error {
	exists, err := columnExists(tx, "churches", "version")
	if err != nil || exists {
		return err
	}
	_, err = tx.Exec("ALTER TABLE churches ADD COLUMN version INTEGER NOT NULL DEFAULT 0")
	return err
}

// migrationV3 blocks updates and deletes on audit log rows
func migrationV3(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	var count int
	err := tx.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	return count > 0, nil
}
