// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/visita/churchflow/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedChurch inserts a test church with a JSON payload and returns its ID.
func seedChurch(t *testing.T, db *sql.DB, id, status, fields string) string {
	t.Helper()
	if id == "" {
		id = "CH-0001"
	}
	if status == "" {
		status = "pending"
	}
	if fields == "" {
		fields = `{"name":"Test Church"}`
	}
	_, err := db.Exec("INSERT INTO churches (id, status, classification, diocese, fields) VALUES (?, ?, 'unknown', 'tagbilaran', ?)", id, status, fields)
	if err != nil {
		t.Fatalf("failed to seed church: %v", err)
	}
	return id
}
