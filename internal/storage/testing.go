package storage

import (
	"database/sql"
)

// NewTestDB wraps an already-open connection in a DB struct for testing.
// This helper is exported for use in other package tests.
func NewTestDB(sqlDB *sql.DB) *DB {
	return &DB{conn: sqlDB}
}

// TestSchema returns the full schema DDL for in-memory test databases,
// where the file-based migration runner cannot be used.
func TestSchema() string {
	data, err := migrationsFS.ReadFile("migrations/0001_initial_schema.up.sql")
	if err != nil {
		panic("storage: embedded schema missing: " + err.Error())
	}
	return string(data)
}
