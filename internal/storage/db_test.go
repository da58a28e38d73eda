package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	cfg.AutoMigrate = true

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"folders", "decks", "cards", "card_faces", "deck_cards", "changelogs", "changelog_cards"} {
		var name string
		err := db.Conn().QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing after migration: %v", table, err)
		}
	}
}

func TestOpenEnablesForeignKeys(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "fk.db"))
	cfg.AutoMigrate = true

	db, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	var on int
	if err := db.Conn().QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("pragma query failed: %v", err)
	}
	if on != 1 {
		t.Error("foreign keys are not enabled")
	}
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Error("expected an error for nil config")
	}
}

func setupTxDB(t *testing.T) *DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(TestSchema()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewTestDB(conn)
}

func countFolders(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	if err := db.Conn().QueryRow(`SELECT COUNT(*) FROM folders`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

func TestWithTransactionCommits(t *testing.T) {
	db := setupTxDB(t)
	ctx := context.Background()

	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO folders (id, name, created_at) VALUES ('f1', 'Kept', 0)`)
		return err
	})
	if err != nil {
		t.Fatalf("WithTransaction failed: %v", err)
	}

	if n := countFolders(t, db); n != 1 {
		t.Errorf("expected 1 folder after commit, got %d", n)
	}
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := setupTxDB(t)
	ctx := context.Background()

	wantErr := errors.New("boom")
	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO folders (id, name, created_at) VALUES ('f1', 'Lost', 0)`); err != nil {
			return err
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	if n := countFolders(t, db); n != 0 {
		t.Errorf("expected rollback, found %d folders", n)
	}
}

func TestWithTransactionRollsBackOnPanic(t *testing.T) {
	db := setupTxDB(t)
	ctx := context.Background()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic was swallowed")
			}
		}()
		_ = db.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO folders (id, name, created_at) VALUES ('f1', 'Lost', 0)`); err != nil {
				return err
			}
			panic(fmt.Errorf("mid-transaction panic"))
		})
	}()

	if n := countFolders(t, db); n != 0 {
		t.Errorf("expected rollback after panic, found %d folders", n)
	}
}
