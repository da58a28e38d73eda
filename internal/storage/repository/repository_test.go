package repository

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/Ahzmund/RefinedMTG/internal/storage"
	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
)

// setupTestDB creates an in-memory database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if _, err := db.Exec(storage.TestSchema()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Error closing database: %v", err)
		}
	})

	return db
}

// insertTestCard inserts a minimal card row and returns its ID.
func insertTestCard(t *testing.T, db *sql.DB, name string) string {
	t.Helper()

	repo := NewCardRepository(db)
	card := &models.Card{Name: name}
	if err := repo.Insert(context.Background(), card); err != nil {
		t.Fatalf("failed to insert card %q: %v", name, err)
	}
	return card.ID
}

// insertTestDeck inserts a deck and returns its ID.
func insertTestDeck(t *testing.T, db *sql.DB, name string) string {
	t.Helper()

	repo := NewDeckRepository(db)
	deck := &models.Deck{Name: name, Source: models.SourceManual}
	if err := repo.Create(context.Background(), deck); err != nil {
		t.Fatalf("failed to create deck %q: %v", name, err)
	}
	return deck.ID
}
