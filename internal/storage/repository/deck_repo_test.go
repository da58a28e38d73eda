package repository

import (
	"context"
	"testing"

	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
)

func TestDeckRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deck := &models.Deck{Name: "Mono Red", Source: models.SourceManual}
	if err := repo.Create(ctx, deck); err != nil {
		t.Fatalf("failed to create deck: %v", err)
	}
	if deck.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	retrieved, err := repo.GetByID(ctx, deck.ID)
	if err != nil {
		t.Fatalf("failed to retrieve deck: %v", err)
	}
	if retrieved == nil {
		t.Fatal("GetByID returned nil for created deck")
	}
	if retrieved.Name != "Mono Red" || retrieved.Source != models.SourceManual {
		t.Errorf("retrieved deck mismatch: %+v", retrieved)
	}
}

func TestDeckRepository_Rename(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deckID := insertTestDeck(t, db, "Old Name")
	if err := repo.Rename(ctx, deckID, "New Name"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	deck, err := repo.GetByID(ctx, deckID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if deck.Name != "New Name" {
		t.Errorf("expected renamed deck, got %q", deck.Name)
	}
}

func TestDeckRepository_GetByIDMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)

	deck, err := repo.GetByID(context.Background(), "no-such-deck")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if deck != nil {
		t.Errorf("expected nil for missing deck, got %+v", deck)
	}
}

func TestDeckRepository_AddCardMergesQuantity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deckID := insertTestDeck(t, db, "Merge Test")
	cardID := insertTestCard(t, db, "Llanowar Elves")

	if err := repo.AddCard(ctx, deckID, cardID, 2, false, false); err != nil {
		t.Fatalf("first AddCard failed: %v", err)
	}
	if err := repo.AddCard(ctx, deckID, cardID, 3, false, false); err != nil {
		t.Fatalf("second AddCard failed: %v", err)
	}

	dc, err := repo.GetCard(ctx, deckID, cardID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if dc == nil {
		t.Fatal("GetCard returned nil after adds")
	}
	if dc.Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", dc.Quantity)
	}
}

func TestDeckRepository_AddCardKeepsExistingFlags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deckID := insertTestDeck(t, db, "Flag Test")
	cardID := insertTestCard(t, db, "Atraxa, Praetors' Voice")

	if err := repo.AddCard(ctx, deckID, cardID, 1, true, false); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}
	// A later plain add must not strip the commander flag.
	if err := repo.AddCard(ctx, deckID, cardID, 1, false, false); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}

	dc, err := repo.GetCard(ctx, deckID, cardID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if !dc.IsCommander {
		t.Error("merge cleared the commander flag")
	}
	if dc.Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", dc.Quantity)
	}
}

func TestDeckRepository_RemoveCard(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deckID := insertTestDeck(t, db, "Remove Test")
	cardID := insertTestCard(t, db, "Shock")

	if err := repo.AddCard(ctx, deckID, cardID, 4, false, false); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}

	// Partial removal decrements.
	if err := repo.RemoveCard(ctx, deckID, cardID, 1); err != nil {
		t.Fatalf("RemoveCard failed: %v", err)
	}
	dc, err := repo.GetCard(ctx, deckID, cardID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if dc == nil || dc.Quantity != 3 {
		t.Fatalf("expected quantity 3 after partial removal, got %+v", dc)
	}

	// Removing at least the remaining copies deletes the row.
	if err := repo.RemoveCard(ctx, deckID, cardID, 5); err != nil {
		t.Fatalf("RemoveCard failed: %v", err)
	}
	dc, err = repo.GetCard(ctx, deckID, cardID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if dc != nil {
		t.Errorf("expected row deleted, got %+v", dc)
	}

	// Removing an absent card is a no-op.
	if err := repo.RemoveCard(ctx, deckID, cardID, 1); err != nil {
		t.Errorf("RemoveCard on absent card should be a no-op, got %v", err)
	}
}

func TestDeckRepository_FlagExclusivity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deckID := insertTestDeck(t, db, "Exclusive Flags")
	cardID := insertTestCard(t, db, "Kenrith, the Returned King")

	if err := repo.AddCard(ctx, deckID, cardID, 1, false, true); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}
	dc, err := repo.GetCard(ctx, deckID, cardID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}

	// Promoting a sideboard card to commander must pull it out of the
	// sideboard.
	if err := repo.SetCommanderFlag(ctx, deckID, dc.ID, true); err != nil {
		t.Fatalf("SetCommanderFlag failed: %v", err)
	}
	dc, err = repo.GetCard(ctx, deckID, cardID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if !dc.IsCommander || dc.IsSideboard {
		t.Errorf("expected commander=true sideboard=false, got commander=%v sideboard=%v", dc.IsCommander, dc.IsSideboard)
	}

	// And sideboarding a commander must demote it.
	if err := repo.SetSideboardFlag(ctx, deckID, dc.ID, true); err != nil {
		t.Fatalf("SetSideboardFlag failed: %v", err)
	}
	dc, err = repo.GetCard(ctx, deckID, cardID)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if dc.IsCommander || !dc.IsSideboard {
		t.Errorf("expected commander=false sideboard=true, got commander=%v sideboard=%v", dc.IsCommander, dc.IsSideboard)
	}
}

func TestDeckRepository_ListCountsCards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deckID := insertTestDeck(t, db, "Counted")
	insertTestDeck(t, db, "Empty")

	cardA := insertTestCard(t, db, "Island")
	cardB := insertTestCard(t, db, "Counterspell")
	if err := repo.AddCard(ctx, deckID, cardA, 1, false, false); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}
	if err := repo.AddCard(ctx, deckID, cardB, 1, false, false); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}

	decks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(decks) != 2 {
		t.Fatalf("expected 2 decks, got %d", len(decks))
	}

	counts := make(map[string]int)
	for _, d := range decks {
		counts[d.Name] = d.CardCount
	}
	if counts["Counted"] != 2 {
		t.Errorf("expected 2 distinct cards counted, got %d", counts["Counted"])
	}
	if counts["Empty"] != 0 {
		t.Errorf("expected 0 cards for empty deck, got %d", counts["Empty"])
	}
}

func TestDeckRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deckID := insertTestDeck(t, db, "Doomed")
	cardID := insertTestCard(t, db, "Doom Blade")
	if err := repo.AddCard(ctx, deckID, cardID, 1, false, false); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}

	if err := repo.Delete(ctx, deckID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM deck_cards WHERE deck_id = ?`, deckID).Scan(&n); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected memberships cascaded, %d rows remain", n)
	}
}

func TestDeckRepository_GetWithCards(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeckRepository(db)
	ctx := context.Background()

	deckID := insertTestDeck(t, db, "Aggregate")
	cardID := insertTestCard(t, db, "Grizzly Bears")
	if err := repo.AddCard(ctx, deckID, cardID, 4, false, false); err != nil {
		t.Fatalf("AddCard failed: %v", err)
	}

	full, err := repo.GetWithCards(ctx, deckID)
	if err != nil {
		t.Fatalf("GetWithCards failed: %v", err)
	}
	if full == nil {
		t.Fatal("GetWithCards returned nil")
	}
	if len(full.Cards) != 1 {
		t.Fatalf("expected 1 membership, got %d", len(full.Cards))
	}
	if full.Cards[0].Card == nil || full.Cards[0].Card.Name != "Grizzly Bears" {
		t.Errorf("membership card not resolved: %+v", full.Cards[0].Card)
	}
}
