package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
)

// DeckRepository handles database operations for decks and their card
// memberships.
type DeckRepository interface {
	// Create inserts a new deck. The deck's ID and timestamps are assigned
	// if unset.
	Create(ctx context.Context, deck *models.Deck) error

	// Rename updates a deck's display name and bumps updated_at.
	Rename(ctx context.Context, id, name string) error

	// GetByID retrieves a deck by its ID. Returns (nil, nil) if not found.
	GetByID(ctx context.Context, id string) (*models.Deck, error)

	// List retrieves all decks with folder names and card counts,
	// most recently updated first.
	List(ctx context.Context) ([]*models.Deck, error)

	// Delete deletes a deck. Memberships and changelog entries cascade.
	Delete(ctx context.Context, id string) error

	// AddCard adds quantity copies of a card to a deck. If a membership row
	// already exists for this (deck, card) pair its quantity is incremented
	// and its zone flags are left untouched; otherwise a new row is inserted
	// with the given flags. Bumps the deck's updated_at.
	AddCard(ctx context.Context, deckID, cardID string, quantity int, isCommander, isSideboard bool) error

	// RemoveCard removes quantity copies of a card from a deck. The row is
	// deleted when its quantity drops to zero or below. Removing a card with
	// no membership row is a no-op. Bumps updated_at when a row existed.
	RemoveCard(ctx context.Context, deckID, cardID string, quantity int) error

	// GetCard retrieves the membership row for a (deck, card) pair.
	// Returns (nil, nil) if the card is not in the deck.
	GetCard(ctx context.Context, deckID, cardID string) (*models.DeckCard, error)

	// SetCommanderFlag sets or clears the commander flag on a membership.
	// Setting it clears the sideboard flag: a commander is never sideboard.
	SetCommanderFlag(ctx context.Context, deckID, membershipID string, isCommander bool) error

	// SetSideboardFlag sets or clears the sideboard flag on a membership.
	// Setting it clears the commander flag.
	SetSideboardFlag(ctx context.Context, deckID, membershipID string, isSideboard bool) error

	// GetWithCards assembles the full deck aggregate: the deck, its
	// memberships with resolved cards, and its changelog entries with
	// resolved card lines, newest first. Returns (nil, nil) if not found.
	GetWithCards(ctx context.Context, deckID string) (*models.DeckWithCards, error)

	// TouchUpdatedAt bumps the deck's updated_at to now.
	TouchUpdatedAt(ctx context.Context, deckID string) error
}

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new deck repository.
func NewDeckRepository(db *sql.DB) DeckRepository {
	return &deckRepository{db: db}
}

// Create inserts a new deck.
func (r *deckRepository) Create(ctx context.Context, deck *models.Deck) error {
	if deck.ID == "" {
		deck.ID = uuid.New().String()
	}
	now := time.Now()
	if deck.CreatedAt.IsZero() {
		deck.CreatedAt = now
	}
	if deck.UpdatedAt.IsZero() {
		deck.UpdatedAt = now
	}
	if deck.Source == "" {
		deck.Source = models.SourceEmpty
	}

	query := `
		INSERT INTO decks (id, name, folder_id, source, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		deck.ID,
		deck.Name,
		deck.FolderID,
		string(deck.Source),
		deck.CreatedAt.UnixMilli(),
		deck.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to create deck: %w", err)
	}

	return nil
}

// Rename updates a deck's display name.
func (r *deckRepository) Rename(ctx context.Context, id, name string) error {
	query := `UPDATE decks SET name = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, name, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to rename deck: %w", err)
	}
	return nil
}

func scanDeck(row interface{ Scan(dest ...any) error }) (*models.Deck, error) {
	deck := &models.Deck{}
	var source string
	var createdAt, updatedAt int64
	err := row.Scan(
		&deck.ID,
		&deck.Name,
		&deck.FolderID,
		&source,
		&createdAt,
		&updatedAt,
		&deck.FolderName,
	)
	if err != nil {
		return nil, err
	}
	deck.Source = models.DeckSource(source)
	deck.CreatedAt = time.UnixMilli(createdAt)
	deck.UpdatedAt = time.UnixMilli(updatedAt)
	return deck, nil
}

// GetByID retrieves a deck by its ID.
func (r *deckRepository) GetByID(ctx context.Context, id string) (*models.Deck, error) {
	query := `
		SELECT d.id, d.name, d.folder_id, d.source, d.created_at, d.updated_at, f.name
		FROM decks d
		LEFT JOIN folders f ON d.folder_id = f.id
		WHERE d.id = ?
	`

	deck, err := scanDeck(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck by id: %w", err)
	}

	return deck, nil
}

// List retrieves all decks with folder names and card counts.
func (r *deckRepository) List(ctx context.Context) ([]*models.Deck, error) {
	query := `
		SELECT d.id, d.name, d.folder_id, d.source, d.created_at, d.updated_at,
		       f.name, COUNT(dc.id)
		FROM decks d
		LEFT JOIN folders f ON d.folder_id = f.id
		LEFT JOIN deck_cards dc ON d.id = dc.deck_id
		GROUP BY d.id
		ORDER BY d.updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}
	defer rows.Close()

	var decks []*models.Deck
	for rows.Next() {
		deck := &models.Deck{}
		var source string
		var createdAt, updatedAt int64
		err := rows.Scan(
			&deck.ID,
			&deck.Name,
			&deck.FolderID,
			&source,
			&createdAt,
			&updatedAt,
			&deck.FolderName,
			&deck.CardCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck: %w", err)
		}
		deck.Source = models.DeckSource(source)
		deck.CreatedAt = time.UnixMilli(createdAt)
		deck.UpdatedAt = time.UnixMilli(updatedAt)
		decks = append(decks, deck)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decks: %w", err)
	}

	return decks, nil
}

// Delete deletes a deck by its ID.
func (r *deckRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	return nil
}

// AddCard adds quantity copies of a card to a deck.
func (r *deckRepository) AddCard(ctx context.Context, deckID, cardID string, quantity int, isCommander, isSideboard bool) error {
	now := time.Now()

	existing, err := r.GetCard(ctx, deckID, cardID)
	if err != nil {
		return err
	}

	if existing != nil {
		query := `UPDATE deck_cards SET quantity = ? WHERE id = ?`
		if _, err := r.db.ExecContext(ctx, query, existing.Quantity+quantity, existing.ID); err != nil {
			return fmt.Errorf("failed to update deck card quantity: %w", err)
		}
	} else {
		query := `
			INSERT INTO deck_cards (id, deck_id, card_id, quantity, is_commander, is_sideboard, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.db.ExecContext(ctx, query,
			uuid.New().String(),
			deckID,
			cardID,
			quantity,
			boolToInt(isCommander),
			boolToInt(isSideboard),
			now.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to add card to deck: %w", err)
		}
	}

	return r.TouchUpdatedAt(ctx, deckID)
}

// RemoveCard removes quantity copies of a card from a deck.
func (r *deckRepository) RemoveCard(ctx context.Context, deckID, cardID string, quantity int) error {
	existing, err := r.GetCard(ctx, deckID, cardID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if existing.Quantity <= quantity {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM deck_cards WHERE id = ?`, existing.ID); err != nil {
			return fmt.Errorf("failed to remove card from deck: %w", err)
		}
	} else {
		query := `UPDATE deck_cards SET quantity = ? WHERE id = ?`
		if _, err := r.db.ExecContext(ctx, query, existing.Quantity-quantity, existing.ID); err != nil {
			return fmt.Errorf("failed to decrement deck card quantity: %w", err)
		}
	}

	return r.TouchUpdatedAt(ctx, deckID)
}

// GetCard retrieves the membership row for a (deck, card) pair.
func (r *deckRepository) GetCard(ctx context.Context, deckID, cardID string) (*models.DeckCard, error) {
	query := `
		SELECT id, deck_id, card_id, quantity, is_commander, is_sideboard, added_at
		FROM deck_cards
		WHERE deck_id = ? AND card_id = ?
	`

	dc := &models.DeckCard{}
	var isCommander, isSideboard int
	var addedAt int64
	err := r.db.QueryRowContext(ctx, query, deckID, cardID).Scan(
		&dc.ID,
		&dc.DeckID,
		&dc.CardID,
		&dc.Quantity,
		&isCommander,
		&isSideboard,
		&addedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck card: %w", err)
	}

	dc.IsCommander = isCommander != 0
	dc.IsSideboard = isSideboard != 0
	dc.AddedAt = time.UnixMilli(addedAt)
	return dc, nil
}

// SetCommanderFlag sets or clears the commander flag on a membership.
func (r *deckRepository) SetCommanderFlag(ctx context.Context, deckID, membershipID string, isCommander bool) error {
	query := `UPDATE deck_cards SET is_commander = ?, is_sideboard = CASE WHEN ? THEN 0 ELSE is_sideboard END WHERE id = ? AND deck_id = ?`

	_, err := r.db.ExecContext(ctx, query, boolToInt(isCommander), boolToInt(isCommander), membershipID, deckID)
	if err != nil {
		return fmt.Errorf("failed to set commander flag: %w", err)
	}

	return r.TouchUpdatedAt(ctx, deckID)
}

// SetSideboardFlag sets or clears the sideboard flag on a membership.
func (r *deckRepository) SetSideboardFlag(ctx context.Context, deckID, membershipID string, isSideboard bool) error {
	query := `UPDATE deck_cards SET is_sideboard = ?, is_commander = CASE WHEN ? THEN 0 ELSE is_commander END WHERE id = ? AND deck_id = ?`

	_, err := r.db.ExecContext(ctx, query, boolToInt(isSideboard), boolToInt(isSideboard), membershipID, deckID)
	if err != nil {
		return fmt.Errorf("failed to set sideboard flag: %w", err)
	}

	return r.TouchUpdatedAt(ctx, deckID)
}

// TouchUpdatedAt bumps the deck's updated_at to now.
func (r *deckRepository) TouchUpdatedAt(ctx context.Context, deckID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE decks SET updated_at = ? WHERE id = ?`, time.Now().UnixMilli(), deckID)
	if err != nil {
		return fmt.Errorf("failed to touch deck updated_at: %w", err)
	}
	return nil
}

// GetWithCards assembles the full deck aggregate for display.
func (r *deckRepository) GetWithCards(ctx context.Context, deckID string) (*models.DeckWithCards, error) {
	deck, err := r.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, nil
	}

	agg := &models.DeckWithCards{Deck: *deck}

	query := `
		SELECT dc.id, dc.deck_id, dc.card_id, dc.quantity, dc.is_commander, dc.is_sideboard, dc.added_at,
		       c.id, c.scryfall_id, c.name, c.mana_cost, c.type_line, c.card_type,
		       c.oracle_text, c.power, c.toughness, c.loyalty, c.defense,
		       c.image_uri, c.large_image_uri, c.created_at
		FROM deck_cards dc
		JOIN cards c ON dc.card_id = c.id
		WHERE dc.deck_id = ?
		ORDER BY c.card_type, c.name
	`

	rows, err := r.db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deck cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc models.DeckCard
		var card models.Card
		var isCommander, isSideboard int
		var addedAt, cardCreatedAt int64
		err := rows.Scan(
			&dc.ID, &dc.DeckID, &dc.CardID, &dc.Quantity, &isCommander, &isSideboard, &addedAt,
			&card.ID, &card.ScryfallID, &card.Name,
			&card.Details.ManaCost, &card.Details.TypeLine, &card.Details.CardType,
			&card.Details.OracleText, &card.Details.Power, &card.Details.Toughness,
			&card.Details.Loyalty, &card.Details.Defense,
			&card.Details.ImageURI, &card.Details.LargeImageURI, &cardCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck card: %w", err)
		}
		dc.IsCommander = isCommander != 0
		dc.IsSideboard = isSideboard != 0
		dc.AddedAt = time.UnixMilli(addedAt)
		card.CreatedAt = time.UnixMilli(cardCreatedAt)
		dc.Card = &card
		agg.Cards = append(agg.Cards, dc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deck cards: %w", err)
	}

	changelogs, err := listChangelogs(ctx, r.db, deckID)
	if err != nil {
		return nil, err
	}
	agg.Changelogs = changelogs

	return agg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
