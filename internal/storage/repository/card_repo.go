// Package repository contains the database repositories for the deck
// manager: folders, decks, cached catalog cards and changelogs.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
)

// CardRepository handles database operations for cached catalog cards.
type CardRepository interface {
	// GetByName retrieves a card by canonical name, case-insensitively.
	// Returns (nil, nil) when no row matches.
	GetByName(ctx context.Context, name string) (*models.Card, error)

	// GetByID retrieves a card by its ID. Returns (nil, nil) when no row matches.
	GetByID(ctx context.Context, id string) (*models.Card, error)

	// Insert inserts a new card row together with its faces.
	// The card's ID and CreatedAt are assigned if unset.
	Insert(ctx context.Context, card *models.Card) error

	// UpdateDetails overwrites the detail columns (and the external catalog
	// id) of an existing card in place. Identity columns are untouched.
	// Any previously stored faces are replaced.
	UpdateDetails(ctx context.Context, id string, scryfallID *string, details models.CardDetails, faces []models.CardFace) error

	// UpdateCardType patches only the derived coarse type of a card.
	UpdateCardType(ctx context.Context, id string, cardType string) error

	// ListAll retrieves every cached card without faces, ordered by name.
	ListAll(ctx context.Context) ([]*models.Card, error)
}

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new card repository.
func NewCardRepository(db *sql.DB) CardRepository {
	return &cardRepository{db: db}
}

const cardColumns = `id, scryfall_id, name, mana_cost, type_line, card_type,
       oracle_text, power, toughness, loyalty, defense,
       image_uri, large_image_uri, created_at`

func scanCard(row interface{ Scan(dest ...any) error }) (*models.Card, error) {
	card := &models.Card{}
	var createdAt int64
	err := row.Scan(
		&card.ID,
		&card.ScryfallID,
		&card.Name,
		&card.Details.ManaCost,
		&card.Details.TypeLine,
		&card.Details.CardType,
		&card.Details.OracleText,
		&card.Details.Power,
		&card.Details.Toughness,
		&card.Details.Loyalty,
		&card.Details.Defense,
		&card.Details.ImageURI,
		&card.Details.LargeImageURI,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	card.CreatedAt = time.UnixMilli(createdAt)
	return card, nil
}

// GetByName retrieves a card by canonical name, case-insensitively.
func (r *cardRepository) GetByName(ctx context.Context, name string) (*models.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM cards WHERE name = ? COLLATE NOCASE`, cardColumns)

	card, err := scanCard(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card by name: %w", err)
	}

	if err := r.loadFaces(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// GetByID retrieves a card by its ID.
func (r *cardRepository) GetByID(ctx context.Context, id string) (*models.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM cards WHERE id = ?`, cardColumns)

	card, err := scanCard(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card by id: %w", err)
	}

	if err := r.loadFaces(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Insert inserts a new card row together with its faces.
func (r *cardRepository) Insert(ctx context.Context, card *models.Card) error {
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO cards (
			id, scryfall_id, name, mana_cost, type_line, card_type,
			oracle_text, power, toughness, loyalty, defense,
			image_uri, large_image_uri, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		card.ID,
		card.ScryfallID,
		card.Name,
		card.Details.ManaCost,
		card.Details.TypeLine,
		card.Details.CardType,
		card.Details.OracleText,
		card.Details.Power,
		card.Details.Toughness,
		card.Details.Loyalty,
		card.Details.Defense,
		card.Details.ImageURI,
		card.Details.LargeImageURI,
		card.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}

	for i := range card.Faces {
		if err := r.insertFace(ctx, card.ID, i, &card.Faces[i]); err != nil {
			return err
		}
	}

	return nil
}

// UpdateDetails overwrites the detail columns of an existing card in place.
func (r *cardRepository) UpdateDetails(ctx context.Context, id string, scryfallID *string, details models.CardDetails, faces []models.CardFace) error {
	query := `
		UPDATE cards
		SET scryfall_id = ?, mana_cost = ?, type_line = ?, card_type = ?,
		    oracle_text = ?, power = ?, toughness = ?, loyalty = ?, defense = ?,
		    image_uri = ?, large_image_uri = ?
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		scryfallID,
		details.ManaCost,
		details.TypeLine,
		details.CardType,
		details.OracleText,
		details.Power,
		details.Toughness,
		details.Loyalty,
		details.Defense,
		details.ImageURI,
		details.LargeImageURI,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update card details: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM card_faces WHERE card_id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear card faces: %w", err)
	}
	for i := range faces {
		if err := r.insertFace(ctx, id, i, &faces[i]); err != nil {
			return err
		}
	}

	return nil
}

// UpdateCardType patches only the derived coarse type of a card.
func (r *cardRepository) UpdateCardType(ctx context.Context, id string, cardType string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE cards SET card_type = ? WHERE id = ?`, cardType, id)
	if err != nil {
		return fmt.Errorf("failed to update card type: %w", err)
	}
	return nil
}

// ListAll retrieves every cached card without faces.
func (r *cardRepository) ListAll(ctx context.Context) ([]*models.Card, error) {
	query := fmt.Sprintf(`SELECT %s FROM cards ORDER BY name`, cardColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return cards, nil
}

func (r *cardRepository) insertFace(ctx context.Context, cardID string, index int, face *models.CardFace) error {
	if face.ID == "" {
		face.ID = uuid.New().String()
	}
	face.CardID = cardID
	face.FaceIndex = index

	query := `
		INSERT INTO card_faces (
			id, card_id, face_index, name, mana_cost, type_line,
			oracle_text, power, toughness, loyalty, image_uri, large_image_uri
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		face.ID,
		face.CardID,
		face.FaceIndex,
		face.Name,
		face.ManaCost,
		face.TypeLine,
		face.OracleText,
		face.Power,
		face.Toughness,
		face.Loyalty,
		face.ImageURI,
		face.LargeImageURI,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card face: %w", err)
	}
	return nil
}

func (r *cardRepository) loadFaces(ctx context.Context, card *models.Card) error {
	query := `
		SELECT id, card_id, face_index, name, mana_cost, type_line,
		       oracle_text, power, toughness, loyalty, image_uri, large_image_uri
		FROM card_faces
		WHERE card_id = ?
		ORDER BY face_index
	`

	rows, err := r.db.QueryContext(ctx, query, card.ID)
	if err != nil {
		return fmt.Errorf("failed to get card faces: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var face models.CardFace
		err := rows.Scan(
			&face.ID,
			&face.CardID,
			&face.FaceIndex,
			&face.Name,
			&face.ManaCost,
			&face.TypeLine,
			&face.OracleText,
			&face.Power,
			&face.Toughness,
			&face.Loyalty,
			&face.ImageURI,
			&face.LargeImageURI,
		)
		if err != nil {
			return fmt.Errorf("failed to scan card face: %w", err)
		}
		card.Faces = append(card.Faces, face)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating card faces: %w", err)
	}

	return nil
}
