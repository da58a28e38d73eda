package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ahzmund/RefinedMTG/internal/storage"
	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
)

// ChangelogRepository handles database operations for the append-only
// deck changelog ledger.
type ChangelogRepository interface {
	// Create inserts a changelog entry and all of its card lines as one
	// transaction and bumps the deck's updated_at. The entry's ID and
	// timestamps are assigned if unset.
	Create(ctx context.Context, entry *models.Changelog) error

	// UpdateDescription mutates only the free-text description of an entry.
	UpdateDescription(ctx context.Context, id, description string) error

	// Delete removes an entry and its card lines. Deck memberships are
	// never touched: the ledger is provenance, not an undo log.
	Delete(ctx context.Context, id string) error

	// ListByDeck retrieves all entries for a deck, newest first, with
	// their card lines resolved to card data.
	ListByDeck(ctx context.Context, deckID string) ([]models.Changelog, error)

	// FindDaily finds a non-import-error entry for the given deck whose
	// change date falls on the same calendar day as day (local midnight
	// boundaries) and whose description equals marker.
	// Returns (nil, nil) when no such entry exists.
	FindDaily(ctx context.Context, deckID, marker string, day time.Time) (*models.Changelog, error)

	// AppendLines adds card lines to an existing entry in one transaction
	// and bumps the deck's updated_at.
	AppendLines(ctx context.Context, entryID, deckID string, lines []models.ChangelogCard) error
}

type changelogRepository struct {
	db *storage.DB
}

// NewChangelogRepository creates a new changelog repository.
func NewChangelogRepository(db *storage.DB) ChangelogRepository {
	return &changelogRepository{db: db}
}

// Create inserts a changelog entry and all of its card lines.
func (r *changelogRepository) Create(ctx context.Context, entry *models.Changelog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now()
	if entry.ChangeDate.IsZero() {
		entry.ChangeDate = now
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO changelogs (id, deck_id, change_date, description, is_import_error, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query,
			entry.ID,
			entry.DeckID,
			entry.ChangeDate.UnixMilli(),
			entry.Description,
			boolToInt(entry.IsImportError),
			entry.CreatedAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to create changelog: %w", err)
		}

		for i := range entry.CardsAdded {
			entry.CardsAdded[i].Action = models.ActionAdded
			if err := insertChangelogCard(ctx, tx, entry.ID, &entry.CardsAdded[i]); err != nil {
				return err
			}
		}
		for i := range entry.CardsRemoved {
			entry.CardsRemoved[i].Action = models.ActionRemoved
			if err := insertChangelogCard(ctx, tx, entry.ID, &entry.CardsRemoved[i]); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `UPDATE decks SET updated_at = ? WHERE id = ?`,
			now.UnixMilli(), entry.DeckID); err != nil {
			return fmt.Errorf("failed to touch deck updated_at: %w", err)
		}

		return nil
	})
}

// UpdateDescription mutates only the free-text description of an entry.
func (r *changelogRepository) UpdateDescription(ctx context.Context, id, description string) error {
	_, err := r.db.Conn().ExecContext(ctx, `UPDATE changelogs SET description = ? WHERE id = ?`, description, id)
	if err != nil {
		return fmt.Errorf("failed to update changelog description: %w", err)
	}
	return nil
}

// Delete removes an entry and its card lines.
func (r *changelogRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Conn().ExecContext(ctx, `DELETE FROM changelogs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete changelog: %w", err)
	}
	return nil
}

// ListByDeck retrieves all entries for a deck, newest first.
func (r *changelogRepository) ListByDeck(ctx context.Context, deckID string) ([]models.Changelog, error) {
	return listChangelogs(ctx, r.db.Conn(), deckID)
}

// FindDaily finds a same-calendar-day entry carrying the marker description.
func (r *changelogRepository) FindDaily(ctx context.Context, deckID, marker string, day time.Time) (*models.Changelog, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `
		SELECT id, deck_id, change_date, description, is_import_error, created_at
		FROM changelogs
		WHERE deck_id = ? AND description = ? AND is_import_error = 0
		  AND change_date >= ? AND change_date < ?
		ORDER BY change_date DESC, rowid DESC
		LIMIT 1
	`

	entry := models.Changelog{}
	var isImportError int
	var changeDate, createdAt int64
	err := r.db.Conn().QueryRowContext(ctx, query,
		deckID, marker, dayStart.UnixMilli(), dayEnd.UnixMilli(),
	).Scan(
		&entry.ID,
		&entry.DeckID,
		&changeDate,
		&entry.Description,
		&isImportError,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find daily changelog: %w", err)
	}

	entry.ChangeDate = time.UnixMilli(changeDate)
	entry.IsImportError = isImportError != 0
	entry.CreatedAt = time.UnixMilli(createdAt)
	return &entry, nil
}

// AppendLines adds card lines to an existing entry.
func (r *changelogRepository) AppendLines(ctx context.Context, entryID, deckID string, lines []models.ChangelogCard) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for i := range lines {
			if err := insertChangelogCard(ctx, tx, entryID, &lines[i]); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE decks SET updated_at = ? WHERE id = ?`,
			time.Now().UnixMilli(), deckID); err != nil {
			return fmt.Errorf("failed to touch deck updated_at: %w", err)
		}
		return nil
	})
}

func insertChangelogCard(ctx context.Context, tx *sql.Tx, changelogID string, line *models.ChangelogCard) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	line.ChangelogID = changelogID

	query := `
		INSERT INTO changelog_cards (id, changelog_id, card_id, action, quantity, reasoning)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		line.ID,
		line.ChangelogID,
		line.CardID,
		string(line.Action),
		line.Quantity,
		line.Reasoning,
	)
	if err != nil {
		return fmt.Errorf("failed to insert changelog card: %w", err)
	}
	return nil
}

// listChangelogs loads a deck's changelog entries with resolved card
// lines, newest first with creation order breaking same-millisecond
// ties. Shared with the deck aggregate read.
func listChangelogs(ctx context.Context, db *sql.DB, deckID string) ([]models.Changelog, error) {
	query := `
		SELECT id, deck_id, change_date, description, is_import_error, created_at
		FROM changelogs
		WHERE deck_id = ?
		ORDER BY change_date DESC, rowid DESC
	`

	rows, err := db.QueryContext(ctx, query, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list changelogs: %w", err)
	}
	defer rows.Close()

	var entries []models.Changelog
	for rows.Next() {
		entry := models.Changelog{}
		var isImportError int
		var changeDate, createdAt int64
		err := rows.Scan(
			&entry.ID,
			&entry.DeckID,
			&changeDate,
			&entry.Description,
			&isImportError,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan changelog: %w", err)
		}
		entry.ChangeDate = time.UnixMilli(changeDate)
		entry.IsImportError = isImportError != 0
		entry.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating changelogs: %w", err)
	}

	for i := range entries {
		if err := loadChangelogCards(ctx, db, &entries[i]); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func loadChangelogCards(ctx context.Context, db *sql.DB, entry *models.Changelog) error {
	query := `
		SELECT cc.id, cc.changelog_id, cc.card_id, cc.action, cc.quantity, cc.reasoning,
		       c.name, c.mana_cost, c.type_line, c.card_type, c.created_at
		FROM changelog_cards cc
		JOIN cards c ON cc.card_id = c.id
		WHERE cc.changelog_id = ?
	`

	rows, err := db.QueryContext(ctx, query, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to get changelog cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.ChangelogCard
		var action string
		var card models.Card
		var cardCreatedAt int64
		err := rows.Scan(
			&line.ID,
			&line.ChangelogID,
			&line.CardID,
			&action,
			&line.Quantity,
			&line.Reasoning,
			&card.Name,
			&card.Details.ManaCost,
			&card.Details.TypeLine,
			&card.Details.CardType,
			&cardCreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan changelog card: %w", err)
		}
		line.Action = models.ChangeAction(action)
		card.ID = line.CardID
		card.CreatedAt = time.UnixMilli(cardCreatedAt)
		line.Card = &card

		switch line.Action {
		case models.ActionAdded:
			entry.CardsAdded = append(entry.CardsAdded, line)
		case models.ActionRemoved:
			entry.CardsRemoved = append(entry.CardsRemoved, line)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating changelog cards: %w", err)
	}

	return nil
}
