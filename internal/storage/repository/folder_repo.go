package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
)

// FolderRepository handles database operations for deck folders.
type FolderRepository interface {
	// List retrieves all folders ordered by name.
	List(ctx context.Context) ([]*models.Folder, error)

	// Create inserts a new folder. The folder's ID and CreatedAt are
	// assigned if unset.
	Create(ctx context.Context, folder *models.Folder) error

	// Rename updates a folder's name.
	Rename(ctx context.Context, id, name string) error

	// Delete removes a folder. Decks in the folder are detached, not deleted.
	Delete(ctx context.Context, id string) error

	// MoveDeck places a deck into a folder and bumps the deck's updated_at.
	MoveDeck(ctx context.Context, deckID, folderID string) error

	// RemoveDeck detaches a deck from its folder and bumps updated_at.
	RemoveDeck(ctx context.Context, deckID string) error
}

type folderRepository struct {
	db *sql.DB
}

// NewFolderRepository creates a new folder repository.
func NewFolderRepository(db *sql.DB) FolderRepository {
	return &folderRepository{db: db}
}

// List retrieves all folders ordered by name.
func (r *folderRepository) List(ctx context.Context) ([]*models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM folders ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		folder := &models.Folder{}
		var createdAt int64
		if err := rows.Scan(&folder.ID, &folder.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folder.CreatedAt = time.UnixMilli(createdAt)
		folders = append(folders, folder)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating folders: %w", err)
	}

	return folders, nil
}

// Create inserts a new folder.
func (r *folderRepository) Create(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = uuid.New().String()
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO folders (id, name, created_at) VALUES (?, ?, ?)`,
		folder.ID, folder.Name, folder.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

// Rename updates a folder's name.
func (r *folderRepository) Rename(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE folders SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename folder: %w", err)
	}
	return nil
}

// Delete removes a folder, detaching its decks first.
func (r *folderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE decks SET folder_id = NULL WHERE folder_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach decks from folder: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return nil
}

// MoveDeck places a deck into a folder.
func (r *folderRepository) MoveDeck(ctx context.Context, deckID, folderID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE decks SET folder_id = ?, updated_at = ? WHERE id = ?`,
		folderID, time.Now().UnixMilli(), deckID)
	if err != nil {
		return fmt.Errorf("failed to move deck to folder: %w", err)
	}
	return nil
}

// RemoveDeck detaches a deck from its folder.
func (r *folderRepository) RemoveDeck(ctx context.Context, deckID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE decks SET folder_id = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UnixMilli(), deckID)
	if err != nil {
		return fmt.Errorf("failed to remove deck from folder: %w", err)
	}
	return nil
}
