// Package deck implements the deck mutation engine: batched membership
// edits resolved through the catalog cache and recorded in the changelog
// ledger.
package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Ahzmund/RefinedMTG/internal/mtg/cards"
	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
	"github.com/Ahzmund/RefinedMTG/internal/storage/repository"
)

// ErrCardNotFound is returned by interactive single-card operations when
// the catalog has no match for a name. Batch operations collect failures
// instead of returning this.
var ErrCardNotFound = errors.New("card not found")

// CardChange is one requested addition or removal within a batch.
// TypeLine and ManaCost are optional pre-fetched hints; when present, a
// cache miss is filled from them without a resolver round-trip.
type CardChange struct {
	Name      string
	Quantity  int
	Reasoning string
	TypeLine  string
	ManaCost  string
}

// ChangeSet is a batch of deck edits applied as one changelog entry.
type ChangeSet struct {
	Description string
	Add         []CardChange
	Remove      []CardChange
}

// FailedCard is a requested addition whose name had no catalog match.
type FailedCard struct {
	Name     string
	Quantity int
}

// ChangeResult reports the outcome of an applied batch.
type ChangeResult struct {
	ChangelogID string
	FailedCards []FailedCard
}

// Engine orchestrates deck mutations across the catalog cache, the deck
// store and the changelog ledger.
type Engine struct {
	decks      repository.DeckRepository
	changelogs repository.ChangelogRepository
	catalog    *cards.Service
	logger     *slog.Logger
}

// NewEngine creates a new deck mutation engine.
func NewEngine(decks repository.DeckRepository, changelogs repository.ChangelogRepository, catalog *cards.Service, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		decks:      decks,
		changelogs: changelogs,
		catalog:    catalog,
		logger:     logger,
	}
}

// ApplyChanges applies a batch of removals and additions to a deck and
// writes one changelog entry describing it.
//
// Removals are fully processed before any addition: a batch that removes
// and re-adds the same card must see the removal's effect first. A
// removal whose name cannot be resolved is skipped (there is no row to
// remove); an addition whose name cannot be resolved is collected into
// the result's FailedCards and reaches neither the deck nor the
// changelog. The entry is written only after all membership mutations
// have succeeded or been skipped.
func (e *Engine) ApplyChanges(ctx context.Context, deckID string, changes ChangeSet) (*ChangeResult, error) {
	result := &ChangeResult{}

	var removedLines, addedLines []models.ChangelogCard

	for _, change := range changes.Remove {
		card, err := e.resolve(ctx, change)
		if err != nil {
			return nil, err
		}
		if card == nil {
			e.logger.Warn("skipping removal of unresolvable card", "name", change.Name)
			continue
		}

		if err := e.decks.RemoveCard(ctx, deckID, card.ID, change.Quantity); err != nil {
			return nil, fmt.Errorf("failed to remove %q: %w", change.Name, err)
		}

		removedLines = append(removedLines, changelogLine(card.ID, change))
	}

	for _, change := range changes.Add {
		// Additions come from free search, so a full resolver lookup is
		// used even when hints are present.
		card, err := e.catalog.GetOrCreate(ctx, change.Name)
		if err != nil {
			return nil, err
		}
		if card == nil {
			result.FailedCards = append(result.FailedCards, FailedCard{
				Name:     change.Name,
				Quantity: change.Quantity,
			})
			continue
		}

		if err := e.decks.AddCard(ctx, deckID, card.ID, change.Quantity, false, false); err != nil {
			return nil, fmt.Errorf("failed to add %q: %w", change.Name, err)
		}

		addedLines = append(addedLines, changelogLine(card.ID, change))
	}

	entry := &models.Changelog{
		DeckID:       deckID,
		Description:  nilIfEmpty(changes.Description),
		CardsAdded:   addedLines,
		CardsRemoved: removedLines,
	}
	if err := e.changelogs.Create(ctx, entry); err != nil {
		return nil, err
	}
	result.ChangelogID = entry.ID

	return result, nil
}

// resolve looks a change's card up through the catalog cache, feeding a
// miss from the change's pre-fetched hints when it carries any.
func (e *Engine) resolve(ctx context.Context, change CardChange) (*models.Card, error) {
	if change.TypeLine != "" || change.ManaCost != "" {
		return e.catalog.GetOrCreateWithDetails(ctx, change.Name, change.TypeLine, change.ManaCost)
	}
	return e.catalog.GetOrCreate(ctx, change.Name)
}

func changelogLine(cardID string, change CardChange) models.ChangelogCard {
	return models.ChangelogCard{
		CardID:    cardID,
		Quantity:  change.Quantity,
		Reasoning: nilIfEmpty(change.Reasoning),
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
