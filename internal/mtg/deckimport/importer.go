// Package deckimport creates decks from external sources: pasted
// decklist text, fetched Moxfield decks, and empty shells seeded with
// commanders.
package deckimport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ahzmund/RefinedMTG/internal/mtg/cards"
	"github.com/Ahzmund/RefinedMTG/internal/mtg/deck"
	"github.com/Ahzmund/RefinedMTG/internal/mtg/decklist"
	"github.com/Ahzmund/RefinedMTG/internal/mtg/moxfield"
	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
	"github.com/Ahzmund/RefinedMTG/internal/storage/repository"
)

// importErrorPreamble opens the changelog entry recorded when some cards
// of an import could not be resolved.
const importErrorPreamble = "The following cards could not be imported from Scryfall. Please check the spelling or add them manually:"

// ImportResult reports an import: the created deck, how many card
// entries landed in it, and the entries that could not be resolved.
type ImportResult struct {
	DeckID       string
	SuccessCount int
	FailedCards  []deck.FailedCard
}

// Importer builds decks from external sources, resolving every card
// through the catalog cache.
type Importer struct {
	decks      repository.DeckRepository
	changelogs repository.ChangelogRepository
	catalog    *cards.Service
	logger     *slog.Logger
}

// NewImporter creates a new deck importer.
func NewImporter(decks repository.DeckRepository, changelogs repository.ChangelogRepository, catalog *cards.Service, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		decks:      decks,
		changelogs: changelogs,
		catalog:    catalog,
		logger:     logger,
	}
}

// entry is one card to place in the deck being imported.
type entry struct {
	name        string
	quantity    int
	isCommander bool
	isSideboard bool
}

// ImportDecklist parses pasted decklist text and creates a deck from it,
// filed under folderID when one is given. Commanders are seeded first,
// one copy each. Unresolvable entries are skipped, collected into the
// result, and recorded in an import-error changelog entry; the deck is
// still created.
func (i *Importer) ImportDecklist(ctx context.Context, name, text string, folderID *string, commanders []string) (*ImportResult, error) {
	if err := decklist.Validate(text); err != nil {
		return nil, err
	}
	list := decklist.Parse(text)

	entries := make([]entry, 0, len(commanders)+len(list.Mainboard)+len(list.Sideboard))
	for _, commander := range commanders {
		entries = append(entries, entry{name: commander, quantity: 1, isCommander: true})
	}
	for _, parsed := range list.Mainboard {
		entries = append(entries, entry{name: parsed.Name, quantity: parsed.Quantity})
	}
	for _, parsed := range list.Sideboard {
		entries = append(entries, entry{name: parsed.Name, quantity: parsed.Quantity, isSideboard: true})
	}

	return i.create(ctx, name, folderID, models.SourceManual, entries)
}

// ImportMoxfield creates a deck from a fetched Moxfield deck. The
// fetched deck name wins unless a non-empty override is given.
func (i *Importer) ImportMoxfield(ctx context.Context, data moxfield.DeckData, folderID *string, nameOverride string) (*ImportResult, error) {
	name := data.Name
	if nameOverride != "" {
		name = nameOverride
	}
	if name == "" {
		return nil, fmt.Errorf("moxfield deck has no name")
	}

	entries := make([]entry, 0, len(data.Cards))
	for _, card := range data.Cards {
		entries = append(entries, entry{
			name:        card.Name,
			quantity:    card.Quantity,
			isCommander: card.IsCommander,
		})
	}

	return i.create(ctx, name, folderID, models.SourceMoxfield, entries)
}

// CreateEmptyDeck creates a deck with no cards beyond its commanders.
func (i *Importer) CreateEmptyDeck(ctx context.Context, name string, folderID *string, commanders []string) (*ImportResult, error) {
	entries := make([]entry, 0, len(commanders))
	for _, commander := range commanders {
		entries = append(entries, entry{name: commander, quantity: 1, isCommander: true})
	}

	return i.create(ctx, name, folderID, models.SourceEmpty, entries)
}

func (i *Importer) create(ctx context.Context, name string, folderID *string, source models.DeckSource, entries []entry) (*ImportResult, error) {
	d := &models.Deck{Name: name, FolderID: folderID, Source: source}
	if err := i.decks.Create(ctx, d); err != nil {
		return nil, err
	}

	result := &ImportResult{DeckID: d.ID}
	if err := i.importCards(ctx, d.ID, entries, result); err != nil {
		return nil, err
	}

	if len(result.FailedCards) > 0 {
		if err := i.recordFailures(ctx, d.ID, result.FailedCards); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// importCards resolves each entry through the catalog and adds the
// resolved ones to the deck. Resolution failures never stop the import:
// a miss and an unreachable resolver both become a failed entry, so the
// deck is never silently incomplete. Only persistence errors abort.
func (i *Importer) importCards(ctx context.Context, deckID string, entries []entry, result *ImportResult) error {
	for _, e := range entries {
		card, err := i.catalog.GetOrCreate(ctx, e.name)
		if err != nil {
			i.logger.Warn("failed to resolve card during import", "name", e.name, "error", err)
			result.FailedCards = append(result.FailedCards, deck.FailedCard{
				Name:     e.name,
				Quantity: e.quantity,
			})
			continue
		}
		if card == nil {
			i.logger.Warn("card not found during import", "name", e.name)
			result.FailedCards = append(result.FailedCards, deck.FailedCard{
				Name:     e.name,
				Quantity: e.quantity,
			})
			continue
		}

		if err := i.decks.AddCard(ctx, deckID, card.ID, e.quantity, e.isCommander, e.isSideboard); err != nil {
			return fmt.Errorf("failed to add %q to imported deck: %w", e.name, err)
		}
		result.SuccessCount++
	}
	return nil
}

// recordFailures writes the import-error changelog entry listing every
// card the import could not resolve.
func (i *Importer) recordFailures(ctx context.Context, deckID string, failed []deck.FailedCard) error {
	var b strings.Builder
	b.WriteString(importErrorPreamble)
	b.WriteString("\n\n")
	for idx, f := range failed {
		if idx > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d %s", f.Quantity, f.Name)
	}

	description := b.String()
	return i.changelogs.Create(ctx, &models.Changelog{
		DeckID:        deckID,
		Description:   &description,
		IsImportError: true,
	})
}
