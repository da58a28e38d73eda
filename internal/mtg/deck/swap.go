package deck

import (
	"context"
	"fmt"
	"time"

	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
)

// DailyBatchDescription marks changelog entries that consolidate the
// day's quick edits. User-authored descriptions never equal this value,
// so it doubles as the lookup key for same-day consolidation.
const DailyBatchDescription = "Quick deck edits"

// SwapAction identifies a single-card quick edit. Each action carries a
// fixed reasoning string and a polarity deciding which side of the
// changelog entry its line lands on.
type SwapAction int

const (
	SwapSetCommander SwapAction = iota
	SwapUnsetCommander
	SwapMoveToSideboard
	SwapMoveToMainboard
	SwapQuickAdd
	SwapQuickRemove
)

// Reasoning returns the changelog reasoning text recorded for the action.
func (a SwapAction) Reasoning() string {
	switch a {
	case SwapSetCommander:
		return "Set as commander"
	case SwapUnsetCommander:
		return "Removed as commander"
	case SwapMoveToSideboard:
		return "Moved to sideboard"
	case SwapMoveToMainboard:
		return "Moved to mainboard"
	case SwapQuickAdd:
		return "Quick add"
	case SwapQuickRemove:
		return "Quick remove"
	}
	return ""
}

// Polarity returns which side of a changelog entry the action's line
// belongs on. Setting a commander and moving into the sideboard read as
// additions; undoing either reads as a removal.
func (a SwapAction) Polarity() models.ChangeAction {
	switch a {
	case SwapUnsetCommander, SwapMoveToMainboard, SwapQuickRemove:
		return models.ActionRemoved
	}
	return models.ActionAdded
}

// RecordSwap records a quick edit in the deck's changelog, consolidating
// all of a day's swaps into a single marker entry. The first swap of a
// local calendar day creates the entry; later swaps append lines to it.
func (e *Engine) RecordSwap(ctx context.Context, deckID, cardID string, quantity int, action SwapAction) error {
	reasoning := action.Reasoning()
	line := models.ChangelogCard{
		CardID:    cardID,
		Action:    action.Polarity(),
		Quantity:  quantity,
		Reasoning: &reasoning,
	}

	entry, err := e.changelogs.FindDaily(ctx, deckID, DailyBatchDescription, time.Now())
	if err != nil {
		return err
	}
	if entry != nil {
		return e.changelogs.AppendLines(ctx, entry.ID, deckID, []models.ChangelogCard{line})
	}

	marker := DailyBatchDescription
	fresh := &models.Changelog{
		DeckID:      deckID,
		Description: &marker,
	}
	if line.Action == models.ActionRemoved {
		fresh.CardsRemoved = []models.ChangelogCard{line}
	} else {
		fresh.CardsAdded = []models.ChangelogCard{line}
	}
	return e.changelogs.Create(ctx, fresh)
}

// SetCommander flags or unflags a deck card as a commander and records
// the swap. Flagging a commander clears any sideboard flag on the row.
// The card must already be in the deck.
func (e *Engine) SetCommander(ctx context.Context, deckID, cardID string, isCommander bool) error {
	membership, err := e.decks.GetCard(ctx, deckID, cardID)
	if err != nil {
		return err
	}
	if membership == nil {
		return fmt.Errorf("%w: card %s is not in deck %s", ErrCardNotFound, cardID, deckID)
	}

	if err := e.decks.SetCommanderFlag(ctx, deckID, membership.ID, isCommander); err != nil {
		return err
	}
	action := SwapSetCommander
	if !isCommander {
		action = SwapUnsetCommander
	}
	return e.RecordSwap(ctx, deckID, cardID, 1, action)
}

// SetSideboard moves a deck card into or out of the sideboard and
// records the swap. Moving into the sideboard clears any commander flag.
// The card must already be in the deck.
func (e *Engine) SetSideboard(ctx context.Context, deckID, cardID string, isSideboard bool) error {
	membership, err := e.decks.GetCard(ctx, deckID, cardID)
	if err != nil {
		return err
	}
	if membership == nil {
		return fmt.Errorf("%w: card %s is not in deck %s", ErrCardNotFound, cardID, deckID)
	}

	if err := e.decks.SetSideboardFlag(ctx, deckID, membership.ID, isSideboard); err != nil {
		return err
	}
	action := SwapMoveToSideboard
	if !isSideboard {
		action = SwapMoveToMainboard
	}
	return e.RecordSwap(ctx, deckID, cardID, 1, action)
}

// QuickAdd adds copies of a named card to a deck's mainboard and records
// the swap. Unlike batch additions, an unresolvable name is an error the
// caller is expected to surface.
func (e *Engine) QuickAdd(ctx context.Context, deckID, name string, quantity int) error {
	card, err := e.catalog.GetOrCreate(ctx, name)
	if err != nil {
		return err
	}
	if card == nil {
		return fmt.Errorf("%w: %q", ErrCardNotFound, name)
	}

	if err := e.decks.AddCard(ctx, deckID, card.ID, quantity, false, false); err != nil {
		return err
	}
	return e.RecordSwap(ctx, deckID, card.ID, quantity, SwapQuickAdd)
}

// QuickRemove removes copies of a card from a deck and records the swap.
func (e *Engine) QuickRemove(ctx context.Context, deckID, cardID string, quantity int) error {
	if err := e.decks.RemoveCard(ctx, deckID, cardID, quantity); err != nil {
		return err
	}
	return e.RecordSwap(ctx, deckID, cardID, quantity, SwapQuickRemove)
}
