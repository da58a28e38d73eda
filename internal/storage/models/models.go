// Package models defines the persisted data model for decks, cached
// catalog cards and changelog history.
package models

import "time"

// DeckSource identifies how a deck came to exist.
type DeckSource string

// Valid deck sources.
const (
	SourceManual   DeckSource = "manual"
	SourceMoxfield DeckSource = "moxfield"
	SourceEmpty    DeckSource = "empty"
)

// Folder groups decks for organization.
type Folder struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Deck represents a named collection of cards.
// UpdatedAt is monotonically non-decreasing: every membership or
// changelog mutation bumps it.
type Deck struct {
	ID         string
	Name       string
	FolderID   *string // Nullable
	FolderName *string // Nullable, populated via JOIN on list/read
	Source     DeckSource
	CardCount  int // Populated via JOIN on list
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Card is a catalog cache entry. The identity fields (ID, ScryfallID,
// Name, CreatedAt) are written once and never overwritten; Details is
// nullable throughout and patched in place by lazy enrichment.
type Card struct {
	ID         string
	ScryfallID *string // Nullable
	Name       string  // Canonical name, unique case-insensitively
	CreatedAt  time.Time

	Details CardDetails
	Faces   []CardFace
}

// CardDetails holds the mutable detail columns of a catalog card.
type CardDetails struct {
	ManaCost      *string
	TypeLine      *string
	CardType      *string // Derived coarse type, persisted (not recomputed per read)
	OracleText    *string
	Power         *string
	Toughness     *string
	Loyalty       *string
	Defense       *string
	ImageURI      *string
	LargeImageURI *string
}

// CardFace is one face of a multi-faced card.
type CardFace struct {
	ID            string
	CardID        string
	FaceIndex     int
	Name          string
	ManaCost      *string
	TypeLine      *string
	OracleText    *string
	Power         *string
	Toughness     *string
	Loyalty       *string
	ImageURI      *string
	LargeImageURI *string
}

// DeckCard links a deck to a cached card with a quantity and zone flags.
// At most one row exists per (deck, card) pair; quantity changes update
// the row in place. Mainboard is the absence of both flags, and a
// commander membership is never simultaneously sideboard.
type DeckCard struct {
	ID          string
	DeckID      string
	CardID      string
	Quantity    int
	IsCommander bool
	IsSideboard bool
	AddedAt     time.Time
	Card        *Card // Populated via JOIN on read
}

// Changelog is one append-only history entry for a deck mutation batch.
// Entries are immutable except for Description; deleting an entry never
// reverts the memberships it described.
type Changelog struct {
	ID            string
	DeckID        string
	ChangeDate    time.Time
	Description   *string // Nullable, the only mutable field
	IsImportError bool
	CreatedAt     time.Time
	CardsAdded    []ChangelogCard
	CardsRemoved  []ChangelogCard
}

// ChangeAction is the polarity of a changelog card line.
type ChangeAction string

// Valid change actions.
const (
	ActionAdded   ChangeAction = "added"
	ActionRemoved ChangeAction = "removed"
)

// ChangelogCard is a single card line within a changelog entry.
type ChangelogCard struct {
	ID          string
	ChangelogID string
	CardID      string
	Action      ChangeAction
	Quantity    int
	Reasoning   *string // Nullable
	Card        *Card   // Populated via JOIN on read
}

// DeckWithCards is the full read-side aggregate for a single deck.
type DeckWithCards struct {
	Deck
	Cards      []DeckCard
	Changelogs []Changelog
}
