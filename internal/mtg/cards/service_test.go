package cards

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/Ahzmund/RefinedMTG/internal/mtg/scryfall"
	"github.com/Ahzmund/RefinedMTG/internal/storage"
	"github.com/Ahzmund/RefinedMTG/internal/storage/repository"
)

// fakeResolver serves canned cards keyed by lowercased name and counts
// lookups so tests can assert the cache short-circuits them.
type fakeResolver struct {
	cards map[string]*scryfall.Card
	calls int
}

func (f *fakeResolver) NamedFuzzy(ctx context.Context, name string) (*scryfall.Card, error) {
	f.calls++
	if c, ok := f.cards[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, &scryfall.NotFoundError{URL: "fake://" + name}
}

func setupService(t *testing.T, resolver Resolver) (*Service, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec(storage.TestSchema())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewService(repository.NewCardRepository(db), resolver, nil), db
}

func TestServiceGetOrCreate_CachesResolvedCards(t *testing.T) {
	resolver := &fakeResolver{cards: map[string]*scryfall.Card{
		"lightning bolt": {
			ID:         "sf-bolt",
			Name:       "Lightning Bolt",
			ManaCost:   "{R}",
			TypeLine:   "Instant",
			OracleText: "Lightning Bolt deals 3 damage to any target.",
		},
	}}
	svc, _ := setupService(t, resolver)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "Lightning Bolt")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Lightning Bolt", first.Name)
	assert.Equal(t, 1, resolver.calls)

	// Same name again, any casing, must be a pure cache hit.
	second, err := svc.GetOrCreate(ctx, "LIGHTNING BOLT")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, resolver.calls, "cache hit must not consult the resolver")
}

func TestServiceGetOrCreate_NotFound(t *testing.T) {
	resolver := &fakeResolver{cards: map[string]*scryfall.Card{}}
	svc, _ := setupService(t, resolver)

	card, err := svc.GetOrCreate(context.Background(), "Lihgtning Blot")
	require.NoError(t, err)
	assert.Nil(t, card, "an unmatched name is not an error")
}

func TestServiceGetOrCreate_ConvergesOnCanonicalName(t *testing.T) {
	// Two misspellings that fuzzy-resolve to the same canonical card must
	// share one cache row.
	canonical := &scryfall.Card{ID: "sf-brainstorm", Name: "Brainstorm", TypeLine: "Instant"}
	resolver := &misspellingResolver{canonical: canonical}
	svc, _ := setupService(t, resolver)
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "Brainstrom")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "Brainstorm", first.Name)

	second, err := svc.GetOrCreate(ctx, "Brain storm")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID, "both misspellings must land on the same row")
}

// misspellingResolver resolves every name to one canonical card.
type misspellingResolver struct {
	canonical *scryfall.Card
}

func (m *misspellingResolver) NamedFuzzy(ctx context.Context, name string) (*scryfall.Card, error) {
	return m.canonical, nil
}

func TestServiceGetOrCreateWithDetails(t *testing.T) {
	resolver := &fakeResolver{cards: map[string]*scryfall.Card{}}
	svc, _ := setupService(t, resolver)
	ctx := context.Background()

	card, err := svc.GetOrCreateWithDetails(ctx, "Sol Ring", "Artifact", "{1}")
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, 0, resolver.calls, "supplied hints must avoid the resolver")
	require.NotNil(t, card.Details.CardType)
	assert.Equal(t, "Artifact", *card.Details.CardType)
	assert.True(t, NeedsEnrichment(card), "hint-built rows lack oracle text")
}

func TestServiceEnrichDetails(t *testing.T) {
	resolver := &fakeResolver{cards: map[string]*scryfall.Card{
		"sol ring": {
			ID:         "sf-solring",
			Name:       "Sol Ring",
			ManaCost:   "{1}",
			TypeLine:   "Artifact",
			OracleText: "{T}: Add {C}{C}.",
		},
	}}
	svc, _ := setupService(t, resolver)
	ctx := context.Background()

	minimal, err := svc.GetOrCreateWithDetails(ctx, "Sol Ring", "Artifact", "{1}")
	require.NoError(t, err)
	require.True(t, NeedsEnrichment(minimal))

	enriched, err := svc.EnrichDetails(ctx, minimal.ID, minimal.Name)
	require.NoError(t, err)
	require.NotNil(t, enriched)
	assert.Equal(t, minimal.ID, enriched.ID, "enrichment must not change identity")
	assert.False(t, NeedsEnrichment(enriched))
	require.NotNil(t, enriched.ScryfallID)
	assert.Equal(t, "sf-solring", *enriched.ScryfallID)
}

func TestServiceReclassifyAll(t *testing.T) {
	resolver := &fakeResolver{cards: map[string]*scryfall.Card{}}
	svc, db := setupService(t, resolver)
	ctx := context.Background()

	// A row persisted before lands took precedence over artifacts.
	stale, err := svc.GetOrCreateWithDetails(ctx, "Seat of the Synod", "Artifact Land", "")
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE cards SET card_type = 'Artifact' WHERE id = ?`, stale.ID)
	require.NoError(t, err)

	// A correctly classified row must be left alone.
	_, err = svc.GetOrCreateWithDetails(ctx, "Shock", "Instant", "{R}")
	require.NoError(t, err)

	patched, err := svc.ReclassifyAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, patched)

	repo := repository.NewCardRepository(db)
	card, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	require.NotNil(t, card.Details.CardType)
	assert.Equal(t, "Land", *card.Details.CardType)
}
