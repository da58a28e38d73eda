package cards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Ahzmund/RefinedMTG/internal/mtg/scryfall"
	"github.com/Ahzmund/RefinedMTG/internal/storage/models"
	"github.com/Ahzmund/RefinedMTG/internal/storage/repository"
)

// Resolver is the external catalog lookup the cache falls back to on a
// miss. Fuzzy matching is expected: the returned card carries the
// canonical name as actually matched. A name with no match yields an
// error satisfying scryfall.IsNotFound.
type Resolver interface {
	NamedFuzzy(ctx context.Context, name string) (*scryfall.Card, error)
}

// Service is the catalog cache. Lookups hit the local store first and
// fall back to the resolver; rows are created minimally and enriched
// lazily, never duplicated across name spellings that converge on the
// same canonical card.
type Service struct {
	cards    repository.CardRepository
	resolver Resolver
	logger   *slog.Logger
}

// NewService creates a new catalog cache service.
func NewService(cards repository.CardRepository, resolver Resolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cards:    cards,
		resolver: resolver,
		logger:   logger,
	}
}

// GetOrCreate resolves a card by name. A cache hit is returned as-is even
// when its detail fields are incomplete; enrichment is explicit, not
// automatic. On a miss the external resolver is consulted and a new row
// inserted under the resolved canonical name. Returns (nil, nil) when the
// resolver has no match.
func (s *Service) GetOrCreate(ctx context.Context, name string) (*models.Card, error) {
	card, err := s.cards.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if card != nil {
		return card, nil
	}

	resolved, err := s.resolver.NamedFuzzy(ctx, name)
	if err != nil {
		if scryfall.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve %q: %w", name, err)
	}

	// The resolver may return a different canonical name than the input:
	// a fuzzy match, or a multi-faced card under its combined name
	// ("Sink into Stupor" resolves to "Sink into Stupor // Soporific
	// Springs"). Check the cache again under that name so two spellings
	// never produce two rows.
	if !strings.EqualFold(resolved.Name, name) {
		card, err = s.cards.GetByName(ctx, resolved.Name)
		if err != nil {
			return nil, err
		}
		if card != nil {
			return card, nil
		}
	}

	card = cardFromScryfall(resolved)
	if err := s.cards.Insert(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

// GetOrCreateWithDetails resolves a card by name when the caller already
// holds its type line and mana cost (pre-fetched during an addition
// flow). A miss inserts a minimal row directly from the supplied fields
// without a resolver round-trip; the row is completed later by
// EnrichDetails.
func (s *Service) GetOrCreateWithDetails(ctx context.Context, name, typeLine, manaCost string) (*models.Card, error) {
	card, err := s.cards.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if card != nil {
		return card, nil
	}

	cardType := string(Classify(typeLine))
	card = &models.Card{
		Name: name,
		Details: models.CardDetails{
			ManaCost: nilIfEmpty(manaCost),
			TypeLine: nilIfEmpty(typeLine),
			CardType: &cardType,
		},
	}
	if err := s.cards.Insert(ctx, card); err != nil {
		return nil, err
	}

	return card, nil
}

// NeedsEnrichment reports whether a cached row still lacks its detail
// fields. Absent oracle text is the trigger used throughout.
func NeedsEnrichment(card *models.Card) bool {
	return card != nil && card.Details.OracleText == nil
}

// EnrichDetails re-queries the resolver for a card that exists in cache
// but lacks detail fields, and overwrites the detail columns in place.
// Identity columns are never touched, so older minimal-insert rows get
// completed without duplicating identity. Returns (nil, nil) when the
// resolver no longer knows the name.
func (s *Service) EnrichDetails(ctx context.Context, cardID, name string) (*models.Card, error) {
	resolved, err := s.resolver.NamedFuzzy(ctx, name)
	if err != nil {
		if scryfall.IsNotFound(err) {
			s.logger.Warn("card not found on enrichment", "name", name)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve %q: %w", name, err)
	}

	fresh := cardFromScryfall(resolved)
	if err := s.cards.UpdateDetails(ctx, cardID, fresh.ScryfallID, fresh.Details, fresh.Faces); err != nil {
		return nil, err
	}

	return s.cards.GetByID(ctx, cardID)
}

// ReclassifyAll recomputes the coarse type of every cached card from its
// stored type line and patches rows whose persisted category disagrees.
// Returns the number of rows patched.
func (s *Service) ReclassifyAll(ctx context.Context) (int, error) {
	all, err := s.cards.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	patched := 0
	for _, card := range all {
		if card.Details.TypeLine == nil {
			continue
		}
		want := string(Classify(*card.Details.TypeLine))
		if card.Details.CardType != nil && *card.Details.CardType == want {
			continue
		}
		if err := s.cards.UpdateCardType(ctx, card.ID, want); err != nil {
			return patched, err
		}
		patched++
	}

	if patched > 0 {
		s.logger.Info("reclassified cached cards", "patched", patched, "total", len(all))
	}
	return patched, nil
}

// cardFromScryfall maps a resolver payload onto a catalog cache row.
// For multi-faced cards the front face supplies the primary-row fallback
// values and every face is captured in the faces array.
func cardFromScryfall(sc *scryfall.Card) *models.Card {
	cardType := string(Classify(sc.TypeLine))

	card := &models.Card{
		ScryfallID: nilIfEmpty(sc.ID),
		Name:       sc.Name,
		Details: models.CardDetails{
			ManaCost:   nilIfEmpty(sc.ManaCost),
			TypeLine:   nilIfEmpty(sc.TypeLine),
			CardType:   &cardType,
			OracleText: nilIfEmpty(sc.OracleText),
			Power:      nilIfEmpty(sc.Power),
			Toughness:  nilIfEmpty(sc.Toughness),
			Loyalty:    nilIfEmpty(sc.Loyalty),
			Defense:    nilIfEmpty(sc.Defense),
		},
	}

	if sc.ImageURIs != nil {
		card.Details.ImageURI = firstNonEmpty(sc.ImageURIs.Normal, sc.ImageURIs.Small)
		card.Details.LargeImageURI = firstNonEmpty(sc.ImageURIs.Large, sc.ImageURIs.Normal)
	}

	if len(sc.CardFaces) > 0 {
		front := sc.CardFaces[0]
		if card.Details.ManaCost == nil {
			card.Details.ManaCost = nilIfEmpty(front.ManaCost)
		}
		if card.Details.OracleText == nil {
			card.Details.OracleText = nilIfEmpty(front.OracleText)
		}
		if card.Details.Power == nil {
			card.Details.Power = nilIfEmpty(front.Power)
		}
		if card.Details.Toughness == nil {
			card.Details.Toughness = nilIfEmpty(front.Toughness)
		}

		for _, face := range sc.CardFaces {
			mf := models.CardFace{
				Name:       face.Name,
				ManaCost:   nilIfEmpty(face.ManaCost),
				TypeLine:   nilIfEmpty(face.TypeLine),
				OracleText: nilIfEmpty(face.OracleText),
				Power:      nilIfEmpty(face.Power),
				Toughness:  nilIfEmpty(face.Toughness),
				Loyalty:    nilIfEmpty(face.Loyalty),
			}
			if face.ImageURIs != nil {
				mf.ImageURI = firstNonEmpty(face.ImageURIs.Normal, face.ImageURIs.Small)
				mf.LargeImageURI = firstNonEmpty(face.ImageURIs.Large, face.ImageURIs.Normal)
			}
			card.Faces = append(card.Faces, mf)
		}
	}

	return card
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return &v
		}
	}
	return nil
}
