// Package cards implements the local card-catalog cache: case-insensitive
// name resolution against the external catalog with lazy detail enrichment.
package cards

import (
	"strings"
	"unicode"
)

// CardType is the derived coarse type of a card, persisted alongside the
// full type line for organizational queries.
type CardType string

// The fixed coarse-type enumeration.
const (
	TypeCreature     CardType = "Creature"
	TypeInstant      CardType = "Instant"
	TypeSorcery      CardType = "Sorcery"
	TypeEnchantment  CardType = "Enchantment"
	TypeArtifact     CardType = "Artifact"
	TypeLand         CardType = "Land"
	TypePlaneswalker CardType = "Planeswalker"
	TypeBattle       CardType = "Battle"
	TypeOther        CardType = "Other"
)

// scanOrder is the priority order for the per-type scan. Land is not
// listed: it is checked first and overrides any co-occurring type, so an
// artifact land or enchantment land classifies as Land.
var scanOrder = []CardType{
	TypeCreature,
	TypeInstant,
	TypeSorcery,
	TypeEnchantment,
	TypeArtifact,
	TypePlaneswalker,
	TypeBattle,
}

// Classify determines the coarse type for a type line. It is a pure
// function of its input: the stored category is recomputed from it during
// reclassification, so the same type line must always produce the same
// category.
//
// For multi-faced type lines ("Instant // Land") only the first face is
// considered. Matching is whole-word, so "Island" never matches Land and
// "Kindred Instant" classifies as Instant.
func Classify(typeLine string) CardType {
	if typeLine == "" {
		return TypeOther
	}

	// First face only for split/double-faced layouts.
	if i := strings.Index(typeLine, "//"); i >= 0 {
		typeLine = typeLine[:i]
	}

	words := strings.FieldsFunc(typeLine, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}

	if present[string(TypeLand)] {
		return TypeLand
	}

	for _, t := range scanOrder {
		if present[string(t)] {
			return t
		}
	}

	return TypeOther
}
