// Package moxfield holds the data shapes and URL helpers for decks
// sourced from Moxfield.
package moxfield

import (
	"fmt"
	"regexp"
)

// DeckCard is one card entry from a fetched Moxfield deck.
type DeckCard struct {
	Name        string
	Quantity    int
	IsCommander bool
}

// DeckData is a fetched Moxfield deck, flattened to the fields the
// importer consumes.
type DeckData struct {
	Name  string
	Cards []DeckCard
}

var deckIDPattern = regexp.MustCompile(`moxfield\.com/decks/([a-zA-Z0-9_-]+)`)

// ExtractDeckID pulls the public deck ID out of a Moxfield deck URL.
// It returns an empty string when the URL does not look like one.
func ExtractDeckID(url string) string {
	m := deckIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// DeckURL returns the public Moxfield URL for a deck ID.
func DeckURL(deckID string) string {
	return fmt.Sprintf("https://www.moxfield.com/decks/%s", deckID)
}
