// Package decklist converts free-text decklists into structured card
// entries. Parsing is a pure transform: no storage, no network, no state
// between calls.
package decklist

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Zone is the board a parsed card is destined for.
type Zone string

// Parsed card zones.
const (
	ZoneMainboard Zone = "mainboard"
	ZoneSideboard Zone = "sideboard"
)

// ParsedCard is one card entry from a decklist.
type ParsedCard struct {
	Quantity int
	Name     string
	Zone     Zone
}

// Decklist is the result of parsing a free-text decklist.
type Decklist struct {
	Mainboard []ParsedCard
	Sideboard []ParsedCard
}

// Cards returns mainboard followed by sideboard entries.
func (d *Decklist) Cards() []ParsedCard {
	out := make([]ParsedCard, 0, len(d.Mainboard)+len(d.Sideboard))
	out = append(out, d.Mainboard...)
	out = append(out, d.Sideboard...)
	return out
}

// sectionHeaders are lines that label a decklist section and never
// produce cards, matched case-insensitively with or without a colon.
var sectionHeaders = []string{
	"commander",
	"commanders",
	"mainboard",
	"main board",
	"sideboard",
	"side board",
	"maybeboard",
	"maybe board",
	"companion",
	"deck",
	"lands",
	"creatures",
	"spells",
	"artifacts",
	"enchantments",
	"planeswalkers",
}

// quantityPattern matches "4 Lightning Bolt" and "4x Lightning Bolt".
// The whitespace is mandatory so a malformed prefix glued to a name is
// never misread as a quantity.
var quantityPattern = regexp.MustCompile(`^(\d+)[xX]?\s+(.+)$`)

// Parse converts decklist text into mainboard and sideboard entries.
// Blank lines and lines starting with "//" or "#" are skipped. The first
// line containing "sideboard" switches all subsequent cards to the
// sideboard; the line itself is consumed. Section-header lines never
// produce cards. A line without a leading quantity is a single copy.
func Parse(text string) *Decklist {
	result := &Decklist{}
	inSideboard := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
			continue
		}

		lower := strings.ToLower(trimmed)
		if strings.Contains(lower, "sideboard") {
			inSideboard = true
			continue
		}
		if isSectionHeader(lower) {
			continue
		}

		var card ParsedCard
		if matches := quantityPattern.FindStringSubmatch(trimmed); matches != nil {
			quantity, err := strconv.Atoi(matches[1])
			if err != nil || quantity <= 0 {
				continue
			}
			name := strings.TrimSpace(matches[2])
			if name == "" {
				continue
			}
			card = ParsedCard{Quantity: quantity, Name: name}
		} else {
			// No quantity: one copy, unless the line is a bare
			// header word that slipped past the colon forms.
			if headerWord(lower) {
				continue
			}
			card = ParsedCard{Quantity: 1, Name: trimmed}
		}

		if inSideboard {
			card.Zone = ZoneSideboard
			result.Sideboard = append(result.Sideboard, card)
		} else {
			card.Zone = ZoneMainboard
			result.Mainboard = append(result.Mainboard, card)
		}
	}

	return result
}

// Validate checks that a decklist yields at least one card.
func Validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("decklist is empty")
	}

	parsed := Parse(text)
	if len(parsed.Mainboard) == 0 && len(parsed.Sideboard) == 0 {
		return fmt.Errorf("no valid cards found in decklist")
	}

	return nil
}

func isSectionHeader(lower string) bool {
	for _, header := range sectionHeaders {
		if lower == header || lower == header+":" || lower == header+" :" {
			return true
		}
	}
	return false
}

func headerWord(lower string) bool {
	for _, header := range sectionHeaders {
		if lower == header {
			return true
		}
	}
	return false
}
