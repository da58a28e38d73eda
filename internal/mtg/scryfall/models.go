package scryfall

import (
	"errors"
	"fmt"
)

// Card represents a Magic card from Scryfall. Only the fields the deck
// manager consumes are mapped.
type Card struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ManaCost   string     `json:"mana_cost,omitempty"`
	TypeLine   string     `json:"type_line"`
	OracleText string     `json:"oracle_text,omitempty"`
	Power      string     `json:"power,omitempty"`
	Toughness  string     `json:"toughness,omitempty"`
	Loyalty    string     `json:"loyalty,omitempty"`
	Defense    string     `json:"defense,omitempty"`
	ImageURIs  *ImageURIs `json:"image_uris,omitempty"`

	// Card faces (for DFCs, MDFCs, split cards). The top-level fields
	// above may be empty for these layouts; the per-face records carry
	// the real values.
	CardFaces []CardFace `json:"card_faces,omitempty"`
}

// CardFace represents one face of a multi-faced card.
type CardFace struct {
	Name       string     `json:"name"`
	ManaCost   string     `json:"mana_cost,omitempty"`
	TypeLine   string     `json:"type_line"`
	OracleText string     `json:"oracle_text,omitempty"`
	Power      string     `json:"power,omitempty"`
	Toughness  string     `json:"toughness,omitempty"`
	Loyalty    string     `json:"loyalty,omitempty"`
	ImageURIs  *ImageURIs `json:"image_uris,omitempty"`
}

// ImageURIs contains URLs for card images in various sizes.
type ImageURIs struct {
	Small  string `json:"small"`
	Normal string `json:"normal"`
	Large  string `json:"large"`
}

// Catalog is the payload of the autocomplete endpoint.
type Catalog struct {
	Object string   `json:"object"`
	Data   []string `json:"data"`
}

// APIError represents an error response from the Scryfall API.
type APIError struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Details)
	}
	return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Code)
}

// NotFoundError represents a 404 from the API. A card name with no match
// is a normal outcome, distinct from transport or service errors.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound returns true if the error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
