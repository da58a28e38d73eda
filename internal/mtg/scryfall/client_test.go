package scryfall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNamedFuzzy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/named" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("fuzzy"); got != "lightning bolt" {
			t.Errorf("unexpected fuzzy param %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "abc-123",
			"name": "Lightning Bolt",
			"mana_cost": "{R}",
			"type_line": "Instant",
			"oracle_text": "Lightning Bolt deals 3 damage to any target.",
			"image_uris": {"normal": "https://img.example/bolt.jpg"}
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	card, err := client.NamedFuzzy(context.Background(), "lightning bolt")
	if err != nil {
		t.Fatalf("NamedFuzzy failed: %v", err)
	}
	if card.Name != "Lightning Bolt" {
		t.Errorf("unexpected name %q", card.Name)
	}
	if card.TypeLine != "Instant" {
		t.Errorf("unexpected type line %q", card.TypeLine)
	}
	if card.ImageURIs == nil || card.ImageURIs.Normal == "" {
		t.Error("image URIs not parsed")
	}
}

func TestNamedFuzzyNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"object": "error", "code": "not_found", "details": "No cards found"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.NamedFuzzy(context.Background(), "xyzzy")
	if err == nil {
		t.Fatal("expected an error for an unmatched name")
	}
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestNamedFuzzyAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"object": "error", "code": "bad_request", "status": 400, "details": "Invalid query"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	_, err := client.NamedFuzzy(context.Background(), "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if IsNotFound(err) {
		t.Error("a 400 must not read as not-found")
	}
}

func TestAutocomplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/autocomplete" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object": "catalog", "data": ["Thalia, Guardian of Thraben", "Thalia's Lancers"]}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	names, err := client.Autocomplete(context.Background(), "thalia")
	if err != nil {
		t.Fatalf("Autocomplete failed: %v", err)
	}
	if len(names) != 2 || names[0] != "Thalia, Guardian of Thraben" {
		t.Errorf("unexpected names: %v", names)
	}
}

func TestUserAgentHeader(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"id": "x", "name": "Island"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithUserAgent("TestAgent/9.9"))
	if _, err := client.NamedFuzzy(context.Background(), "island"); err != nil {
		t.Fatalf("NamedFuzzy failed: %v", err)
	}
	if gotUA != "TestAgent/9.9" {
		t.Errorf("unexpected User-Agent %q", gotUA)
	}
}
