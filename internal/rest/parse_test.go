package rest

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeJSONPreservesLargeIDs(t *testing.T) {
	// This identifier loses precision if decoded as float64.
	body := `{"id": 6569232867902976543}`

	var out map[string]any
	if err := decodeJSON(strings.NewReader(body), &out); err != nil {
		t.Fatalf("decodeJSON() error: %v", err)
	}

	num, ok := out["id"].(json.Number)
	if !ok {
		t.Fatalf("id decoded as %T, want json.Number", out["id"])
	}
	if num.String() != "6569232867902976543" {
		t.Errorf("id = %s, precision lost", num)
	}
}

func TestDecodeJSONEmptyBody(t *testing.T) {
	var out map[string]any
	if err := decodeJSON(strings.NewReader(""), &out); err != nil {
		t.Errorf("decodeJSON() on empty body: %v", err)
	}
}

func TestDecodeJSONNilOutDrains(t *testing.T) {
	if err := decodeJSON(strings.NewReader(`{"ignored": true}`), nil); err != nil {
		t.Errorf("decodeJSON(nil) error: %v", err)
	}
}
