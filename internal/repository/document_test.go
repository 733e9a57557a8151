package repository

import (
	"testing"
	"time"

	"alcyxob/fitness-tracker/internal/domain"
)

func TestToFieldsAndDecodeDocument(t *testing.T) {
	created := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	p := domain.Profile{ID: "p1", Name: "Ana", Color: "#fff", Emoji: "x", CreatedAt: created, OwnerID: "u1"}

	fields, err := ToFields(p)
	if err != nil {
		t.Fatalf("Failed to flatten: %v", err)
	}
	if fields[FieldOwnerID] != "u1" || fields["name"] != "Ana" {
		t.Errorf("Expected ownerId and name fields, got %v", fields)
	}

	var decoded domain.Profile
	if err := DecodeDocument(Document{ID: "p1-doc", Fields: fields}, &decoded); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if decoded.ID != "p1-doc" {
		t.Errorf("Expected document id to win, got %s", decoded.ID)
	}
	if !decoded.CreatedAt.Equal(created) || decoded.Name != "Ana" {
		t.Errorf("Expected round-tripped profile, got %+v", decoded)
	}
}

func TestMatches(t *testing.T) {
	fields := map[string]interface{}{"ownerId": "u1", "profileId": "p1", "nested": []interface{}{"x"}}
	if !Matches(fields, []Predicate{Eq("ownerId", "u1"), Eq("profileId", "p1")}) {
		t.Error("Expected all predicates to match")
	}
	if Matches(fields, []Predicate{Eq("ownerId", "u1"), Eq("profileId", "p2")}) {
		t.Error("Expected mismatch on profileId")
	}
	if Matches(fields, []Predicate{Eq("nested", "x")}) {
		t.Error("Expected non-scalar field not to match a scalar")
	}
}
