package store

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/cognicore/destek/pkg/destek/internalerr"
)

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"category":     Category,
		"Kategori":     Category,
		" department ": Department,
		"departman":    Department,
		"PERSONNEL":    Personnel,
		"personel":     Personnel,
	}
	for in, want := range tests {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("ticket"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("ParseKind(ticket) err = %v", err)
	}
}

func TestKindJSON(t *testing.T) {
	var payload struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal([]byte(`{"kind":"departman"}`), &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if payload.Kind != Department {
		t.Fatalf("kind = %v", payload.Kind)
	}
	out, err := json.Marshal(payload)
	if err != nil || string(out) != `{"kind":"department"}` {
		t.Fatalf("Marshal = %s, %v", out, err)
	}
	if _, err := json.Marshal(struct{ K Kind }{Kind(7)}); err == nil {
		t.Fatal("invalid kind marshalled")
	}
}

func TestTablesFor(t *testing.T) {
	tbl, err := TablesFor(Personnel)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Entity != "personnel" || tbl.Association != "personnel_keywords" || tbl.EntityFK != "personnel_id" {
		t.Fatalf("Tables = %+v", tbl)
	}
	if _, err := TablesFor(Kind(-1)); err == nil {
		t.Fatal("expected error for invalid kind")
	}
}

func TestUniqueKeywords(t *testing.T) {
	got := UniqueKeywords([]string{"b", "", "a", "b", "c", "a"})
	if len(got) != 3 || got[0] != "b" || got[1] != "a" || got[2] != "c" {
		t.Fatalf("UniqueKeywords = %v", got)
	}
}
