package store

import (
	"fmt"
	"strings"

	"github.com/cognicore/destek/pkg/destek/internalerr"
)

// Kind selects one of the three entity families a ticket is classified
// into. Each kind owns its own entity table and association table.
type Kind int

const (
	Category Kind = iota
	Department
	Personnel
)

// Kinds lists every kind in processing order.
var Kinds = []Kind{Category, Department, Personnel}

var kindNames = [...]string{
	Category:   "category",
	Department: "department",
	Personnel:  "personnel",
}

// String returns the lowercase kind name used in config, JSON and metrics.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// ParseKind maps a name (case-insensitive) back to a Kind.
// Turkish names are accepted too since the CRUD layer uses them.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "category", "kategori":
		return Category, nil
	case "department", "departman":
		return Department, nil
	case "personnel", "personel":
		return Personnel, nil
	}
	return 0, internalerr.Invalid("unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, internalerr.Invalid("unknown kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Tables names the SQL tables backing a kind.
type Tables struct {
	Entity      string
	Association string
	EntityFK    string
}

var kindTables = [...]Tables{
	Category:   {Entity: "categories", Association: "category_keywords", EntityFK: "category_id"},
	Department: {Entity: "departments", Association: "department_keywords", EntityFK: "department_id"},
	Personnel:  {Entity: "personnel", Association: "personnel_keywords", EntityFK: "personnel_id"},
}

// TablesFor returns the table layout for k. SQL stores build their
// statements from this fixed table, never from caller input.
func TablesFor(k Kind) (Tables, error) {
	if !k.Valid() {
		return Tables{}, internalerr.Invalid("unknown kind %d", int(k))
	}
	return kindTables[k], nil
}
