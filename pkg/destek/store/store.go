package store

import (
	"context"
)

// Store persists the engine's memory: the keyword table and the weighted
// keyword↔entity associations, plus read access to the entity reference
// data owned by the ticketing CRUD layer.
//
// Implementations must make Reinforce safe under concurrent callers:
// increments are never lost.
type Store interface {
	Close() error

	// Entities
	ListEntities(ctx context.Context, kind Kind) ([]Entity, error)
	GetEntity(ctx context.Context, kind Kind, id int64) (Entity, error)
	CreateEntity(ctx context.Context, kind Kind, name string) (Entity, error)

	// Keywords
	GetOrCreateKeyword(ctx context.Context, text string) (kw Keyword, created bool, err error)
	GetKeyword(ctx context.Context, text string) (Keyword, bool, error)
	KeywordCount(ctx context.Context) (int64, error)

	// Associations
	EntityKeywords(ctx context.Context, kind Kind, entityID int64) ([]WeightedKeyword, error)
	Associations(ctx context.Context, kind Kind) ([]EntityKeywords, error)
	AssociationWeight(ctx context.Context, kind Kind, keywordID, entityID int64) (int64, bool, error)

	// Reinforce looks up or creates every keyword and adds 1 to each
	// (keyword, entity) weight, creating missing rows with weight 1.
	// The whole batch is one transaction.
	Reinforce(ctx context.Context, kind Kind, entityID int64, keywords []string) (ReinforceResult, error)
}

// Entity is a category, department or staff member.
type Entity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Keyword is a normalized token or stem.
type Keyword struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// WeightedKeyword is one association edge seen from the entity side.
type WeightedKeyword struct {
	Text   string `json:"text"`
	Weight int64  `json:"weight"`
}

// EntityKeywords groups an entity with its associated keywords.
// Entities without associations are listed with an empty slice.
type EntityKeywords struct {
	Entity   Entity
	Keywords []WeightedKeyword
}

// ReinforceResult summarizes one Reinforce batch.
type ReinforceResult struct {
	NewKeywords int // keyword rows created
	Created     int // associations created with weight 1
	Incremented int // associations whose weight grew by 1
}

// Touched reports whether any association was created or incremented.
func (r ReinforceResult) Touched() bool {
	return r.Created+r.Incremented > 0
}

// Texts returns the keyword texts of ks in order.
func Texts(ks []WeightedKeyword) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.Text
	}
	return out
}

// UniqueKeywords drops empty and repeated keyword texts, keeping order.
func UniqueKeywords(in []string) []string {
	set := make(map[string]struct{}, len(in))
	var out []string
	for _, val := range in {
		if val == "" {
			continue
		}
		if _, ok := set[val]; ok {
			continue
		}
		set[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
