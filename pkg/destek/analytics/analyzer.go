// Package analytics reports how keywords are spread over the entities of
// each kind. Keywords linked to a large share of a kind's entities
// ("sorun", "çalışmıyor") carry little signal; they are reported as
// dominant so an operator can add them to the stoplist. Scoring itself
// is not adjusted.
package analytics

import (
	"context"
	"math"
	"sort"

	"github.com/cognicore/destek/pkg/destek/store"
)

const (
	// DefaultDominantShare flags keywords linked to at least half of a
	// kind's entities.
	DefaultDominantShare = 0.5

	// MinDominantEntities: a keyword needs at least this many entities
	// to be dominant, whatever its share.
	MinDominantEntities = 2
)

// AssociationReader is the part of store.Store the analyzer needs.
type AssociationReader interface {
	Associations(ctx context.Context, kind store.Kind) ([]store.EntityKeywords, error)
}

// Analyzer aggregates keyword → entity weights per kind.
type Analyzer struct {
	entities map[store.Kind]int64
	edges    map[store.Kind]map[string]map[int64]int64 // keyword -> entity -> weight
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{
		entities: make(map[store.Kind]int64),
		edges:    make(map[store.Kind]map[string]map[int64]int64),
	}
	for _, k := range store.Kinds {
		a.edges[k] = make(map[string]map[int64]int64)
	}
	return a
}

// Process consumes one entity and its keywords.
func (a *Analyzer) Process(kind store.Kind, ek store.EntityKeywords) {
	if !kind.Valid() {
		return
	}
	a.entities[kind]++
	for _, kw := range ek.Keywords {
		if kw.Text == "" || kw.Weight <= 0 {
			continue
		}
		byEntity := a.edges[kind][kw.Text]
		if byEntity == nil {
			byEntity = make(map[int64]int64)
			a.edges[kind][kw.Text] = byEntity
		}
		byEntity[ek.Entity.ID] += kw.Weight
	}
}

// Collect reads every kind's association table into a fresh analyzer.
func Collect(ctx context.Context, r AssociationReader) (Stats, error) {
	a := NewAnalyzer()
	for _, kind := range store.Kinds {
		rows, err := r.Associations(ctx, kind)
		if err != nil {
			return Stats{}, err
		}
		for _, ek := range rows {
			a.Process(kind, ek)
		}
	}
	return a.Snapshot(), nil
}

// Stats is an immutable copy of the accumulated data.
type Stats struct {
	Entities map[store.Kind]int64
	Edges    map[store.Kind]map[string]map[int64]int64
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	s := Stats{
		Entities: make(map[store.Kind]int64, len(a.entities)),
		Edges:    make(map[store.Kind]map[string]map[int64]int64, len(a.edges)),
	}
	for k, n := range a.entities {
		s.Entities[k] = n
	}
	for k, byKeyword := range a.edges {
		cp := make(map[string]map[int64]int64, len(byKeyword))
		for kw, byEntity := range byKeyword {
			inner := make(map[int64]int64, len(byEntity))
			for id, w := range byEntity {
				inner[id] = w
			}
			cp[kw] = inner
		}
		s.Edges[k] = cp
	}
	return s
}

// KeywordSpread describes one keyword within one kind.
type KeywordSpread struct {
	Keyword     string  `json:"keyword"`
	Entities    int64   `json:"entities"`
	Share       float64 `json:"share"`
	TotalWeight int64   `json:"total_weight"`
	// Entropy of the weight distribution over entities, 0..1. High values
	// mean the keyword does not prefer any entity.
	Entropy float64 `json:"entropy"`
}

// KindReport summarises one association table.
type KindReport struct {
	Kind         store.Kind      `json:"kind"`
	Entities     int64           `json:"entities"`
	Keywords     int             `json:"keywords"`
	Associations int64           `json:"associations"`
	TotalWeight  int64           `json:"total_weight"`
	Dominant     []KeywordSpread `json:"dominant"`
}

// Report is the analytics output for all kinds.
type Report struct {
	DominantShare float64      `json:"dominant_share"`
	Kinds         []KindReport `json:"kinds"`
}

// Report flags keywords linked to at least share of a kind's entities
// (DefaultDominantShare when share <= 0).
func (s Stats) Report(share float64) Report {
	if share <= 0 {
		share = DefaultDominantShare
	}
	out := Report{DominantShare: share, Kinds: make([]KindReport, 0, len(store.Kinds))}
	for _, kind := range store.Kinds {
		kr := KindReport{
			Kind:     kind,
			Entities: s.Entities[kind],
			Keywords: len(s.Edges[kind]),
			Dominant: []KeywordSpread{},
		}
		for kw, byEntity := range s.Edges[kind] {
			var total int64
			for _, w := range byEntity {
				total += w
			}
			kr.Associations += int64(len(byEntity))
			kr.TotalWeight += total

			n := int64(len(byEntity))
			if kr.Entities == 0 || n < MinDominantEntities {
				continue
			}
			sh := float64(n) / float64(kr.Entities)
			if sh < share {
				continue
			}
			kr.Dominant = append(kr.Dominant, KeywordSpread{
				Keyword:     kw,
				Entities:    n,
				Share:       sh,
				TotalWeight: total,
				Entropy:     entropy(byEntity),
			})
		}
		sort.Slice(kr.Dominant, func(i, j int) bool {
			a, b := kr.Dominant[i], kr.Dominant[j]
			if a.Share != b.Share {
				return a.Share > b.Share
			}
			if a.TotalWeight != b.TotalWeight {
				return a.TotalWeight > b.TotalWeight
			}
			return a.Keyword < b.Keyword
		})
		out.Kinds = append(out.Kinds, kr)
	}
	return out
}

// entropy is the normalised Shannon entropy of the weights.
func entropy(weights map[int64]int64) float64 {
	if len(weights) < 2 {
		return 0
	}
	var total float64
	for _, w := range weights {
		total += float64(w)
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, w := range weights {
		p := float64(w) / total
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h / math.Log2(float64(len(weights)))
}
