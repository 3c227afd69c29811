// Package score holds the keyword-set similarity used to compare a
// ticket with each entity, and the threshold/top-N decision policy
// applied to the resulting score maps.
package score

import (
	"strings"
	"unicode/utf8"

	"github.com/cognicore/destek/pkg/destek/ingest"
)

const (
	// partialCredit is added for a substring (not exact) keyword hit.
	partialCredit = 0.5
	// partialMinRunes: both keywords of a partial pair need this length.
	partialMinRunes = 3
)

// Similarity compares a ticket's keyword set with an entity's keyword set.
//
//	score = (exact + partial) / |text ∪ entity|
//
// exact counts keywords present in both sets. partial walks the text
// keywords in order and, for each, adds 0.5 for the first distinct
// entity keyword (entity order) where one contains the other; a text
// keyword earns partial credit at most once. The partial term is therefore not
// symmetric in its arguments. The result is clamped to [0, 1].
func Similarity(text, entity []string) float64 {
	a := foldSet(text)
	b := foldSet(entity)
	if len(a.order) == 0 || len(b.order) == 0 {
		return 0
	}

	exact := 0
	for _, kw := range a.order {
		if _, ok := b.set[kw]; ok {
			exact++
		}
	}

	partial := 0.0
	for _, tk := range a.order {
		if utf8.RuneCountInString(tk) < partialMinRunes {
			continue
		}
		for _, ek := range b.order {
			if tk == ek || utf8.RuneCountInString(ek) < partialMinRunes {
				continue
			}
			if strings.Contains(tk, ek) || strings.Contains(ek, tk) {
				partial += partialCredit
				break
			}
		}
	}

	union := len(a.order) + len(b.order) - exact
	if union == 0 {
		return 0
	}

	s := (float64(exact) + partial) / float64(union)
	if s > 1 {
		return 1
	}
	return s
}

type keywordSet struct {
	order []string
	set   map[string]struct{}
}

// foldSet lowercases (Turkish rules) and deduplicates, keeping first-seen
// order so the partial pass is deterministic.
func foldSet(in []string) keywordSet {
	ks := keywordSet{set: make(map[string]struct{}, len(in))}
	for _, kw := range in {
		kw = ingest.Lower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := ks.set[kw]; ok {
			continue
		}
		ks.set[kw] = struct{}{}
		ks.order = append(ks.order, kw)
	}
	return ks
}

// Matched returns the entity keywords that contributed to the score of
// text against entity, exact hits first. Used for explanations.
func Matched(text, entity []string) []string {
	a := foldSet(text)
	b := foldSet(entity)
	var out []string
	seen := make(map[string]struct{})
	add := func(kw string) {
		if _, ok := seen[kw]; !ok {
			seen[kw] = struct{}{}
			out = append(out, kw)
		}
	}
	for _, kw := range a.order {
		if _, ok := b.set[kw]; ok {
			add(kw)
		}
	}
	for _, tk := range a.order {
		if utf8.RuneCountInString(tk) < partialMinRunes {
			continue
		}
		for _, ek := range b.order {
			if tk == ek || utf8.RuneCountInString(ek) < partialMinRunes {
				continue
			}
			if strings.Contains(tk, ek) || strings.Contains(ek, tk) {
				add(ek)
				break
			}
		}
	}
	return out
}
