// Package recognize spots known department and staff names directly in
// ticket text, independent of keyword extraction.
//
// Names and text are lowercased with Turkish rules and folded to ASCII,
// so "Ayşe Yılmaz" matches "ayse yilmaz". Each name is compared with
// every window of the same number of text tokens using fzf's fuzzy
// matcher; the match must start at the window start because Turkish
// attaches suffixes after a name, not before it ("Muhasebede").
//
// Recognizers are safe for concurrent use.
package recognize

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
	"github.com/mozillazg/go-unidecode"

	"github.com/cognicore/destek/pkg/destek/ingest"
)

const (
	// DefaultMinConfidence drops weak hits.
	DefaultMinConfidence = 0.75

	// partScale discounts a hit on a single part of a multi-word name
	// ("Ahmet" for "Ahmet Yılmaz").
	partScale = 0.8

	// fuzzyMinRunes: shorter names must match a window exactly.
	fuzzyMinRunes = 3

	slab16Size = 100 * 1024
	slab32Size = 2048
)

var initOnce sync.Once

// Entry is a name the recognizer looks for.
type Entry struct {
	ID   int64
	Name string
}

// Match is a recognized entity with a confidence in [0, 1].
type Match struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Fuzzy is the fzf-backed name recognizer.
type Fuzzy struct {
	minConfidence float64
	tokenizer     *ingest.Tokenizer
}

// New returns a recognizer reporting matches at or above minConfidence.
// A non-positive value selects DefaultMinConfidence.
func New(minConfidence float64) *Fuzzy {
	initOnce.Do(func() { algo.Init("default") })
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Fuzzy{
		minConfidence: minConfidence,
		tokenizer:     ingest.NewTokenizer(nil),
	}
}

// Recognize returns the entries whose name occurs in text, best
// confidence first (ties by ID). Each entry appears at most once.
func (f *Fuzzy) Recognize(text string, entries []Entry) []Match {
	tokens := f.fold(text)
	if len(tokens) == 0 || len(entries) == 0 {
		return nil
	}

	// Slabs are scratch space for fzf and are not goroutine-safe,
	// so every call gets its own.
	slab := util.MakeSlab(slab16Size, slab32Size)

	var out []Match
	for _, e := range entries {
		name := f.fold(e.Name)
		if len(name) == 0 {
			continue
		}
		conf := windowConfidence(tokens, name, slab)
		if len(name) > 1 {
			for _, part := range name {
				if c := windowConfidence(tokens, []string{part}, slab) * partScale; c > conf {
					conf = c
				}
			}
		}
		if conf >= f.minConfidence {
			out = append(out, Match{ID: e.ID, Name: e.Name, Confidence: conf})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// fold tokenizes with Turkish lowercasing and strips diacritics.
func (f *Fuzzy) fold(s string) []string {
	tokens := f.tokenizer.Tokenize(s)
	for i, tok := range tokens {
		tokens[i] = unidecode.Unidecode(tok)
	}
	return tokens
}

func windowConfidence(tokens, name []string, slab *util.Slab) float64 {
	n := len(name)
	pattern := strings.Join(name, " ")
	best := 0.0
	for i := 0; i+n <= len(tokens); i++ {
		window := strings.Join(tokens[i:i+n], " ")
		if c := confidence(window, pattern, slab); c > best {
			best = c
		}
		if best == 1 {
			break
		}
	}
	return best
}

// confidence scores pattern against input:
//
//	compactness × (0.6 + 0.4 × coverage)
//
// compactness is pattern length over matched span (1 when the pattern
// occurs contiguously), coverage is pattern length over input length.
func confidence(input, pattern string, slab *util.Slab) float64 {
	if input == pattern {
		return 1
	}
	patternRunes := []rune(pattern)
	if len(patternRunes) < fuzzyMinRunes {
		return 0
	}

	chars := util.ToChars([]byte(input))
	res, _ := algo.FuzzyMatchV2(false, false, true, &chars, patternRunes, false, slab)
	if res.Start != 0 {
		return 0
	}
	span := res.End - res.Start
	if span <= 0 {
		return 0
	}

	compactness := float64(len(patternRunes)) / float64(span)
	coverage := float64(len(patternRunes)) / float64(utf8.RuneCountInString(input))
	if compactness > 1 {
		compactness = 1
	}
	return compactness * (0.6 + 0.4*coverage)
}
