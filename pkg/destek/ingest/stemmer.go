package ingest

import (
	"strings"
	"unicode/utf8"
)

// Stemmer reduces a token to zero or more root forms.
// Implementations must be deterministic and free of side effects.
type Stemmer interface {
	Stem(token string) []string
}

const (
	minRootRunes = 3
	maxPasses    = 3
)

// nominalSuffixes are Turkish noun inflections, longest first within
// each group so the greedy match prefers "ndan" over "dan". One-vowel
// suffixes (-ı, -e, ...) are left out: stripping them turns too many
// roots into fragments.
var nominalSuffixes = []string{
	// plural + possessive
	"ları", "leri",
	// ablative, with and without buffer n
	"ndan", "nden", "dan", "den", "tan", "ten",
	// genitive
	"nın", "nin", "nun", "nün",
	// plural
	"lar", "ler",
	// instrumental
	"yla", "yle",
	// locative
	"nda", "nde", "da", "de", "ta", "te",
	// dative
	"ya", "ye", "na", "ne",
	// accusative / possessive 3sg
	"yı", "yi", "yu", "yü",
	"sı", "si", "su", "sü",
	"nı", "ni", "nu", "nü",
	// genitive after consonant, possessive 2sg
	"ın", "in", "un", "ün",
	// possessive 1sg
	"ım", "im", "um", "üm",
}

// SuffixStemmer strips Turkish nominal suffixes from the end of a token,
// repeatedly, and reports every intermediate root.
type SuffixStemmer struct {
	suffixes []string
}

// NewSuffixStemmer returns a stemmer using the built-in suffix table.
func NewSuffixStemmer() *SuffixStemmer {
	return &SuffixStemmer{suffixes: nominalSuffixes}
}

// Stem returns the roots obtained by stripping up to three suffixes,
// outermost first: "yazıcılarından" → ["yazıcıları", "yazıcı"].
// Roots shorter than three runes are never produced.
func (s *SuffixStemmer) Stem(token string) []string {
	var roots []string
	word := token
	for pass := 0; pass < maxPasses; pass++ {
		root, ok := s.strip(word)
		if !ok {
			break
		}
		roots = append(roots, root)
		word = root
	}
	return roots
}

func (s *SuffixStemmer) strip(word string) (string, bool) {
	best := ""
	for _, suf := range s.suffixes {
		if len(suf) <= len(best) || !strings.HasSuffix(word, suf) {
			continue
		}
		root := strings.TrimSuffix(word, suf)
		if utf8.RuneCountInString(root) < minRootRunes {
			continue
		}
		best = suf
	}
	if best == "" {
		return "", false
	}
	return strings.TrimSuffix(word, best), true
}
