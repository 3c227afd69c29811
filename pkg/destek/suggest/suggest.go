// Package suggest proposes a name for a department, staff member or
// category that a ticket mentions but the system does not know yet.
//
// The heuristics look at surface patterns only and are independent of
// keyword scoring. An empty result means nothing plausible was found.
package suggest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/destek/pkg/destek/ingest"
	"github.com/cognicore/destek/pkg/destek/store"
)

// unit nouns that close a department name: "Muhasebe departmanından".
var departmentMarkers = []string{"departman", "birim", "bölüm", "servis", "müdürlü"}

// locative endings, longest first.
var locatives = []string{"nda", "nde", "da", "de", "ta", "te"}

var honorifics = map[string]bool{"bey": true, "hanım": true}

// problem nouns and the form used in a suggested category name.
var problemMarkers = []struct {
	prefix    string
	canonical string
}{
	{"arıza", "arızası"},
	{"sorun", "sorunu"},
	{"problem", "problemi"},
	{"hata", "hatası"},
}

const minRootRunes = 3

type word struct {
	raw     string // punctuation trimmed, original case
	lower   string
	upper   bool // starts with an upper-case letter
	initial bool // first word of a sentence
}

// Name proposes an entity name of the given kind for text.
func Name(kind store.Kind, text string) string {
	words := split(text)
	if len(words) == 0 {
		return ""
	}
	var name string
	switch kind {
	case store.Department:
		name = department(words)
	case store.Personnel:
		name = personnel(words)
	case store.Category:
		name = category(words)
	}
	return Title(name)
}

// Title applies Turkish title casing: "bilgi işlem" → "Bilgi İşlem".
func Title(s string) string {
	if s == "" {
		return ""
	}
	return cases.Title(language.Turkish).String(ingest.Lower(s))
}

func department(words []word) string {
	for i, w := range words {
		if i == 0 || !hasAnyPrefix(w.lower, departmentMarkers) {
			continue
		}
		name := words[i-1].raw
		if i >= 2 && words[i-2].upper && words[i-1].upper {
			name = words[i-2].raw + " " + name
		}
		return name
	}
	for _, w := range words {
		if root, ok := stripLocative(w.lower); ok {
			return root
		}
	}
	return ""
}

func personnel(words []word) string {
	for i := 1; i < len(words); i++ {
		if honorifics[words[i].lower] && words[i-1].upper {
			return words[i-1].raw
		}
	}

	var first string
	for i := 1; i < len(words); i++ {
		a, b := words[i-1], words[i]
		if !a.upper || !b.upper {
			continue
		}
		pair := a.raw + " " + b.raw
		if !a.initial {
			return pair
		}
		if first == "" {
			first = pair
		}
	}
	return first
}

func category(words []word) string {
	for i := 1; i < len(words); i++ {
		for _, m := range problemMarkers {
			if !strings.HasPrefix(words[i].lower, m.prefix) {
				continue
			}
			prev := words[i-1]
			if utf8.RuneCountInString(prev.lower) < ingest.MinTokenRunes || isProblemWord(prev.lower) {
				continue
			}
			return prev.raw + " " + m.canonical
		}
	}

	var longest string
	for _, w := range words {
		if utf8.RuneCountInString(w.lower) > utf8.RuneCountInString(longest) {
			longest = w.lower
		}
	}
	if utf8.RuneCountInString(longest) < minRootRunes {
		return ""
	}
	return longest
}

func isProblemWord(s string) bool {
	for _, m := range problemMarkers {
		if strings.HasPrefix(s, m.prefix) {
			return true
		}
	}
	return false
}

func stripLocative(s string) (string, bool) {
	for _, suf := range locatives {
		root, ok := strings.CutSuffix(s, suf)
		if ok && utf8.RuneCountInString(root) >= minRootRunes {
			return root, true
		}
	}
	return "", false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// split breaks text into words, dropping punctuation and anything after
// an apostrophe ("Yılmaz'ın" → "Yılmaz").
func split(text string) []word {
	var out []word
	sentenceStart := true
	for _, f := range strings.Fields(norm.NFC.String(text)) {
		endsSentence := strings.ContainsAny(f[len(f)-1:], ".!?")

		if i := strings.IndexAny(f, "'’"); i >= 0 {
			f = f[:i]
		}
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			first, _ := utf8.DecodeRuneInString(f)
			out = append(out, word{
				raw:     f,
				lower:   ingest.Lower(f),
				upper:   unicode.IsUpper(first),
				initial: sentenceStart,
			})
			sentenceStart = false
		}
		if endsSentence {
			sentenceStart = true
		}
	}
	return out
}
