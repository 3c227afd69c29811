package ingest

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon maps vocabulary variants to one canonical keyword, so that
// tickets written with "printer", "yazici" or "yazıcı" share a keyword.
//
// Normalize maps any member of a group to its canonical form. All
// entries are case-folded. Variants are single tokens; a variant
// with a space never matches a token.
type Lexicon struct {
	// canonical -> all variants, canonical first
	synonyms map[string][]string
	// variant -> canonical
	reverseIndex map[string]string
}

// NewLexicon creates an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		synonyms:     make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// LoadLexicon loads synonym groups from a YAML file.
//
// Expected format:
//
//	synonyms:
//	  - canonical: yazıcı
//	    variants: [printer, yazici]
//	  - canonical: kablosuz
//	    variants: [wifi, wi-fi, wireless]
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config struct {
		Synonyms []struct {
			Canonical string   `yaml:"canonical"`
			Variants  []string `yaml:"variants"`
		} `yaml:"synonyms"`
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := NewLexicon()
	for _, entry := range config.Synonyms {
		if strings.TrimSpace(entry.Canonical) == "" {
			continue
		}
		lex.AddSynonymGroup(entry.Canonical, entry.Variants)
	}
	return lex, nil
}

// AddSynonymGroup adds or replaces a group. The canonical form is always
// the first member. Re-adding a canonical drops its old reverse entries.
//
// Variants are folded with strings.ToLower, so ASCII loanwords keep
// their dotted i. The form the tokenizer produces for the upper-case
// spelling (PRINTER → prınter) is indexed as well.
func (l *Lexicon) AddSynonymGroup(canonical string, variants []string) {
	canonical = Lower(strings.TrimSpace(canonical))

	if old, exists := l.synonyms[canonical]; exists {
		for _, v := range old {
			for _, key := range foldings(v) {
				if l.reverseIndex[key] == canonical {
					delete(l.reverseIndex, key)
				}
			}
		}
	}

	group := make([]string, 0, len(variants)+1)
	seen := map[string]bool{canonical: true}
	group = append(group, canonical)
	for _, v := range variants {
		v = Lower(strings.ToLower(strings.TrimSpace(v)))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		group = append(group, v)
	}

	l.synonyms[canonical] = group
	for _, v := range group {
		for _, key := range foldings(v) {
			l.reverseIndex[key] = canonical
		}
	}
}

// foldings returns v and its Turkish-folded upper-case spelling.
func foldings(v string) []string {
	upper := Lower(strings.ToUpper(v))
	if upper == v {
		return []string{v}
	}
	return []string{v, upper}
}

// Normalize returns the canonical form of token, or the folded token
// itself when the lexicon does not know it.
func (l *Lexicon) Normalize(token string) string {
	token = Lower(token)
	if canonical, ok := l.reverseIndex[token]; ok {
		return canonical
	}
	return token
}

// variants returns every member of token's group, canonical first, or
// just the folded token.
func (l *Lexicon) variants(token string) []string {
	token = Lower(token)
	if canonical, ok := l.reverseIndex[token]; ok {
		return l.synonyms[canonical]
	}
	return []string{token}
}

// Groups returns the number of synonym groups.
func (l *Lexicon) Groups() int {
	return len(l.synonyms)
}
