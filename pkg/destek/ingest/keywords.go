package ingest

import (
	"sort"
	"unicode/utf8"
)

// stemMinRunes: only tokens longer than this are handed to the stemmer.
const stemMinRunes = 3

// Extractor turns ticket text into the keyword set that is scored
// against, and learned into, the association tables.
type Extractor struct {
	tokenizer *Tokenizer
	stemmer   Stemmer
	lexicon   *Lexicon
}

// NewExtractor creates an extractor. A nil stemmer keeps raw tokens only.
func NewExtractor(tokenizer *Tokenizer, stemmer Stemmer) *Extractor {
	if tokenizer == nil {
		tokenizer = NewTokenizer(nil)
	}
	return &Extractor{tokenizer: tokenizer, stemmer: stemmer}
}

// SetLexicon makes Extract add the canonical form of every token and
// stem the lexicon knows. nil turns synonym mapping off.
func (e *Extractor) SetLexicon(lex *Lexicon) {
	e.lexicon = lex
}

// Extract returns the deduplicated union of the text's tokens and the
// stems of tokens longer than three runes, sorted. With a lexicon the
// canonical forms of those are added too. Empty or punctuation-only
// text yields an empty set.
func (e *Extractor) Extract(text string) []string {
	set := make(map[string]struct{})
	for _, tok := range e.tokenizer.Tokenize(text) {
		e.add(set, tok)
		if e.stemmer == nil || utf8.RuneCountInString(tok) <= stemMinRunes {
			continue
		}
		for _, stem := range e.stemmer.Stem(tok) {
			if utf8.RuneCountInString(stem) < MinTokenRunes {
				continue
			}
			e.add(set, stem)
		}
	}

	out := make([]string, 0, len(set))
	for kw := range set {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

func (e *Extractor) add(set map[string]struct{}, kw string) {
	set[kw] = struct{}{}
	if e.lexicon == nil {
		return
	}
	if canonical := e.lexicon.Normalize(kw); canonical != kw && utf8.RuneCountInString(canonical) >= MinTokenRunes {
		set[canonical] = struct{}{}
	}
}
