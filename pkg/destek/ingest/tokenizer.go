package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MinTokenRunes is the shortest token kept by the tokenizer.
const MinTokenRunes = 2

// Tokenizer handles Turkish text normalization and tokenization
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer creates a new tokenizer with the given stopword list.
// An empty list keeps every token.
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		if w = Lower(strings.TrimSpace(w)); w != "" {
			stops[w] = struct{}{}
		}
	}
	return &Tokenizer{stopwords: stops}
}

// Lower applies NFC normalization and Turkish case folding
// (İ→i, I→ı, Ş→ş, ...). A new Caser is built per call because
// cases.Caser keeps state and must not be shared between goroutines.
func Lower(s string) string {
	return cases.Lower(language.Turkish).String(norm.NFC.String(s))
}

// Tokenize lowercases text, turns punctuation and symbols into
// separators and returns tokens of at least MinTokenRunes runes,
// in text order, stopwords removed.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		word := current.String()
		current.Reset()
		if utf8.RuneCountInString(word) < MinTokenRunes {
			return
		}
		if t.isStopword(word) {
			return
		}
		tokens = append(tokens, word)
	}

	for _, r := range Lower(text) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return tokens
}

func (t *Tokenizer) isStopword(word string) bool {
	_, ok := t.stopwords[word]
	return ok
}
