package ingest

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestExtractor() *Extractor {
	return NewExtractor(NewTokenizer(nil), NewSuffixStemmer())
}

func TestExtract(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		text string
		want []string
	}{
		{"Yazıcı arızası", []string{"arıza", "arızası", "yazıcı"}},
		{
			"Muhasebede internet bağlantısı çok yavaş",
			[]string{"bağlantı", "bağlantısı", "internet", "muhasebe", "muhasebede", "yavaş", "çok"},
		},
		{"yazıcı YAZICI Yazıcı", []string{"yazıcı"}},
		{"", []string{}},
		{"?!", []string{}},
	}
	for _, tt := range tests {
		if got := e.Extract(tt.text); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestExtractProperties(t *testing.T) {
	e := newTestExtractor()
	tokenizer := NewTokenizer(nil)

	texts := []string{
		"Muhasebede internet bağlantısı çok yavaş",
		"Bilgi İşlem biriminden kimse telefona cevap vermiyor!",
		"VPN'e bağlanamıyorum, şifremi de unuttum.",
		"a b c ev ağ yazıcılarından",
	}
	for _, text := range texts {
		kw := e.Extract(text)
		set := make(map[string]bool, len(kw))
		for _, k := range kw {
			if utf8.RuneCountInString(k) < MinTokenRunes {
				t.Errorf("%q: keyword %q shorter than %d runes", text, k, MinTokenRunes)
			}
			set[k] = true
		}
		for _, tok := range tokenizer.Tokenize(text) {
			if utf8.RuneCountInString(tok) > 3 && !set[tok] {
				t.Errorf("%q: token %q missing from %v", text, tok, kw)
			}
		}
		if !sortedUnique(kw) {
			t.Errorf("%q: keywords not sorted and unique: %v", text, kw)
		}
	}
}

func TestExtractWithoutStemmer(t *testing.T) {
	e := NewExtractor(nil, nil)
	got := e.Extract("Yazıcı arızası")
	if strings.Join(got, ",") != "arızası,yazıcı" {
		t.Errorf("Extract = %v", got)
	}
}

func sortedUnique(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] >= s[i] {
			return false
		}
	}
	return true
}
