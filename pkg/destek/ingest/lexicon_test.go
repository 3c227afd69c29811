package ingest

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLexiconAddSynonymGroup(t *testing.T) {
	lex := NewLexicon()
	lex.AddSynonymGroup("yazıcı", []string{"printer", "yazici", "PRINTER"})

	tests := []struct {
		input string
		want  string
	}{
		{"printer", "yazıcı"},
		{"Printer", "yazıcı"},
		{"yazici", "yazıcı"},
		{"YAZICI", "yazıcı"},
		{"PRINTER", "yazıcı"},
		{"prınter", "yazıcı"},
		{"toner", "toner"},
	}
	for _, tt := range tests {
		if got := lex.Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	want := []string{"yazıcı", "printer", "yazici"}
	if got := lex.variants("PRINTER"); !reflect.DeepEqual(got, want) {
		t.Errorf("variants(PRINTER) = %v, want %v", got, want)
	}
	if got := lex.variants("toner"); !reflect.DeepEqual(got, []string{"toner"}) {
		t.Errorf("variants(toner) = %v", got)
	}
}

func TestLexiconReplaceGroup(t *testing.T) {
	lex := NewLexicon()
	lex.AddSynonymGroup("kablosuz", []string{"wifi", "wlan"})
	lex.AddSynonymGroup("kablosuz", []string{"wireless"})

	for _, stale := range []string{"wifi", "WIFI"} {
		if got := lex.Normalize(stale); got == "kablosuz" {
			t.Errorf("stale variant still mapped: Normalize(%s) = %q", stale, got)
		}
	}
	if got := lex.Normalize("wireless"); got != "kablosuz" {
		t.Errorf("Normalize(wireless) = %q", got)
	}
	if lex.Groups() != 1 {
		t.Errorf("Groups() = %d, want 1", lex.Groups())
	}
}

func TestLoadLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	data := `synonyms:
  - canonical: yazıcı
    variants: [printer, yazici]
  - canonical: kablosuz
    variants: [wifi, wi-fi]
  - canonical: ""
    variants: [ignored]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if lex.Groups() != 2 {
		t.Fatalf("Groups() = %d, want 2", lex.Groups())
	}
	if got := lex.Normalize("wifi"); got != "kablosuz" {
		t.Errorf("Normalize(wifi) = %q", got)
	}
	if got := lex.Normalize("ignored"); got != "ignored" {
		t.Errorf("group without canonical was loaded")
	}

	if _, err := LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExtractWithLexicon(t *testing.T) {
	lex := NewLexicon()
	lex.AddSynonymGroup("yazıcı", []string{"printer"})
	lex.AddSynonymGroup("kablosuz", []string{"wifi"})

	e := newTestExtractor()
	e.SetLexicon(lex)

	got := e.Extract("Printer çalışmıyor, wifi de yok")
	want := []string{"kablosuz", "printer", "wifi", "yazıcı", "yok", "çalışmıyor"}
	for _, kw := range want {
		if !contains(got, kw) {
			t.Errorf("Extract lacks %q: %v", kw, got)
		}
	}

	got = e.Extract("PRINTER bozuk, WIFI yok")
	for _, kw := range []string{"yazıcı", "kablosuz"} {
		if !contains(got, kw) {
			t.Errorf("upper-case loanwords: Extract lacks %q: %v", kw, got)
		}
	}

	e.SetLexicon(nil)
	if got := e.Extract("printer"); !reflect.DeepEqual(got, []string{"printer"}) {
		t.Errorf("without lexicon Extract(printer) = %v", got)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
