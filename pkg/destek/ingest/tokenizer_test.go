package ingest

import (
	"reflect"
	"testing"
)

func TestTokenizerTurkishCase(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	got := tokenizer.Tokenize("İSTANBUL Işık DİSK")
	want := []string{"istanbul", "ışık", "disk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizerPunctuationAndLength(t *testing.T) {
	tokenizer := NewTokenizer(nil)

	got := tokenizer.Tokenize("e-posta, şifre! (acil) a b cd")
	want := []string{"posta", "şifre", "acil", "cd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenizerStopwords(t *testing.T) {
	tokenizer := NewTokenizer([]string{"ve", "ÇOK"})

	got := tokenizer.Tokenize("Yazıcı ve tarayıcı çok yavaş")
	want := []string{"yazıcı", "tarayıcı", "yavaş"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}

	if got := NewTokenizer(nil).Tokenize("çok yavaş"); !reflect.DeepEqual(got, []string{"çok", "yavaş"}) {
		t.Errorf("without stopwords Tokenize = %v", got)
	}
}

func TestTokenizerEmpty(t *testing.T) {
	tokenizer := NewTokenizer(nil)
	for _, text := range []string{"", "   ", "!?.,;", "a b c"} {
		if got := tokenizer.Tokenize(text); len(got) != 0 {
			t.Errorf("Tokenize(%q) = %v, want empty", text, got)
		}
	}
}

func TestLowerNormalizesComposedForms(t *testing.T) {
	// I + combining dot above composes to İ, which folds to i.
	decomposed := "I\u0307"
	if got := Lower(decomposed); got != "i" {
		t.Errorf("Lower(%q) = %q, want %q", decomposed, got, "i")
	}
	if Lower("ÇAĞRI") != "çağrı" {
		t.Errorf("Lower(ÇAĞRI) = %q", Lower("ÇAĞRI"))
	}
}
