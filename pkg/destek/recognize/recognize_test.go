package recognize

import (
	"math"
	"testing"

	"github.com/junegunn/fzf/src/util"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRecognizeSuffixedName(t *testing.T) {
	r := New(0)
	matches := r.Recognize("Muhasebede internet bağlantısı çok yavaş", []Entry{
		{ID: 1, Name: "Bilgi İşlem"},
		{ID: 2, Name: "Muhasebe"},
		{ID: 3, Name: "İnsan Kaynakları"},
	})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %+v", matches)
	}
	m := matches[0]
	if m.ID != 2 || m.Name != "Muhasebe" {
		t.Fatalf("unexpected match %+v", m)
	}
	// 8 of 10 runes, contiguous: 1 * (0.6 + 0.4*0.8)
	if !near(m.Confidence, 0.92) {
		t.Fatalf("confidence = %v, want 0.92", m.Confidence)
	}
}

func TestRecognizeFoldsDiacritics(t *testing.T) {
	r := New(0)
	matches := r.Recognize("ayse yilmaz ile gorustum", []Entry{{ID: 7, Name: "Ayşe Yılmaz"}})
	if len(matches) != 1 || matches[0].ID != 7 || matches[0].Confidence != 1 {
		t.Fatalf("unexpected matches %+v", matches)
	}
}

func TestRecognizeNamePart(t *testing.T) {
	r := New(0)
	matches := r.Recognize("Ayşe Hanım yazıcıyı kontrol etsin", []Entry{
		{ID: 1, Name: "Ayşe Yılmaz"},
		{ID: 2, Name: "Mehmet Demir"},
	})
	if len(matches) != 1 || matches[0].ID != 1 {
		t.Fatalf("unexpected matches %+v", matches)
	}
	if !near(matches[0].Confidence, partScale) {
		t.Fatalf("confidence = %v, want %v", matches[0].Confidence, partScale)
	}
}

func TestRecognizeShortNamesNeedExactMatch(t *testing.T) {
	r := New(0)
	entries := []Entry{{ID: 4, Name: "IT"}}

	if got := r.Recognize("IT birimine ulaşamıyorum", entries); len(got) != 1 {
		t.Fatalf("expected exact short match, got %+v", got)
	}
	if got := r.Recognize("itiraz kaydı açtım", entries); len(got) != 0 {
		t.Fatalf("short name must not fuzzy match, got %+v", got)
	}
}

func TestRecognizeMinConfidence(t *testing.T) {
	r := New(0.95)
	got := r.Recognize("Muhasebede sorun var", []Entry{{ID: 2, Name: "Muhasebe"}})
	if len(got) != 0 {
		t.Fatalf("0.92 hit should be dropped at 0.95, got %+v", got)
	}
}

func TestRecognizeOrdering(t *testing.T) {
	r := New(0)
	got := r.Recognize("depo muhasebede", []Entry{
		{ID: 9, Name: "Depo"},
		{ID: 5, Name: "Muhasebe"},
		{ID: 3, Name: "depo"},
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %+v", got)
	}
	if got[0].ID != 3 || got[1].ID != 9 || got[2].ID != 5 {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestRecognizeEmpty(t *testing.T) {
	r := New(0)
	if got := r.Recognize("", []Entry{{ID: 1, Name: "Muhasebe"}}); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := r.Recognize("muhasebe", nil); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
	if got := r.Recognize("muhasebe", []Entry{{ID: 1, Name: "  "}}); len(got) != 0 {
		t.Fatalf("blank name must be skipped, got %+v", got)
	}
}

func TestConfidenceAnchoredAtWindowStart(t *testing.T) {
	New(0)
	slab := util.MakeSlab(slab16Size, slab32Size)

	if c := confidence("xmuhasebe", "muhasebe", slab); c != 0 {
		t.Fatalf("match not at window start should score 0, got %v", c)
	}
	if c := confidence("muhasebe", "muhasebe", slab); c != 1 {
		t.Fatalf("exact window should score 1, got %v", c)
	}
	if c := confidence("yazici", "muhasebe", slab); c != 0 {
		t.Fatalf("no match should score 0, got %v", c)
	}
}
