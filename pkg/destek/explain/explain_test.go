package explain

import (
	"strings"
	"testing"

	"github.com/cognicore/destek/pkg/destek/recognize"
	"github.com/cognicore/destek/pkg/destek/store"
)

func id(v int64) *int64 { return &v }

func TestBuildSelectedAndUndetermined(t *testing.T) {
	b := New(0)
	keywords := []string{"bağlantı", "internet", "muhasebe", "muhasebede"}

	r := b.Build("Muhasebede internet bağlantısı", keywords, []KindInput{
		{
			Kind:      store.Department,
			Threshold: 0.08,
			BestID:    id(2),
			Ranked: []Candidate{
				{ID: 2, Name: "Muhasebe", Base: 0.357, Recognizer: 0.92, Score: 0.751, Keywords: []string{"muhasebe", "internet"}},
				{ID: 1, Name: "Depo", Score: 0},
			},
			Recognized: []recognize.Match{{ID: 2, Name: "Muhasebe", Confidence: 0.92}},
		},
		{
			Kind:      store.Category,
			Threshold: 0.08,
			Ranked:    []Candidate{{ID: 5, Name: "Yazıcı", Score: 0.06, Keywords: []string{"yazıcı", "internetsiz"}}},
		},
		{Kind: store.Personnel, Threshold: 0.10},
	})

	if r.ID == "" {
		t.Fatal("report ID not set")
	}
	if len(r.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(r.Sections))
	}

	dept := r.Sections[0]
	if dept.Decision != DecisionSelected {
		t.Fatalf("department decision = %s", dept.Decision)
	}
	if len(dept.Lines) != 1 {
		t.Fatalf("zero-score lines must be omitted, got %+v", dept.Lines)
	}
	line := dept.Lines[0]
	if !line.Selected || line.ID != 2 {
		t.Fatalf("unexpected line %+v", line)
	}
	if strings.Join(line.Matched, ",") != "internet,muhasebe" {
		t.Fatalf("matched = %v", line.Matched)
	}

	cat := r.Sections[1]
	if cat.Decision != DecisionUndetermined || cat.Lines[0].Selected {
		t.Fatalf("category should be undetermined: %+v", cat)
	}
	if strings.Join(cat.Lines[0].Matched, ",") != "internetsiz" {
		t.Fatalf("partial match not reported: %v", cat.Lines[0].Matched)
	}

	pers := r.Sections[2]
	if pers.Lines == nil || pers.Recognized == nil {
		t.Fatal("empty sections must carry empty slices, not nil")
	}

	joined := strings.Join(r.Bullets, "\n")
	for _, want := range []string{
		`department: "Muhasebe" selected`,
		`"Muhasebe" named in the text`,
		`category: best candidate "Yazıcı" scored 0.060, below threshold 0.08`,
		`personnel: no candidate`,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("bullets missing %q:\n%s", want, joined)
		}
	}
}

func TestBuildMaxLines(t *testing.T) {
	b := New(2)
	var ranked []Candidate
	for i := int64(1); i <= 5; i++ {
		ranked = append(ranked, Candidate{ID: i, Score: 1 / float64(i)})
	}
	r := b.Build("x", nil, []KindInput{{Kind: store.Category, Ranked: ranked}})
	if got := len(r.Sections[0].Lines); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
	if r.Keywords == nil {
		t.Fatal("keywords must not be nil")
	}
}

func TestNewIDUnique(t *testing.T) {
	b := New(0)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := b.NewID()
		if seen[id] {
			t.Fatalf("duplicate ULID %s", id)
		}
		seen[id] = true
	}
}
