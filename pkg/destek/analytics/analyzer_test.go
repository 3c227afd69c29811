package analytics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cognicore/destek/pkg/destek/store"
	"github.com/cognicore/destek/pkg/destek/store/memstore"
)

func TestReportFlagsDominantKeywords(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()

	seed := map[string][]string{
		"Yazıcı":  {"yazıcı", "sorun", "kağıt"},
		"Ağ":      {"internet", "sorun"},
		"Donanım": {"ekran", "sorun"},
		"Yazılım": {"lisans"},
	}
	for _, name := range []string{"Yazıcı", "Ağ", "Donanım", "Yazılım"} {
		e, err := st.CreateEntity(ctx, store.Category, name)
		if err != nil {
			t.Fatalf("CreateEntity: %v", err)
		}
		if _, err := st.Reinforce(ctx, store.Category, e.ID, seed[name]); err != nil {
			t.Fatalf("Reinforce: %v", err)
		}
	}
	// "sorun" twice on the first entity skews its distribution.
	if _, err := st.Reinforce(ctx, store.Category, 1, []string{"sorun"}); err != nil {
		t.Fatalf("Reinforce: %v", err)
	}

	stats, err := Collect(ctx, st)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	report := stats.Report(0)

	if report.DominantShare != DefaultDominantShare {
		t.Fatalf("share = %v", report.DominantShare)
	}
	if len(report.Kinds) != len(store.Kinds) {
		t.Fatalf("expected one section per kind, got %d", len(report.Kinds))
	}

	cat := report.Kinds[0]
	if cat.Kind != store.Category || cat.Entities != 4 {
		t.Fatalf("unexpected category section %+v", cat)
	}
	if cat.Keywords != 6 || cat.Associations != 8 || cat.TotalWeight != 9 {
		t.Fatalf("counts = %d keywords, %d associations, %d weight", cat.Keywords, cat.Associations, cat.TotalWeight)
	}
	if len(cat.Dominant) != 1 {
		t.Fatalf("expected only 'sorun' to be dominant, got %+v", cat.Dominant)
	}
	d := cat.Dominant[0]
	if d.Keyword != "sorun" || d.Entities != 3 || d.TotalWeight != 4 {
		t.Fatalf("unexpected dominant keyword %+v", d)
	}
	if math.Abs(d.Share-0.75) > 1e-9 {
		t.Fatalf("share = %v, want 0.75", d.Share)
	}
	if d.Entropy <= 0 || d.Entropy >= 1 {
		t.Fatalf("skewed distribution entropy should be in (0,1), got %v", d.Entropy)
	}

	if dept := report.Kinds[1]; dept.Entities != 0 || len(dept.Dominant) != 0 {
		t.Fatalf("empty kind should report nothing, got %+v", dept)
	}
}

func TestReportSingleEntityIsNeverDominant(t *testing.T) {
	a := NewAnalyzer()
	a.Process(store.Department, store.EntityKeywords{
		Entity:   store.Entity{ID: 1, Name: "Muhasebe"},
		Keywords: []store.WeightedKeyword{{Text: "fatura", Weight: 3}},
	})
	r := a.Snapshot().Report(0.1)
	if n := len(r.Kinds[1].Dominant); n != 0 {
		t.Fatalf("single-entity keyword flagged as dominant")
	}
}

func TestEntropy(t *testing.T) {
	if got := entropy(map[int64]int64{1: 5, 2: 5}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("uniform entropy = %v, want 1", got)
	}
	if got := entropy(map[int64]int64{1: 5}); got != 0 {
		t.Fatalf("single entity entropy = %v, want 0", got)
	}
}

type failingReader struct{}

func (failingReader) Associations(context.Context, store.Kind) ([]store.EntityKeywords, error) {
	return nil, errors.New("boom")
}

func TestCollectPropagatesErrors(t *testing.T) {
	if _, err := Collect(context.Background(), failingReader{}); err == nil {
		t.Fatal("expected error")
	}
}
