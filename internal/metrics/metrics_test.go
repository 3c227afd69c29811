package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cognicore/destek/pkg/destek"
	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/store/memstore"
	"github.com/cognicore/destek/pkg/destek/recognize"
	"github.com/cognicore/destek/pkg/destek/store"
)

func ptr(v int64) *int64 { return &v }

func TestRecorderAnalyze(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg, nil)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	res := destek.Result{
		Category:   destek.KindResult{BestID: ptr(3)},
		Department: destek.KindResult{Recognized: []recognize.Match{{ID: 2}, {ID: 7}}},
	}
	r.ObserveAnalyze(res, 2*time.Millisecond, nil)
	r.ObserveAnalyze(destek.Result{}, 0, internalerr.Invalid("empty ticket text"))
	r.ObserveAnalyze(destek.Result{}, 0, errors.New("boom"))

	for outcome, want := range map[string]float64{"ok": 1, "invalid": 1, "error": 1} {
		if got := testutil.ToFloat64(r.analyzeTotal.WithLabelValues(outcome)); got != want {
			t.Errorf("analyze_total{%s} = %v, want %v", outcome, got, want)
		}
	}
	if got := testutil.ToFloat64(r.decisions.WithLabelValues("category", "selected")); got != 1 {
		t.Errorf("category selected = %v", got)
	}
	if got := testutil.ToFloat64(r.decisions.WithLabelValues("department", "undetermined")); got != 1 {
		t.Errorf("department undetermined = %v", got)
	}
	if got := testutil.ToFloat64(r.recognized.WithLabelValues("department")); got != 2 {
		t.Errorf("recognized department = %v", got)
	}
	if n := testutil.CollectAndCount(r.analyzeDuration); n != 1 {
		t.Errorf("histogram series = %d", n)
	}
}

func TestRecorderLearn(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg, nil)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	r.ObserveLearn(destek.Feedback{Category: true, Personnel: true, NewKeywords: 4}, time.Millisecond, nil)
	r.ObserveLearn(destek.Feedback{Category: true}, time.Millisecond, errors.New("db down"))

	if got := testutil.ToFloat64(r.learnTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("learn ok = %v", got)
	}
	if got := testutil.ToFloat64(r.learnTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("learn error = %v", got)
	}
	if got := testutil.ToFloat64(r.reinforced.WithLabelValues("category")); got != 2 {
		t.Errorf("reinforced category = %v", got)
	}
	if got := testutil.ToFloat64(r.reinforced.WithLabelValues("personnel")); got != 1 {
		t.Errorf("reinforced personnel = %v", got)
	}
	if got := testutil.ToFloat64(r.newKeywords); got != 4 {
		t.Errorf("new keywords = %v", got)
	}
}

func TestRecorderDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg, nil); err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if _, err := NewRecorder(reg, nil); err == nil {
		t.Fatal("expected an AlreadyRegisteredError")
	}
}

func TestAssociationCollector(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	cat, _ := st.CreateEntity(ctx, store.Category, "Yazıcı Arızası")
	if _, err := st.CreateEntity(ctx, store.Department, "Muhasebe"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Reinforce(ctx, store.Category, cat.ID, []string{"yazıcı", "toner"}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Reinforce(ctx, store.Category, cat.ID, []string{"yazıcı"}); err != nil {
		t.Fatal(err)
	}

	c := NewAssociationCollector(st)
	// 3 gauges per kind plus the keyword total.
	if n := testutil.CollectAndCount(c); n != 3*len(store.Kinds)+1 {
		t.Fatalf("CollectAndCount = %d", n)
	}

	expected := `
# HELP destek_association_weight_total Sum of association weights by kind (confirmed learn events per keyword)
# TYPE destek_association_weight_total counter
destek_association_weight_total{kind="category"} 3
destek_association_weight_total{kind="department"} 0
destek_association_weight_total{kind="personnel"} 0
# HELP destek_keywords Number of distinct keywords
# TYPE destek_keywords gauge
destek_keywords 2
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"destek_association_weight_total", "destek_keywords"); err != nil {
		t.Fatal(err)
	}
}

type brokenStore struct {
	store.Store
}

func (brokenStore) Associations(context.Context, store.Kind) ([]store.EntityKeywords, error) {
	return nil, errors.New("connection refused")
}

func TestAssociationCollectorStoreError(t *testing.T) {
	c := NewAssociationCollector(brokenStore{Store: memstore.New()})
	if n := testutil.CollectAndCount(c); n != 0 {
		t.Fatalf("CollectAndCount = %d, want 0 on store failure", n)
	}
}
