// Package storetest is a behavioural test suite shared by every
// store.Store implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/store"
)

// Run exercises a store. open must return an empty store; Run closes it.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Entities", testEntities},
		{"Keywords", testKeywords},
		{"ReinforceCounts", testReinforceCounts},
		{"ReinforceMissingEntity", testReinforceMissingEntity},
		{"KeywordOrdering", testKeywordOrdering},
		{"Associations", testAssociations},
		{"KindsAreIsolated", testKindsAreIsolated},
		{"ConcurrentReinforce", testConcurrentReinforce},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			tt.fn(t, s)
		})
	}
}

func mustCreate(t *testing.T, s store.Store, kind store.Kind, name string) store.Entity {
	t.Helper()
	e, err := s.CreateEntity(context.Background(), kind, name)
	if err != nil {
		t.Fatalf("CreateEntity(%s, %q): %v", kind, name, err)
	}
	return e
}

func testEntities(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := mustCreate(t, s, store.Department, "Muhasebe")
	b := mustCreate(t, s, store.Department, "Bilgi Islem")
	if a.ID == 0 || b.ID <= a.ID {
		t.Fatalf("IDs not increasing: %d, %d", a.ID, b.ID)
	}

	list, err := s.ListEntities(ctx, store.Department)
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(list) != 2 || list[0] != a || list[1] != b {
		t.Fatalf("ListEntities = %+v", list)
	}

	got, err := s.GetEntity(ctx, store.Department, b.ID)
	if err != nil || got != b {
		t.Fatalf("GetEntity = %+v, %v", got, err)
	}
	if _, err := s.GetEntity(ctx, store.Department, b.ID+100); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("GetEntity(missing) err = %v", err)
	}

	if _, err := s.CreateEntity(ctx, store.Department, "MUHASEBE"); !errors.Is(err, internalerr.ErrDuplicate) {
		t.Fatalf("duplicate name err = %v", err)
	}
	if _, err := s.CreateEntity(ctx, store.Department, "  "); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("blank name err = %v", err)
	}
	if _, err := s.CreateEntity(ctx, store.Kind(9), "x"); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("unknown kind err = %v", err)
	}

	// Same name under another kind is fine.
	mustCreate(t, s, store.Category, "Muhasebe")
}

func testKeywords(t *testing.T, s store.Store) {
	ctx := context.Background()

	kw, created, err := s.GetOrCreateKeyword(ctx, "yazıcı")
	if err != nil || !created || kw.ID == 0 || kw.Text != "yazıcı" {
		t.Fatalf("GetOrCreateKeyword = %+v, %v, %v", kw, created, err)
	}
	again, created, err := s.GetOrCreateKeyword(ctx, "yazıcı")
	if err != nil || created || again.ID != kw.ID {
		t.Fatalf("second GetOrCreateKeyword = %+v, %v, %v", again, created, err)
	}

	found, ok, err := s.GetKeyword(ctx, "yazıcı")
	if err != nil || !ok || found.ID != kw.ID {
		t.Fatalf("GetKeyword = %+v, %v, %v", found, ok, err)
	}
	if _, ok, err := s.GetKeyword(ctx, "toner"); err != nil || ok {
		t.Fatalf("GetKeyword(missing) = %v, %v", ok, err)
	}

	if n, err := s.KeywordCount(ctx); err != nil || n != 1 {
		t.Fatalf("KeywordCount = %d, %v", n, err)
	}
	if _, _, err := s.GetOrCreateKeyword(ctx, ""); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("empty keyword err = %v", err)
	}
}

func testReinforceCounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat := mustCreate(t, s, store.Category, "Yazıcı Arızası")
	kws := []string{"arıza", "arızası", "yazıcı", "yazıcı", ""}

	res, err := s.Reinforce(ctx, store.Category, cat.ID, kws)
	if err != nil {
		t.Fatalf("Reinforce: %v", err)
	}
	if res.NewKeywords != 3 || res.Created != 3 || res.Incremented != 0 || !res.Touched() {
		t.Fatalf("first Reinforce = %+v", res)
	}

	const n = 5
	for i := 1; i < n; i++ {
		res, err = s.Reinforce(ctx, store.Category, cat.ID, kws)
		if err != nil {
			t.Fatalf("Reinforce #%d: %v", i+1, err)
		}
	}
	if res.NewKeywords != 0 || res.Created != 0 || res.Incremented != 3 {
		t.Fatalf("last Reinforce = %+v", res)
	}

	if count, _ := s.KeywordCount(ctx); count != 3 {
		t.Fatalf("KeywordCount = %d, want 3", count)
	}
	for _, text := range []string{"arıza", "arızası", "yazıcı"} {
		kw, ok, _ := s.GetKeyword(ctx, text)
		if !ok {
			t.Fatalf("keyword %q missing", text)
		}
		w, ok, err := s.AssociationWeight(ctx, store.Category, kw.ID, cat.ID)
		if err != nil || !ok || w != n {
			t.Fatalf("weight(%s) = %d, %v, %v; want %d", text, w, ok, err, n)
		}
	}

	empty, err := s.Reinforce(ctx, store.Category, cat.ID, nil)
	if err != nil || empty.Touched() {
		t.Fatalf("empty Reinforce = %+v, %v", empty, err)
	}
}

func testReinforceMissingEntity(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Reinforce(ctx, store.Personnel, 12345, []string{"yazıcı"})
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	// The failed batch must not leave keyword rows behind.
	if n, _ := s.KeywordCount(ctx); n != 0 {
		t.Fatalf("KeywordCount = %d after failed Reinforce", n)
	}
	if _, err := s.Reinforce(ctx, store.Kind(9), 1, []string{"x"}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("unknown kind err = %v", err)
	}
}

func testKeywordOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	d := mustCreate(t, s, store.Department, "Muhasebe")

	for _, batch := range [][]string{
		{"muhasebe", "fatura", "internet"},
		{"muhasebe", "fatura"},
		{"muhasebe"},
	} {
		if _, err := s.Reinforce(ctx, store.Department, d.ID, batch); err != nil {
			t.Fatalf("Reinforce: %v", err)
		}
	}
	if _, err := s.Reinforce(ctx, store.Department, d.ID, []string{"banka"}); err != nil {
		t.Fatalf("Reinforce: %v", err)
	}

	got, err := s.EntityKeywords(ctx, store.Department, d.ID)
	if err != nil {
		t.Fatalf("EntityKeywords: %v", err)
	}
	want := []store.WeightedKeyword{
		{Text: "muhasebe", Weight: 3},
		{Text: "fatura", Weight: 2},
		{Text: "banka", Weight: 1},
		{Text: "internet", Weight: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("EntityKeywords = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("EntityKeywords[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func testAssociations(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := mustCreate(t, s, store.Personnel, "Ayşe Yılmaz")
	b := mustCreate(t, s, store.Personnel, "Mehmet Demir")
	if _, err := s.Reinforce(ctx, store.Personnel, b.ID, []string{"sunucu", "yedek"}); err != nil {
		t.Fatalf("Reinforce: %v", err)
	}

	rows, err := s.Associations(ctx, store.Personnel)
	if err != nil {
		t.Fatalf("Associations: %v", err)
	}
	if len(rows) != 2 || rows[0].Entity != a || rows[1].Entity != b {
		t.Fatalf("Associations = %+v", rows)
	}
	if len(rows[0].Keywords) != 0 {
		t.Fatalf("entity without keywords got %+v", rows[0].Keywords)
	}
	if texts := store.Texts(rows[1].Keywords); len(texts) != 2 || texts[0] != "sunucu" || texts[1] != "yedek" {
		t.Fatalf("keywords = %v", texts)
	}

	empty, err := s.Associations(ctx, store.Category)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty kind Associations = %+v, %v", empty, err)
	}
}

func testKindsAreIsolated(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat := mustCreate(t, s, store.Category, "Ağ Sorunu")
	dept := mustCreate(t, s, store.Department, "Bilgi Islem")

	if _, err := s.Reinforce(ctx, store.Category, cat.ID, []string{"internet"}); err != nil {
		t.Fatalf("Reinforce: %v", err)
	}
	if _, err := s.Reinforce(ctx, store.Department, dept.ID, []string{"internet"}); err != nil {
		t.Fatalf("Reinforce: %v", err)
	}
	if _, err := s.Reinforce(ctx, store.Department, dept.ID, []string{"internet"}); err != nil {
		t.Fatalf("Reinforce: %v", err)
	}

	kw, _, _ := s.GetKeyword(ctx, "internet")
	if w, _, _ := s.AssociationWeight(ctx, store.Category, kw.ID, cat.ID); w != 1 {
		t.Fatalf("category weight = %d, want 1", w)
	}
	if w, _, _ := s.AssociationWeight(ctx, store.Department, kw.ID, dept.ID); w != 2 {
		t.Fatalf("department weight = %d, want 2", w)
	}
	if n, _ := s.KeywordCount(ctx); n != 1 {
		t.Fatalf("keyword rows are shared across kinds, got %d", n)
	}
}

func testConcurrentReinforce(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat := mustCreate(t, s, store.Category, "Yazıcı Arızası")
	kws := []string{"yazıcı", "toner", "kağıt"}

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Reinforce(ctx, store.Category, cat.ID, kws); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Reinforce: %v", err)
	}

	if n, _ := s.KeywordCount(ctx); n != int64(len(kws)) {
		t.Fatalf("KeywordCount = %d, want %d", n, len(kws))
	}
	got, err := s.EntityKeywords(ctx, store.Category, cat.ID)
	if err != nil {
		t.Fatalf("EntityKeywords: %v", err)
	}
	for _, kw := range got {
		if kw.Weight != workers {
			t.Errorf("%s weight = %d, want %d", kw.Text, kw.Weight, workers)
		}
	}
}
