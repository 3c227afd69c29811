package score

import (
	"reflect"
	"testing"
)

var defaultPolicy = Policy{Threshold: 0.08, Floor: 0.05, TopN: 3}

func TestDecideThresholdIsInclusive(t *testing.T) {
	best, _ := Decide(map[int64]float64{1: 0.08}, defaultPolicy)
	if best == nil || *best != 1 {
		t.Fatalf("score equal to threshold must be selected, got %v", best)
	}

	best, suggestions := Decide(map[int64]float64{1: 0.0799999}, defaultPolicy)
	if best != nil {
		t.Fatalf("score below threshold selected: %d", *best)
	}
	if !reflect.DeepEqual(suggestions, []int64{1}) {
		t.Fatalf("below-threshold score above floor should still be suggested: %v", suggestions)
	}
}

func TestDecideTopN(t *testing.T) {
	_, suggestions := Decide(map[int64]float64{1: 0.5, 2: 0.4, 3: 0.3, 4: 0.2}, defaultPolicy)
	if !reflect.DeepEqual(suggestions, []int64{1, 2, 3}) {
		t.Fatalf("suggestions = %v", suggestions)
	}
}

func TestDecideFloor(t *testing.T) {
	_, suggestions := Decide(map[int64]float64{1: 0.06, 2: 0.05, 3: 0.0499}, defaultPolicy)
	if !reflect.DeepEqual(suggestions, []int64{1, 2}) {
		t.Fatalf("suggestions = %v", suggestions)
	}
	for _, id := range suggestions {
		if id == 3 {
			t.Fatal("score below floor suggested")
		}
	}
}

func TestDecideTiesPreferLowestID(t *testing.T) {
	best, suggestions := Decide(map[int64]float64{5: 0.3, 2: 0.3, 9: 0.1}, defaultPolicy)
	if best == nil || *best != 2 {
		t.Fatalf("best = %v, want 2", best)
	}
	if !reflect.DeepEqual(suggestions, []int64{2, 5, 9}) {
		t.Fatalf("suggestions = %v", suggestions)
	}
}

func TestDecideEmpty(t *testing.T) {
	best, suggestions := Decide(nil, defaultPolicy)
	if best != nil {
		t.Fatal("empty map selected something")
	}
	if suggestions == nil || len(suggestions) != 0 {
		t.Fatalf("suggestions = %#v, want empty non-nil", suggestions)
	}
}

func TestRank(t *testing.T) {
	got := Rank(map[int64]float64{3: 0.2, 1: 0.2, 2: 0.9})
	want := []Scored{{2, 0.9}, {1, 0.2}, {3, 0.2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rank = %v, want %v", got, want)
	}
}
