package score

import "sort"

// Policy is the per-kind decision rule.
type Policy struct {
	// Threshold is the inclusive minimum for an automatic best match.
	Threshold float64
	// Floor is the inclusive minimum for the suggestion list.
	Floor float64
	// TopN caps the suggestion list.
	TopN int
}

// Scored pairs an entity ID with its final score.
type Scored struct {
	ID    int64
	Score float64
}

// Rank orders scores by descending score, ties by ascending ID.
func Rank(scores map[int64]float64) []Scored {
	out := make([]Scored, 0, len(scores))
	for id, s := range scores {
		out = append(out, Scored{ID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Decide applies p to a score map. best is nil when no entity reaches the
// threshold (or the map is empty); suggestions holds at most TopN IDs
// whose score is at least Floor, best first.
func Decide(scores map[int64]float64, p Policy) (best *int64, suggestions []int64) {
	ranked := Rank(scores)
	if len(ranked) > 0 && ranked[0].Score >= p.Threshold {
		id := ranked[0].ID
		best = &id
	}

	suggestions = []int64{}
	for _, s := range ranked {
		if len(suggestions) >= p.TopN {
			break
		}
		if s.Score < p.Floor {
			break
		}
		suggestions = append(suggestions, s.ID)
	}
	return best, suggestions
}
