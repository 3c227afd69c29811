// Package explain turns a classification into a report a support agent
// can read: which keywords were found, which entities scored, why one
// was or was not selected.
package explain

import (
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/destek/pkg/destek/recognize"
	"github.com/cognicore/destek/pkg/destek/score"
	"github.com/cognicore/destek/pkg/destek/store"
)

// DefaultMaxLines caps the lines listed per kind.
const DefaultMaxLines = 5

const (
	DecisionSelected     = "selected"
	DecisionUndetermined = "undetermined"
)

// Builder constructs reports. IDs are monotonic ULIDs, unique even
// within the same millisecond.
type Builder struct {
	mu       sync.Mutex
	entropy  *ulid.MonotonicEntropy
	maxLines int
}

// New creates a builder listing at most maxLines entities per kind
// (DefaultMaxLines when maxLines <= 0).
func New(maxLines int) *Builder {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Builder{
		entropy:  ulid.Monotonic(rand.Reader, 0),
		maxLines: maxLines,
	}
}

// NewID returns a fresh ULID string.
func (b *Builder) NewID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Now(), b.entropy).String()
}

// Candidate is one scored entity handed to the builder.
type Candidate struct {
	ID         int64
	Name       string
	Base       float64
	Recognizer float64
	Score      float64
	Keywords   []string // the entity's associated keywords
}

// KindInput is the outcome of one kind's scoring.
type KindInput struct {
	Kind       store.Kind
	Threshold  float64
	BestID     *int64
	Ranked     []Candidate // best first
	Recognized []recognize.Match
}

// Line is one entity in a report section.
type Line struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Base       float64  `json:"base"`
	Recognizer float64  `json:"recognizer"`
	Score      float64  `json:"score"`
	Matched    []string `json:"matched_keywords"`
	Selected   bool     `json:"selected"`
}

// Section explains one kind.
type Section struct {
	Kind       store.Kind        `json:"kind"`
	Decision   string            `json:"decision"`
	Threshold  float64           `json:"threshold"`
	BestID     *int64            `json:"best_id"`
	Lines      []Line            `json:"lines"`
	Recognized []recognize.Match `json:"recognized"`
}

// Report is the full explanation of one analysis.
type Report struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Keywords []string  `json:"keywords"`
	Sections []Section `json:"sections"`
	Bullets  []string  `json:"bullets"`
}

// Build assembles a report for text whose extracted keywords are keywords.
func (b *Builder) Build(text string, keywords []string, kinds []KindInput) Report {
	r := Report{
		ID:       b.NewID(),
		Text:     text,
		Keywords: keywords,
		Sections: make([]Section, 0, len(kinds)),
		Bullets:  []string{},
	}
	if r.Keywords == nil {
		r.Keywords = []string{}
	}

	for _, in := range kinds {
		sec := Section{
			Kind:       in.Kind,
			Decision:   DecisionUndetermined,
			Threshold:  in.Threshold,
			BestID:     in.BestID,
			Lines:      []Line{},
			Recognized: in.Recognized,
		}
		if sec.Recognized == nil {
			sec.Recognized = []recognize.Match{}
		}
		if in.BestID != nil {
			sec.Decision = DecisionSelected
		}

		for _, c := range in.Ranked {
			if len(sec.Lines) == b.maxLines {
				break
			}
			if c.Score <= 0 {
				continue
			}
			matched := score.Matched(keywords, c.Keywords)
			if matched == nil {
				matched = []string{}
			}
			sec.Lines = append(sec.Lines, Line{
				ID:         c.ID,
				Name:       c.Name,
				Base:       c.Base,
				Recognizer: c.Recognizer,
				Score:      c.Score,
				Matched:    matched,
				Selected:   in.BestID != nil && *in.BestID == c.ID,
			})
		}

		r.Sections = append(r.Sections, sec)
		r.Bullets = append(r.Bullets, bullets(sec)...)
	}
	return r
}

func bullets(sec Section) []string {
	var out []string
	switch {
	case sec.Decision == DecisionSelected && len(sec.Lines) > 0 && sec.Lines[0].Selected:
		l := sec.Lines[0]
		out = append(out, fmt.Sprintf("%s: %q selected with score %.3f (threshold %.2f)", sec.Kind, l.Name, l.Score, sec.Threshold))
	case len(sec.Lines) == 0:
		out = append(out, fmt.Sprintf("%s: no candidate shares a keyword with the text", sec.Kind))
	default:
		l := sec.Lines[0]
		out = append(out, fmt.Sprintf("%s: best candidate %q scored %.3f, below threshold %.2f", sec.Kind, l.Name, l.Score, sec.Threshold))
	}
	for _, m := range sec.Recognized {
		out = append(out, fmt.Sprintf("%s: %q named in the text (confidence %.2f)", sec.Kind, m.Name, m.Confidence))
	}
	return out
}
