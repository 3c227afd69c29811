package destek

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/recognize"
	"github.com/cognicore/destek/pkg/destek/score"
	"github.com/cognicore/destek/pkg/destek/store"
)

// ScoredEntity is one entity's line in a classification.
type ScoredEntity struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Base       float64 `json:"base"`       // keyword similarity
	Recognizer float64 `json:"recognizer"` // name recognition confidence, 0 if not named
	Score      float64 `json:"score"`      // final score used for the decision
}

// KindResult is the classification outcome for one kind. BestID is nil
// when no entity reached the kind's threshold; that is a normal result.
type KindResult struct {
	BestID      *int64            `json:"best_id"`
	Suggestions []int64           `json:"suggestions"`
	Scores      map[int64]float64 `json:"scores"`
	Ranked      []ScoredEntity    `json:"ranked"`
	Recognized  []recognize.Match `json:"recognized"`

	entityKeywords map[int64][]string
}

// Result is the classification of one ticket text.
type Result struct {
	ID         string     `json:"id"`
	Keywords   []string   `json:"keywords"`
	Category   KindResult `json:"category"`
	Department KindResult `json:"department"`
	Personnel  KindResult `json:"personnel"`
}

// For returns the part of the result for kind.
func (r *Result) For(kind store.Kind) *KindResult {
	switch kind {
	case store.Category:
		return &r.Category
	case store.Department:
		return &r.Department
	case store.Personnel:
		return &r.Personnel
	}
	return nil
}

// Analyze classifies text. The three kinds are scored concurrently
// against the persisted associations; a store failure in any of them
// fails the whole call.
func (e *Engine) Analyze(ctx context.Context, text string) (res Result, err error) {
	start := time.Now()
	defer func() { e.observer.ObserveAnalyze(res, time.Since(start), err) }()

	if strings.TrimSpace(text) == "" {
		return Result{}, internalerr.Invalid("empty ticket text")
	}

	kw := e.extractor.Extract(text)

	var parts [3]KindResult
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range store.Kinds {
		g.Go(func() error {
			kr, err := e.analyzeKind(gctx, kind, text, kw)
			if err != nil {
				return err
			}
			parts[i] = kr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) {
			e.logger.Error("analyze failed", "error", err)
		}
		return Result{}, err
	}

	res = Result{
		ID:         e.explainer.NewID(),
		Keywords:   kw,
		Category:   parts[0],
		Department: parts[1],
		Personnel:  parts[2],
	}
	if res.Keywords == nil {
		res.Keywords = []string{}
	}
	e.logger.Debug("analyzed ticket",
		"id", res.ID,
		"keywords", len(kw),
		"category", idAttr(res.Category.BestID),
		"department", idAttr(res.Department.BestID),
		"personnel", idAttr(res.Personnel.BestID),
	)
	return res, nil
}

// analyzeKind scores every entity of one kind against kw.
func (e *Engine) analyzeKind(ctx context.Context, kind store.Kind, text string, kw []string) (KindResult, error) {
	rows, err := e.store.Associations(ctx, kind)
	if err != nil {
		return KindResult{}, internalerr.Store(fmt.Sprintf("load %s associations", kind), err)
	}

	kr := KindResult{
		Scores:         make(map[int64]float64, len(rows)),
		Ranked:         make([]ScoredEntity, 0, len(rows)),
		Recognized:     []recognize.Match{},
		entityKeywords: make(map[int64][]string, len(rows)),
	}

	lines := make(map[int64]*ScoredEntity, len(rows))
	for _, row := range rows {
		texts := store.Texts(row.Keywords)
		base := score.Similarity(kw, texts)
		kr.entityKeywords[row.Entity.ID] = texts
		lines[row.Entity.ID] = &ScoredEntity{
			ID:    row.Entity.ID,
			Name:  row.Entity.Name,
			Base:  base,
			Score: base,
		}
	}

	if e.recognizer != nil && kind != store.Category && len(rows) > 0 {
		entries := make([]recognize.Entry, len(rows))
		for i, row := range rows {
			entries[i] = recognize.Entry{ID: row.Entity.ID, Name: row.Entity.Name}
		}
		for _, m := range e.recognizer.Recognize(text, entries) {
			line, ok := lines[m.ID]
			if !ok {
				continue
			}
			kr.Recognized = append(kr.Recognized, m)
			line.Recognizer = m.Confidence
			line.Score = line.Base*e.blend.Base + m.Confidence*e.blend.Recognizer
		}
	}

	for id, line := range lines {
		kr.Scores[id] = line.Score
	}
	for _, s := range score.Rank(kr.Scores) {
		kr.Ranked = append(kr.Ranked, *lines[s.ID])
	}
	kr.BestID, kr.Suggestions = score.Decide(kr.Scores, e.policies[kind])
	return kr, nil
}

func idAttr(id *int64) any {
	if id == nil {
		return "none"
	}
	return *id
}
