package destek

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/destek/pkg/destek/explain"
	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/store"
	"github.com/cognicore/destek/pkg/destek/suggest"
)

// EntitySuggestion answers "does this ticket need a new entity?". When
// an existing entity reaches the suggestion floor, Needed is false and
// Existing lists the candidates. Otherwise Name proposes a name taken
// from the text (empty if nothing usable was found).
type EntitySuggestion struct {
	Kind     store.Kind `json:"kind"`
	Needed   bool       `json:"needed"`
	Name     string     `json:"name,omitempty"`
	Existing []int64    `json:"existing"`
}

// SuggestNewEntity scores text against the entities of one kind and
// proposes a new entity name when none of them fits.
func (e *Engine) SuggestNewEntity(ctx context.Context, kind store.Kind, text string) (EntitySuggestion, error) {
	if !kind.Valid() {
		return EntitySuggestion{}, internalerr.Invalid("unknown kind %d", int(kind))
	}
	if strings.TrimSpace(text) == "" {
		return EntitySuggestion{}, internalerr.Invalid("empty ticket text")
	}

	kr, err := e.analyzeKind(ctx, kind, text, e.extractor.Extract(text))
	if err != nil {
		return EntitySuggestion{}, err
	}

	s := EntitySuggestion{Kind: kind, Existing: kr.Suggestions}
	if len(kr.Suggestions) == 0 {
		s.Needed = true
		s.Name = suggest.Name(kind, text)
	}
	return s, nil
}

// CreateEntity adds a department, category or staff member. Names are
// unique per kind regardless of case.
func (e *Engine) CreateEntity(ctx context.Context, kind store.Kind, name string) (store.Entity, error) {
	if !kind.Valid() {
		return store.Entity{}, internalerr.Invalid("unknown kind %d", int(kind))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Entity{}, internalerr.Invalid("empty %s name", kind)
	}

	ent, err := e.store.CreateEntity(ctx, kind, name)
	if err != nil {
		return store.Entity{}, internalerr.Store(fmt.Sprintf("create %s", kind), err)
	}
	e.logger.Info("entity created", "kind", kind, "id", ent.ID, "name", ent.Name)
	return ent, nil
}

// Explain classifies text and returns a readable account of the decision.
func (e *Engine) Explain(ctx context.Context, text string) (explain.Report, error) {
	res, err := e.Analyze(ctx, text)
	if err != nil {
		return explain.Report{}, err
	}

	inputs := make([]explain.KindInput, 0, len(store.Kinds))
	for _, kind := range store.Kinds {
		kr := res.For(kind)
		in := explain.KindInput{
			Kind:       kind,
			Threshold:  e.policies[kind].Threshold,
			BestID:     kr.BestID,
			Ranked:     make([]explain.Candidate, len(kr.Ranked)),
			Recognized: kr.Recognized,
		}
		for i, line := range kr.Ranked {
			in.Ranked[i] = explain.Candidate{
				ID:         line.ID,
				Name:       line.Name,
				Base:       line.Base,
				Recognizer: line.Recognizer,
				Score:      line.Score,
				Keywords:   kr.entityKeywords[line.ID],
			}
		}
		inputs = append(inputs, in)
	}
	return e.explainer.Build(text, res.Keywords, inputs), nil
}

// Entities lists the entities of one kind in id order.
func (e *Engine) Entities(ctx context.Context, kind store.Kind) ([]store.Entity, error) {
	if !kind.Valid() {
		return nil, internalerr.Invalid("unknown kind %d", int(kind))
	}
	list, err := e.store.ListEntities(ctx, kind)
	if err != nil {
		return nil, internalerr.Store(fmt.Sprintf("list %s", kind), err)
	}
	if list == nil {
		list = []store.Entity{}
	}
	return list, nil
}
