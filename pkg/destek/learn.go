package destek

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/store"
)

// LearnRequest is a confirmed (or corrected) classification. A nil id
// leaves that kind untouched.
type LearnRequest struct {
	Text         string `json:"text"`
	CategoryID   *int64 `json:"category_id,omitempty"`
	DepartmentID *int64 `json:"department_id,omitempty"`
	PersonnelID  *int64 `json:"personnel_id,omitempty"`
}

// ID returns the selected entity of kind, or nil.
func (r LearnRequest) ID(kind store.Kind) *int64 {
	switch kind {
	case store.Category:
		return r.CategoryID
	case store.Department:
		return r.DepartmentID
	case store.Personnel:
		return r.PersonnelID
	}
	return nil
}

// Feedback reports what a Learn call changed. A kind is true when at
// least one of its associations was created or strengthened.
type Feedback struct {
	Category    bool     `json:"category"`
	Department  bool     `json:"department"`
	Personnel   bool     `json:"personnel"`
	NewKeywords int      `json:"new_keywords"`
	Keywords    []string `json:"keywords"`
}

func (f *Feedback) set(kind store.Kind, v bool) {
	switch kind {
	case store.Category:
		f.Category = v
	case store.Department:
		f.Department = v
	case store.Personnel:
		f.Personnel = v
	}
}

// Learn strengthens the association between every keyword of req.Text
// and each selected entity by one. Every selected entity is checked
// before anything is written, so an unknown id changes nothing. Each
// selection is then applied in its own transaction, in the order
// category, department, personnel; when one fails, selections already
// applied stay applied and the returned Feedback describes them.
//
// Learn is not idempotent: sending the same confirmation twice counts
// twice.
func (e *Engine) Learn(ctx context.Context, req LearnRequest) (fb Feedback, err error) {
	start := time.Now()
	defer func() { e.observer.ObserveLearn(fb, time.Since(start), err) }()

	if strings.TrimSpace(req.Text) == "" {
		return Feedback{}, internalerr.Invalid("empty ticket text")
	}

	kw := e.extractor.Extract(req.Text)
	fb.Keywords = kw
	if fb.Keywords == nil {
		fb.Keywords = []string{}
	}

	for _, kind := range store.Kinds {
		id := req.ID(kind)
		if id == nil {
			continue
		}
		if _, err := e.store.GetEntity(ctx, kind, *id); err != nil {
			if errors.Is(err, internalerr.ErrNotFound) {
				return fb, fmt.Errorf("%w: %w", internalerr.ErrInvalidInput, err)
			}
			return fb, internalerr.Store(fmt.Sprintf("get %s", kind), err)
		}
	}

	for _, kind := range store.Kinds {
		id := req.ID(kind)
		if id == nil {
			continue
		}
		res, err := e.store.Reinforce(ctx, kind, *id, kw)
		if err != nil {
			e.logger.Error("reinforce failed", "kind", kind, "entity", *id, "error", err)
			return fb, internalerr.Store(fmt.Sprintf("reinforce %s %d", kind, *id), err)
		}
		fb.set(kind, res.Touched())
		fb.NewKeywords += res.NewKeywords

		e.logger.Debug("reinforced",
			"kind", kind,
			"entity", *id,
			"created", res.Created,
			"incremented", res.Incremented,
			"new_keywords", res.NewKeywords,
		)
	}
	return fb, nil
}
