// Package destek classifies free-text IT support tickets into a
// category, a department and a responsible staff member, and learns
// from every confirmed or corrected classification.
//
// Classification compares the ticket's keywords with the keywords each
// entity has accumulated through past confirmations. Department and
// staff names mentioned in the text are spotted separately and blended
// into the score.
package destek

import (
	"context"
	"log/slog"
	"time"

	"github.com/cognicore/destek/pkg/destek/analytics"
	"github.com/cognicore/destek/pkg/destek/config"
	"github.com/cognicore/destek/pkg/destek/explain"
	"github.com/cognicore/destek/pkg/destek/ingest"
	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/recognize"
	"github.com/cognicore/destek/pkg/destek/score"
	"github.com/cognicore/destek/pkg/destek/store"
)

// Recognizer spots entity names in raw ticket text.
type Recognizer interface {
	Recognize(text string, entries []recognize.Entry) []recognize.Match
}

// Observer receives the outcome of every engine call. Implementations
// must be safe for concurrent use.
type Observer interface {
	ObserveAnalyze(res Result, elapsed time.Duration, err error)
	ObserveLearn(fb Feedback, elapsed time.Duration, err error)
}

// Blend weights the keyword score against recognizer confidence for
// entities named in the text.
type Blend struct {
	Base       float64
	Recognizer float64
}

// DefaultBlend favours an explicit mention over keyword overlap.
var DefaultBlend = Blend{Base: 0.3, Recognizer: 0.7}

// DefaultPolicies returns the built-in decision policy per kind.
func DefaultPolicies() map[store.Kind]score.Policy {
	return map[store.Kind]score.Policy{
		store.Category:   {Threshold: 0.08, Floor: 0.05, TopN: 3},
		store.Department: {Threshold: 0.08, Floor: 0.05, TopN: 3},
		store.Personnel:  {Threshold: 0.10, Floor: 0.05, TopN: 3},
	}
}

// Engine is the classification and learning facade.
type Engine struct {
	store         store.Store
	extractor     *ingest.Extractor
	recognizer    Recognizer
	policies      map[store.Kind]score.Policy
	blend         Blend
	explainer     *explain.Builder
	dominantShare float64
	logger        *slog.Logger
	observer      Observer
}

// Options configures an Engine
type Options struct {
	Store      store.Store
	Extractor  *ingest.Extractor           // nil: default tokenizer and suffix stemmer
	Recognizer Recognizer                  // nil disables name recognition
	Policies   map[store.Kind]score.Policy // missing kinds use DefaultPolicies
	Blend      Blend                       // zero value: DefaultBlend
	// DominantShare is passed to the analytics report.
	DominantShare float64
	Logger        *slog.Logger
	Observer      Observer
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	e := &Engine{
		store:         opts.Store,
		extractor:     opts.Extractor,
		recognizer:    opts.Recognizer,
		policies:      DefaultPolicies(),
		blend:         opts.Blend,
		explainer:     explain.New(0),
		dominantShare: opts.DominantShare,
		logger:        opts.Logger,
		observer:      opts.Observer,
	}
	if e.extractor == nil {
		e.extractor = ingest.NewExtractor(ingest.NewTokenizer(nil), ingest.NewSuffixStemmer())
	}
	for kind, p := range opts.Policies {
		e.policies[kind] = p
	}
	if e.blend == (Blend{}) {
		e.blend = DefaultBlend
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	return e
}

// OptionsFromConfig builds the text pipeline, recognizer, store and
// policies described by cfg. The caller adds a logger and observer and
// passes the result to New; the engine then owns the store.
func OptionsFromConfig(ctx context.Context, cfg config.Config) (Options, error) {
	comp, err := (&config.Loader{Config: cfg}).Load(ctx)
	if err != nil {
		return Options{}, err
	}
	policies := make(map[store.Kind]score.Policy, len(store.Kinds))
	for _, kind := range store.Kinds {
		policies[kind] = score.Policy{
			Threshold: cfg.Thresholds.For(kind),
			Floor:     cfg.SuggestionFloor,
			TopN:      cfg.MaxSuggestions,
		}
	}
	return Options{
		Store:         comp.Store,
		Extractor:     comp.Extractor,
		Recognizer:    comp.Recognizer,
		Policies:      policies,
		Blend:         Blend{Base: cfg.Blend.Base, Recognizer: cfg.Blend.Recognizer},
		DominantShare: cfg.Analytics.DominantShare,
	}, nil
}

// Close releases the store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Ping checks that the store answers.
func (e *Engine) Ping(ctx context.Context) error {
	if _, err := e.store.KeywordCount(ctx); err != nil {
		return internalerr.Store("ping", err)
	}
	return nil
}

// Keywords returns the keyword set the engine extracts from text.
func (e *Engine) Keywords(text string) []string {
	return e.extractor.Extract(text)
}

// Stats reports keyword spread over the association tables.
func (e *Engine) Stats(ctx context.Context) (analytics.Report, error) {
	stats, err := analytics.Collect(ctx, e.store)
	if err != nil {
		return analytics.Report{}, internalerr.Store("collect stats", err)
	}
	return stats.Report(e.dominantShare), nil
}

type nopObserver struct{}

func (nopObserver) ObserveAnalyze(Result, time.Duration, error) {}
func (nopObserver) ObserveLearn(Feedback, time.Duration, error) {}
