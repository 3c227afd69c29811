package config

import (
	"context"
	"fmt"

	"github.com/cognicore/destek/pkg/destek/ingest"
	"github.com/cognicore/destek/pkg/destek/recognize"
	"github.com/cognicore/destek/pkg/destek/store"
	"github.com/cognicore/destek/pkg/destek/store/memstore"
	"github.com/cognicore/destek/pkg/destek/store/postgres"
	"github.com/cognicore/destek/pkg/destek/store/sqlite"
)

// Loader loads configuration files and constructs components
type Loader struct {
	Config Config
}

// Components holds the constructed engine collaborators
type Components struct {
	Tokenizer  *ingest.Tokenizer
	Extractor  *ingest.Extractor
	Lexicon    *ingest.Lexicon
	Recognizer *recognize.Fuzzy
	Store      store.Store
}

// Load builds the text pipeline and opens the configured store. The
// caller owns Components.Store and must close it.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	comp := &Components{}

	if l.Config.Stoplist != "" {
		stoplist, err := LoadStoplist(l.Config.Stoplist)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Tokenizer = ingest.NewTokenizer(stoplist.Terms)
	} else {
		comp.Tokenizer = ingest.NewTokenizer(nil)
	}
	comp.Extractor = ingest.NewExtractor(comp.Tokenizer, ingest.NewSuffixStemmer())

	if l.Config.Lexicon != "" {
		lex, err := ingest.LoadLexicon(l.Config.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Extractor.SetLexicon(lex)
		comp.Lexicon = lex
	}
	comp.Recognizer = recognize.New(l.Config.Recognizer.MinConfidence)

	st, err := OpenStore(ctx, l.Config.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", l.Config.Store.Driver, err)
	}
	comp.Store = st

	return comp, nil
}

// OpenStore opens the association store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return memstore.New(), nil
	case DriverSQLite:
		return sqlite.OpenSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, invalid("unknown store.driver %q", cfg.Driver)
}
