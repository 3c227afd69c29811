package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cognicore/destek/pkg/destek/ingest"
	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/store"
)

// Store is an in-memory implementation of store.Store for tests and
// the "memory" driver.
type Store struct {
	mu           sync.RWMutex
	nextEntityID int64
	nextKeyword  int64
	entities     map[store.Kind][]store.Entity
	keywords     map[string]int64
	keywordText  map[int64]string
	weights      map[store.Kind]map[int64]map[int64]int64 // entity -> keyword -> weight
}

// New creates a new in-memory store.
func New() *Store {
	s := &Store{
		nextEntityID: 1,
		nextKeyword:  1,
		entities:     make(map[store.Kind][]store.Entity),
		keywords:     make(map[string]int64),
		keywordText:  make(map[int64]string),
		weights:      make(map[store.Kind]map[int64]map[int64]int64),
	}
	for _, k := range store.Kinds {
		s.weights[k] = make(map[int64]map[int64]int64)
	}
	return s
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// ListEntities returns the entities of a kind ordered by ID.
func (s *Store) ListEntities(ctx context.Context, kind store.Kind) ([]store.Entity, error) {
	if !kind.Valid() {
		return nil, internalerr.Invalid("unknown kind %d", int(kind))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Entity, len(s.entities[kind]))
	copy(out, s.entities[kind])
	return out, nil
}

// GetEntity returns one entity or internalerr.ErrNotFound.
func (s *Store) GetEntity(ctx context.Context, kind store.Kind, id int64) (store.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.findEntity(kind, id); ok {
		return e, nil
	}
	return store.Entity{}, fmt.Errorf("%s %d: %w", kind, id, internalerr.ErrNotFound)
}

// CreateEntity adds an entity. Names are unique per kind, compared
// case-insensitively.
func (s *Store) CreateEntity(ctx context.Context, kind store.Kind, name string) (store.Entity, error) {
	if !kind.Valid() {
		return store.Entity{}, internalerr.Invalid("unknown kind %d", int(kind))
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Entity{}, internalerr.Invalid("empty %s name", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folded := ingest.Lower(name)
	for _, e := range s.entities[kind] {
		if ingest.Lower(e.Name) == folded {
			return store.Entity{}, fmt.Errorf("%s %q: %w", kind, name, internalerr.ErrDuplicate)
		}
	}
	e := store.Entity{ID: s.nextEntityID, Name: name}
	s.nextEntityID++
	s.entities[kind] = append(s.entities[kind], e)
	return e, nil
}

// GetOrCreateKeyword returns the keyword row for text, creating it once.
func (s *Store) GetOrCreateKeyword(ctx context.Context, text string) (store.Keyword, bool, error) {
	if text == "" {
		return store.Keyword{}, false, internalerr.Invalid("empty keyword")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, created := s.keywordID(text)
	return store.Keyword{ID: id, Text: text}, created, nil
}

// GetKeyword looks a keyword up without creating it.
func (s *Store) GetKeyword(ctx context.Context, text string) (store.Keyword, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.keywords[text]; ok {
		return store.Keyword{ID: id, Text: text}, true, nil
	}
	return store.Keyword{}, false, nil
}

// KeywordCount returns the number of keyword rows.
func (s *Store) KeywordCount(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.keywords)), nil
}

// EntityKeywords returns the keywords linked to one entity, heaviest first.
func (s *Store) EntityKeywords(ctx context.Context, kind store.Kind, entityID int64) ([]store.WeightedKeyword, error) {
	if !kind.Valid() {
		return nil, internalerr.Invalid("unknown kind %d", int(kind))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weightedKeywords(kind, entityID), nil
}

// Associations returns every entity of a kind with its keywords.
func (s *Store) Associations(ctx context.Context, kind store.Kind) ([]store.EntityKeywords, error) {
	if !kind.Valid() {
		return nil, internalerr.Invalid("unknown kind %d", int(kind))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.EntityKeywords, 0, len(s.entities[kind]))
	for _, e := range s.entities[kind] {
		out = append(out, store.EntityKeywords{
			Entity:   e,
			Keywords: s.weightedKeywords(kind, e.ID),
		})
	}
	return out, nil
}

// AssociationWeight returns the weight of one edge.
func (s *Store) AssociationWeight(ctx context.Context, kind store.Kind, keywordID, entityID int64) (int64, bool, error) {
	if !kind.Valid() {
		return 0, false, internalerr.Invalid("unknown kind %d", int(kind))
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.weights[kind][entityID][keywordID]
	return w, ok, nil
}

// Reinforce implements store.Store. The write lock makes the batch atomic.
func (s *Store) Reinforce(ctx context.Context, kind store.Kind, entityID int64, keywords []string) (store.ReinforceResult, error) {
	var res store.ReinforceResult
	if !kind.Valid() {
		return res, internalerr.Invalid("unknown kind %d", int(kind))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findEntity(kind, entityID); !ok {
		return res, fmt.Errorf("%s %d: %w", kind, entityID, internalerr.ErrNotFound)
	}

	edges := s.weights[kind][entityID]
	if edges == nil {
		edges = make(map[int64]int64)
		s.weights[kind][entityID] = edges
	}

	for _, text := range store.UniqueKeywords(keywords) {
		id, created := s.keywordID(text)
		if created {
			res.NewKeywords++
		}
		if _, ok := edges[id]; ok {
			res.Incremented++
		} else {
			res.Created++
		}
		edges[id]++
	}
	return res, nil
}

// keywordID must be called with the write lock held.
func (s *Store) keywordID(text string) (int64, bool) {
	if id, ok := s.keywords[text]; ok {
		return id, false
	}
	id := s.nextKeyword
	s.nextKeyword++
	s.keywords[text] = id
	s.keywordText[id] = text
	return id, true
}

func (s *Store) findEntity(kind store.Kind, id int64) (store.Entity, bool) {
	for _, e := range s.entities[kind] {
		if e.ID == id {
			return e, true
		}
	}
	return store.Entity{}, false
}

func (s *Store) weightedKeywords(kind store.Kind, entityID int64) []store.WeightedKeyword {
	edges := s.weights[kind][entityID]
	out := make([]store.WeightedKeyword, 0, len(edges))
	for id, w := range edges {
		out = append(out, store.WeightedKeyword{Text: s.keywordText[id], Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Text < out[j].Text
	})
	return out
}
