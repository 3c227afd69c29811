package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/store"
)

// busyTimeoutMS bounds how long a writer waits for the WAL write lock.
const busyTimeoutMS = 5000

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates
// the schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}

	// WAL lets analyze readers run while a learn transaction writes
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// dsn adds per-connection pragmas; database/sql pools connections, so a
// one-off PRAGMA exec would only configure one of them.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, sep, busyTimeoutMS)
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS keywords (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL COLLATE NOCASE
);

CREATE TABLE IF NOT EXISTS departments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL COLLATE NOCASE
);

CREATE TABLE IF NOT EXISTS personnel (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL COLLATE NOCASE
);

CREATE TABLE IF NOT EXISTS category_keywords (
	keyword_id INTEGER NOT NULL,
	category_id INTEGER NOT NULL,
	weight INTEGER NOT NULL DEFAULT 1 CHECK (weight >= 1),
	PRIMARY KEY(keyword_id, category_id),
	FOREIGN KEY(keyword_id) REFERENCES keywords(id),
	FOREIGN KEY(category_id) REFERENCES categories(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS department_keywords (
	keyword_id INTEGER NOT NULL,
	department_id INTEGER NOT NULL,
	weight INTEGER NOT NULL DEFAULT 1 CHECK (weight >= 1),
	PRIMARY KEY(keyword_id, department_id),
	FOREIGN KEY(keyword_id) REFERENCES keywords(id),
	FOREIGN KEY(department_id) REFERENCES departments(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS personnel_keywords (
	keyword_id INTEGER NOT NULL,
	personnel_id INTEGER NOT NULL,
	weight INTEGER NOT NULL DEFAULT 1 CHECK (weight >= 1),
	PRIMARY KEY(keyword_id, personnel_id),
	FOREIGN KEY(keyword_id) REFERENCES keywords(id),
	FOREIGN KEY(personnel_id) REFERENCES personnel(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_category_keywords_entity ON category_keywords(category_id);
CREATE INDEX IF NOT EXISTS idx_department_keywords_entity ON department_keywords(department_id);
CREATE INDEX IF NOT EXISTS idx_personnel_keywords_entity ON personnel_keywords(personnel_id);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// ListEntities returns the entities of a kind ordered by ID
func (s *sqliteStore) ListEntities(ctx context.Context, kind store.Kind) ([]store.Entity, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id`, t.Entity))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Entity
	for rows.Next() {
		var e store.Entity
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetEntity retrieves an entity by ID
func (s *sqliteStore) GetEntity(ctx context.Context, kind store.Kind, id int64) (store.Entity, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return store.Entity{}, err
	}
	e := store.Entity{ID: id}
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT name FROM %s WHERE id = ?`, t.Entity), id).Scan(&e.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Entity{}, fmt.Errorf("%s %d: %w", kind, id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Entity{}, err
	}
	return e, nil
}

// CreateEntity inserts a new entity; names are unique per kind
func (s *sqliteStore) CreateEntity(ctx context.Context, kind store.Kind, name string) (store.Entity, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return store.Entity{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Entity{}, internalerr.Invalid("empty %s name", kind)
	}

	stmt := fmt.Sprintf(`
INSERT INTO %s (name) VALUES (?)
ON CONFLICT(name) DO NOTHING
RETURNING id;
`, t.Entity)

	e := store.Entity{Name: name}
	err = s.db.QueryRowContext(ctx, stmt, name).Scan(&e.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Entity{}, fmt.Errorf("%s %q: %w", kind, name, internalerr.ErrDuplicate)
	}
	if err != nil {
		return store.Entity{}, err
	}
	return e, nil
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetOrCreateKeyword returns the keyword row for text, creating it once
func (s *sqliteStore) GetOrCreateKeyword(ctx context.Context, text string) (store.Keyword, bool, error) {
	if text == "" {
		return store.Keyword{}, false, internalerr.Invalid("empty keyword")
	}
	id, created, err := getOrCreateKeyword(ctx, s.db, text)
	if err != nil {
		return store.Keyword{}, false, err
	}
	return store.Keyword{ID: id, Text: text}, created, nil
}

func getOrCreateKeyword(ctx context.Context, q querier, text string) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, `
INSERT INTO keywords (text) VALUES (?)
ON CONFLICT(text) DO NOTHING
RETURNING id;
`, text).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}
	// Conflict: the row already exists
	if err := q.QueryRowContext(ctx, `SELECT id FROM keywords WHERE text = ?`, text).Scan(&id); err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// GetKeyword looks a keyword up without creating it
func (s *sqliteStore) GetKeyword(ctx context.Context, text string) (store.Keyword, bool, error) {
	kw := store.Keyword{Text: text}
	err := s.db.QueryRowContext(ctx, `SELECT id FROM keywords WHERE text = ?`, text).Scan(&kw.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Keyword{}, false, nil
	}
	if err != nil {
		return store.Keyword{}, false, err
	}
	return kw, true, nil
}

// KeywordCount returns the number of keyword rows
func (s *sqliteStore) KeywordCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM keywords`).Scan(&n)
	return n, err
}

// EntityKeywords returns the keywords linked to one entity, heaviest first
func (s *sqliteStore) EntityKeywords(ctx context.Context, kind store.Kind, entityID int64) ([]store.WeightedKeyword, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT k.text, a.weight
FROM %s a
JOIN keywords k ON k.id = a.keyword_id
WHERE a.%s = ?
ORDER BY a.weight DESC, k.text ASC;
`, t.Association, t.EntityFK)

	rows, err := s.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []store.WeightedKeyword{}
	for rows.Next() {
		var wk store.WeightedKeyword
		if err := rows.Scan(&wk.Text, &wk.Weight); err != nil {
			return nil, err
		}
		out = append(out, wk)
	}
	return out, rows.Err()
}

// Associations returns every entity of a kind with its keywords in one query
func (s *sqliteStore) Associations(ctx context.Context, kind store.Kind) ([]store.EntityKeywords, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
SELECT e.id, e.name, k.text, a.weight
FROM %s e
LEFT JOIN %s a ON a.%s = e.id
LEFT JOIN keywords k ON k.id = a.keyword_id
ORDER BY e.id ASC, a.weight DESC, k.text ASC;
`, t.Entity, t.Association, t.EntityFK)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.EntityKeywords
	for rows.Next() {
		var (
			e      store.Entity
			text   sql.NullString
			weight sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Name, &text, &weight); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Entity.ID != e.ID {
			out = append(out, store.EntityKeywords{Entity: e, Keywords: []store.WeightedKeyword{}})
		}
		if text.Valid {
			last := &out[len(out)-1]
			last.Keywords = append(last.Keywords, store.WeightedKeyword{Text: text.String, Weight: weight.Int64})
		}
	}
	return out, rows.Err()
}

// AssociationWeight returns the weight of one edge
func (s *sqliteStore) AssociationWeight(ctx context.Context, kind store.Kind, keywordID, entityID int64) (int64, bool, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return 0, false, err
	}
	var w int64
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT weight FROM %s WHERE keyword_id = ? AND %s = ?`, t.Association, t.EntityFK),
		keywordID, entityID,
	).Scan(&w)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return w, true, nil
}

// Reinforce upserts every (keyword, entity) edge in one transaction.
// The first statement of the transaction is a write, so the busy timeout
// covers lock acquisition and concurrent batches serialize instead of
// failing on a read-to-write upgrade.
func (s *sqliteStore) Reinforce(ctx context.Context, kind store.Kind, entityID int64, keywords []string) (store.ReinforceResult, error) {
	var res store.ReinforceResult
	t, err := store.TablesFor(kind)
	if err != nil {
		return res, err
	}
	unique := store.UniqueKeywords(keywords)
	if len(unique) == 0 {
		return res, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	upsert := fmt.Sprintf(`
INSERT INTO %s (keyword_id, %s, weight) VALUES (?, ?, 1)
ON CONFLICT(keyword_id, %s) DO UPDATE SET weight = weight + 1
RETURNING weight;
`, t.Association, t.EntityFK, t.EntityFK)

	for _, text := range unique {
		kwID, created, err := getOrCreateKeyword(ctx, tx, text)
		if err != nil {
			return store.ReinforceResult{}, err
		}
		if created {
			res.NewKeywords++
		}

		var weight int64
		if err := tx.QueryRowContext(ctx, upsert, kwID, entityID).Scan(&weight); err != nil {
			if isForeignKeyViolation(err) {
				return store.ReinforceResult{}, fmt.Errorf("%s %d: %w", kind, entityID, internalerr.ErrNotFound)
			}
			return store.ReinforceResult{}, err
		}
		if weight == 1 {
			res.Created++
		} else {
			res.Incremented++
		}
	}

	if err := tx.Commit(); err != nil {
		return store.ReinforceResult{}, err
	}
	return res, nil
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
