// Package postgres implements store.Store on PostgreSQL with a pgx pool.
// The schema is managed by golang-migrate from the embedded migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cognicore/destek/migrations"
	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/store"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// Open connects, pings and migrates the database.
func Open(ctx context.Context, connString string) (*DB, error) {
	d, err := New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := d.RunMigrations(connString); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	d.Pool.Close()
	return nil
}

// ListEntities returns the entities of a kind ordered by ID.
func (d *DB) ListEntities(ctx context.Context, kind store.Kind) ([]store.Entity, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := d.Pool.Query(ctx, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY id`, t.Entity))
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

// GetEntity returns one entity or internalerr.ErrNotFound.
func (d *DB) GetEntity(ctx context.Context, kind store.Kind, id int64) (store.Entity, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return store.Entity{}, err
	}
	e := store.Entity{ID: id}
	err = d.Pool.QueryRow(ctx, fmt.Sprintf(`SELECT name FROM %s WHERE id = $1`, t.Entity), id).Scan(&e.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Entity{}, fmt.Errorf("%s %d: %w", kind, id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Entity{}, err
	}
	return e, nil
}

// CreateEntity inserts a new entity. Names are unique per kind,
// case-insensitively (unique index on LOWER(name)).
func (d *DB) CreateEntity(ctx context.Context, kind store.Kind, name string) (store.Entity, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return store.Entity{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Entity{}, internalerr.Invalid("empty %s name", kind)
	}

	e := store.Entity{Name: name}
	err = d.Pool.QueryRow(ctx, fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, t.Entity), name).Scan(&e.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.Entity{}, fmt.Errorf("%s %q: %w", kind, name, internalerr.ErrDuplicate)
		}
		return store.Entity{}, err
	}
	return e, nil
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetOrCreateKeyword returns the keyword row for text, creating it once.
func (d *DB) GetOrCreateKeyword(ctx context.Context, text string) (store.Keyword, bool, error) {
	if text == "" {
		return store.Keyword{}, false, internalerr.Invalid("empty keyword")
	}
	id, created, err := getOrCreateKeyword(ctx, d.Pool, text)
	if err != nil {
		return store.Keyword{}, false, err
	}
	return store.Keyword{ID: id, Text: text}, created, nil
}

func getOrCreateKeyword(ctx context.Context, q querier, text string) (int64, bool, error) {
	var id int64
	err := q.QueryRow(ctx, `
		INSERT INTO keywords (text) VALUES ($1)
		ON CONFLICT (text) DO NOTHING
		RETURNING id
	`, text).Scan(&id)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}
	if err := q.QueryRow(ctx, `SELECT id FROM keywords WHERE text = $1`, text).Scan(&id); err != nil {
		return 0, false, err
	}
	return id, false, nil
}

// GetKeyword looks a keyword up without creating it.
func (d *DB) GetKeyword(ctx context.Context, text string) (store.Keyword, bool, error) {
	kw := store.Keyword{Text: text}
	err := d.Pool.QueryRow(ctx, `SELECT id FROM keywords WHERE text = $1`, text).Scan(&kw.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Keyword{}, false, nil
	}
	if err != nil {
		return store.Keyword{}, false, err
	}
	return kw, true, nil
}

// KeywordCount returns the number of keyword rows.
func (d *DB) KeywordCount(ctx context.Context) (int64, error) {
	var n int64
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM keywords`).Scan(&n)
	return n, err
}

// EntityKeywords returns the keywords linked to one entity, heaviest first.
func (d *DB) EntityKeywords(ctx context.Context, kind store.Kind, entityID int64) ([]store.WeightedKeyword, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := d.Pool.Query(ctx, fmt.Sprintf(`
		SELECT k.text, a.weight
		FROM %s a
		JOIN keywords k ON k.id = a.keyword_id
		WHERE a.%s = $1
		ORDER BY a.weight DESC, k.text ASC
	`, t.Association, t.EntityFK), entityID)
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

// Associations returns every entity of a kind with its keywords.
func (d *DB) Associations(ctx context.Context, kind store.Kind) ([]store.EntityKeywords, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return nil, err
	}
	rows, err := d.Pool.Query(ctx, fmt.Sprintf(`
		SELECT e.id, e.name, k.text, a.weight
		FROM %s e
		LEFT JOIN %s a ON a.%s = e.id
		LEFT JOIN keywords k ON k.id = a.keyword_id
		ORDER BY e.id ASC, a.weight DESC, k.text ASC
	`, t.Entity, t.Association, t.EntityFK))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.EntityKeywords
	for rows.Next() {
		var (
			e      store.Entity
			text   *string
			weight *int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &text, &weight); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Entity.ID != e.ID {
			out = append(out, store.EntityKeywords{Entity: e, Keywords: []store.WeightedKeyword{}})
		}
		if text != nil && weight != nil {
			last := &out[len(out)-1]
			last.Keywords = append(last.Keywords, store.WeightedKeyword{Text: *text, Weight: *weight})
		}
	}
	return out, rows.Err()
}

// AssociationWeight returns the weight of one edge.
func (d *DB) AssociationWeight(ctx context.Context, kind store.Kind, keywordID, entityID int64) (int64, bool, error) {
	t, err := store.TablesFor(kind)
	if err != nil {
		return 0, false, err
	}
	var w int64
	err = d.Pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT weight FROM %s WHERE keyword_id = $1 AND %s = $2`, t.Association, t.EntityFK),
		keywordID, entityID,
	).Scan(&w)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return w, true, nil
}

// Reinforce upserts every (keyword, entity) edge in one transaction.
func (d *DB) Reinforce(ctx context.Context, kind store.Kind, entityID int64, keywords []string) (store.ReinforceResult, error) {
	var res store.ReinforceResult
	t, err := store.TablesFor(kind)
	if err != nil {
		return res, err
	}
	unique := store.UniqueKeywords(keywords)
	if len(unique) == 0 {
		return res, nil
	}
	// Fixed lock order across concurrent batches avoids row-lock deadlocks.
	sort.Strings(unique)

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return res, err
	}
	defer tx.Rollback(ctx)

	upsert := fmt.Sprintf(`
		INSERT INTO %[1]s (keyword_id, %[2]s, weight) VALUES ($1, $2, 1)
		ON CONFLICT (keyword_id, %[2]s) DO UPDATE SET weight = %[1]s.weight + 1
		RETURNING weight
	`, t.Association, t.EntityFK)

	for _, text := range unique {
		kwID, created, err := getOrCreateKeyword(ctx, tx, text)
		if err != nil {
			return store.ReinforceResult{}, err
		}
		if created {
			res.NewKeywords++
		}

		var weight int64
		if err := tx.QueryRow(ctx, upsert, kwID, entityID).Scan(&weight); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
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

	if err := tx.Commit(ctx); err != nil {
		return store.ReinforceResult{}, err
	}
	return res, nil
}

var _ store.Store = (*DB)(nil)
