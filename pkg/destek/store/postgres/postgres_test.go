package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/cognicore/destek/pkg/destek/store"
	"github.com/cognicore/destek/pkg/destek/store/storetest"
)

// Integration tests need a disposable database:
//
//	TEST_DATABASE_URL=postgres://localhost:5432/destek_test?sslmode=disable go test ./...
func testDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Open(ctx, url)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = db.Pool.Exec(ctx, `
		TRUNCATE category_keywords, department_keywords, personnel_keywords,
		         categories, departments, personnel, keywords
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		db.Close()
		t.Fatalf("truncate: %v", err)
	}
	return db
}

func TestPostgresStore(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	storetest.Run(t, func(t *testing.T) store.Store { return testDB(t) })
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := testDB(t)
	defer db.Close()

	url := os.Getenv("TEST_DATABASE_URL")
	for i := 0; i < 2; i++ {
		if err := db.RunMigrations(url); err != nil {
			t.Fatalf("RunMigrations #%d: %v", i+1, err)
		}
	}
}
