// Package migrations embeds the PostgreSQL schema migrations applied by
// the postgres association store.
package migrations

import "embed"

// FS holds the numbered *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
