// Package sutsql swaps the application database for a throwaway one.
//
// Both helpers replace the [sqlstore.Options] of the application so the schema
// is dropped and recreated when the database is opened, and schedule a fixture
// that opens it before the first request. Other fixtures that resolve the
// database always see the fresh schema.
package sutsql

import (
	"context"

	"github.com/advdv/sutest"
	"github.com/advdv/sutest/sqlstore"
	"github.com/cockroachdb/errors"

	// drivers for the replacement databases.
	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"
)

const (
	// SQLiteDriver is the driver [ReplaceInMemoryDB] uses.
	SQLiteDriver = "sqlite"
	// DuckDBDriver is the driver [ReplaceEmbeddedDB] uses.
	DuckDBDriver = "duckdb"
	// InMemory is the DSN of a database that lives as long as its connection.
	InMemory = ":memory:"
)

// ReplaceInMemoryDB replaces the database with an in-memory SQLite database.
// The pool is limited to one connection so every query sees the same data.
func ReplaceInMemoryDB(s *sutest.SUT) *sutest.SUT {
	return replaceDB(s, sqlstore.Options{Driver: SQLiteDriver, DSN: InMemory, MaxOpenConns: 1, Recreate: true})
}

// ReplaceEmbeddedDB replaces the database with an embedded DuckDB database,
// stored at path when one is given and in memory otherwise.
func ReplaceEmbeddedDB(s *sutest.SUT, path ...string) *sutest.SUT {
	dsn := InMemory
	if len(path) > 0 && path[0] != "" {
		dsn = path[0]
	}

	return replaceDB(s, sqlstore.Options{Driver: DuckDBDriver, DSN: dsn, Recreate: true})
}

func replaceDB(s *sutest.SUT, opts sqlstore.Options) *sutest.SUT {
	sutest.ReplaceConfigureOptions(s, func(o *sqlstore.Options) { *o = opts })

	return sutest.SetupFixture(s, func(ctx context.Context, db *sqlstore.DB) error {
		return errors.Wrapf(db.PingContext(ctx), "sutsql: failed to reach %s database", opts.Driver)
	})
}
