// Package sqlstore opens the application's SQL database and owns its schema.
package sqlstore

import (
	"context"
	"database/sql"
	"slices"

	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"github.com/cockroachdb/errors"
)

// ConfigKey is the configuration section [Add] binds [Options] to.
const ConfigKey = "database"

// Options configures the database connection.
type Options struct {
	Driver       string `default:"sqlite"`
	DSN          string `validate:"required"`
	MaxOpenConns int
	// Recreate drops and recreates the schema when the database is opened.
	Recreate bool
}

// Table is a named table with the statement that creates it.
type Table struct {
	Name string
	DDL  string
}

// Schema lists tables in creation order.
type Schema struct {
	Tables []Table
}

// DB is the application database.
type DB struct {
	*sql.DB
	driver string
	schema Schema
}

// Open connects to the database described by opts.
func Open(opts Options, schema Schema) (*DB, error) {
	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", opts.Driver)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	return &DB{DB: db, driver: opts.Driver, schema: schema}, nil
}

// Driver returns the name of the driver the database was opened with.
func (db *DB) Driver() string { return db.driver }

// EnsureCreated creates every table of the schema that does not exist yet.
func (db *DB) EnsureCreated(ctx context.Context) error {
	for _, t := range db.schema.Tables {
		if _, err := db.ExecContext(ctx, t.DDL); err != nil {
			return errors.Wrapf(err, "failed to create table %q", t.Name)
		}
	}

	return nil
}

// EnsureDeleted drops every table of the schema, in reverse creation order.
func (db *DB) EnsureDeleted(ctx context.Context) error {
	for _, t := range slices.Backward(db.schema.Tables) {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+t.Name); err != nil {
			return errors.Wrapf(err, "failed to drop table %q", t.Name)
		}
	}

	return nil
}

// Recreate drops every table of the schema and creates them again.
func (db *DB) Recreate(ctx context.Context) error {
	if err := db.EnsureDeleted(ctx); err != nil {
		return err
	}

	return db.EnsureCreated(ctx)
}

// Add registers the [DB] singleton. Its options are bound to the "database"
// configuration section and validated with their struct tags. The caller
// imports the driver.
func Add(c *di.Collection, schema Schema) *di.Collection {
	host.BindOptions[Options](c, ConfigKey)
	di.ValidateStruct[Options](c)

	return di.AddSingleton[*DB](c, func(o *di.Options[Options]) (*DB, error) {
		opts, err := o.Value()
		if err != nil {
			return nil, err
		}

		db, err := Open(*opts, schema)
		if err != nil || !opts.Recreate {
			return db, err
		}

		if err := db.Recreate(context.Background()); err != nil {
			return nil, errors.Join(err, db.Close())
		}

		return db, nil
	})
}
