package sampleapp

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/advdv/sutest/sqlstore"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Schema is the database schema of the application.
var Schema = sqlstore.Schema{Tables: []sqlstore.Table{{
	Name: "items",
	DDL: `CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
}}}

// Item is a stored item.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ItemStore stores items.
type ItemStore interface {
	Add(ctx context.Context, name string) (Item, error)
	List(ctx context.Context) ([]Item, error)
	Count(ctx context.Context) (int, error)
}

// SQLItemStore keeps items in the application database.
type SQLItemStore struct {
	db    *sqlstore.DB
	clock Clock
}

// NewSQLItemStore inits the store.
func NewSQLItemStore(db *sqlstore.DB, clock Clock) *SQLItemStore {
	return &SQLItemStore{db: db, clock: clock}
}

// Add stores a new item called name.
func (s *SQLItemStore) Add(ctx context.Context, name string) (Item, error) {
	it := Item{ID: uuid.NewString(), Name: name, CreatedAt: s.clock.Now().UTC().Truncate(time.Second)}

	query, args, err := sq.Insert("items").
		Columns("id", "name", "created_at").
		Values(it.ID, it.Name, it.CreatedAt.Unix()).
		ToSql()
	if err != nil {
		return Item{}, err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return Item{}, errors.Wrap(err, "failed to insert item")
	}

	return it, nil
}

// List returns every item, oldest first.
func (s *SQLItemStore) List(ctx context.Context) ([]Item, error) {
	query, args, err := sq.Select("id", "name", "created_at").
		From("items").
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			it      Item
			created int64
		)

		if err := rows.Scan(&it.ID, &it.Name, &created); err != nil {
			return nil, err
		}

		it.CreatedAt = time.Unix(created, 0).UTC()
		items = append(items, it)
	}

	return items, rows.Err()
}

// Count returns the number of items.
func (s *SQLItemStore) Count(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("items").ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, errors.Wrap(err, "failed to count items")
}
