package sutsql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/advdv/sutest"
	"github.com/advdv/sutest/host/hosttest"
	"github.com/advdv/sutest/internal/sampleapp"
	"github.com/advdv/sutest/sqlstore"
	"github.com/advdv/sutest/sutsql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newSUT(t *testing.T) *sutest.SUT {
	t.Helper()
	hosttest.SetBaseEnv(t)
	return sutest.New(t, sampleapp.Startup{})
}

func seed(s *sutest.SUT, names ...string) *sutest.SUT {
	return sutest.SetupFixture(s, func(ctx context.Context, store sampleapp.ItemStore) error {
		for _, name := range names {
			if _, err := store.Add(ctx, name); err != nil {
				return err
			}
		}

		return nil
	})
}

func count(t *testing.T, s *sutest.SUT) int {
	t.Helper()

	var out struct{ Count int }
	require.NoError(t, s.Resource("/items/count").ToJSON(&out).Fetch(t.Context()))
	return out.Count
}

func TestReplaceInMemoryDB(t *testing.T) {
	s := newSUT(t)
	sutsql.ReplaceInMemoryDB(s)
	seed(s, "a", "b", "c")
	require.NoError(t, s.Build())

	assert.Equal(t, 3, count(t, s))

	require.NoError(t, sutest.UsingService(s, func(db *sqlstore.DB) error {
		assert.Equal(t, sutsql.SQLiteDriver, db.Driver())
		assert.Equal(t, 1, db.Stats().MaxOpenConnections)
		return nil
	}))
}

func TestInMemoryDBIsPerSUT(t *testing.T) {
	for i := range 2 {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			s := newSUT(t)
			sutsql.ReplaceInMemoryDB(s)
			seed(s, "only")
			require.NoError(t, s.Build())

			assert.Equal(t, 1, count(t, s))
		})
	}
}

func TestReplaceEmbeddedDB(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	s := newSUT(t)
	sutest.ReplaceServiceInstance[sampleapp.Clock](s, fixedClock{at})
	sutsql.ReplaceEmbeddedDB(s)
	seed(s, "x", "y")
	require.NoError(t, s.Build())

	var items []sampleapp.Item
	require.NoError(t, s.Resource("/items/").ToJSON(&items).Fetch(t.Context()))
	require.Len(t, items, 2)
	assert.ElementsMatch(t, []string{"x", "y"}, []string{items[0].Name, items[1].Name})
	assert.True(t, at.Equal(items[0].CreatedAt))

	require.NoError(t, sutest.UsingService(s, func(db *sqlstore.DB) error {
		assert.Equal(t, sutsql.DuckDBDriver, db.Driver())
		return nil
	}))
}

func TestReplaceEmbeddedDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.duckdb")

	s := newSUT(t)
	sutsql.ReplaceEmbeddedDB(s, path)
	seed(s, "kept")
	require.NoError(t, s.Build())

	assert.Equal(t, 1, count(t, s))
	_, err := os.Stat(path)
	require.NoError(t, err)
}
