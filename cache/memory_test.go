package cache_test

import (
	"testing"
	"time"

	"github.com/advdv/sutest/cache"
	"github.com/advdv/sutest/di"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryExpiry(t *testing.T) {
	for _, tt := range []struct {
		name    string
		opts    cache.EntryOptions
		steps   []time.Duration
		wantHit []bool
	}{
		{name: "never expires", steps: []time.Duration{time.Hour, 24 * time.Hour}, wantHit: []bool{true, true}},
		{
			name:    "absolute relative to now",
			opts:    cache.EntryOptions{AbsoluteExpirationRelativeToNow: time.Minute},
			steps:   []time.Duration{59 * time.Second, time.Second},
			wantHit: []bool{true, false},
		},
		{
			name:    "sliding is extended by reads",
			opts:    cache.EntryOptions{SlidingExpiration: time.Minute},
			steps:   []time.Duration{50 * time.Second, 50 * time.Second, 61 * time.Second},
			wantHit: []bool{true, true, false},
		},
		{
			name:    "absolute caps sliding",
			opts:    cache.EntryOptions{SlidingExpiration: time.Minute, AbsoluteExpirationRelativeToNow: 90 * time.Second},
			steps:   []time.Duration{50 * time.Second, 40 * time.Second},
			wantHit: []bool{true, false},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			mem := cache.NewMemory(cache.MemoryOptions{Clock: clock.Now})
			require.NoError(t, cache.SetString(t.Context(), mem, "k", "v", tt.opts))

			for i, step := range tt.steps {
				clock.Advance(step)
				got, ok, err := cache.GetString(t.Context(), mem, "k")
				require.NoError(t, err)
				require.Equal(t, tt.wantHit[i], ok, "step %d", i)
				if ok {
					require.Equal(t, "v", got)
				}
			}
		})
	}
}

func TestMemoryRefreshAndRemove(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mem := cache.NewMemory(cache.MemoryOptions{Clock: clock.Now})
	ctx := t.Context()

	require.NoError(t, mem.Set(ctx, "k", []byte("v"), cache.EntryOptions{SlidingExpiration: time.Minute}))
	clock.Advance(50 * time.Second)
	require.NoError(t, mem.Refresh(ctx, "k"))
	clock.Advance(50 * time.Second)

	_, ok, err := mem.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, mem.Remove(ctx, "k"))
	_, ok, err = mem.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryScanRemovesExpired(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	mem := cache.NewMemory(cache.MemoryOptions{Clock: clock.Now, ExpirationScanFrequency: time.Minute})
	ctx := t.Context()

	require.NoError(t, mem.Set(ctx, "a", []byte("1"), cache.EntryOptions{AbsoluteExpirationRelativeToNow: time.Second}))
	require.NoError(t, mem.Set(ctx, "b", []byte("2"), cache.EntryOptions{}))
	require.Equal(t, 2, mem.Len())

	clock.Advance(2 * time.Minute)
	require.NoError(t, mem.Set(ctx, "c", []byte("3"), cache.EntryOptions{}))
	require.Equal(t, 2, mem.Len())
}

func TestInvalidEntryOptions(t *testing.T) {
	mem := cache.NewMemory(cache.MemoryOptions{})
	for _, opts := range []cache.EntryOptions{
		{AbsoluteExpirationRelativeToNow: -time.Second},
		{SlidingExpiration: -time.Second},
		{AbsoluteExpiration: time.Now().Add(-time.Hour)},
	} {
		require.ErrorIs(t, mem.Set(t.Context(), "k", nil, opts), cache.ErrInvalidOptions)
	}
}

func TestAddMemory(t *testing.T) {
	c := di.NewCollection()
	cache.AddMemory(c, func(o *cache.MemoryOptions) { o.ExpirationScanFrequency = time.Second })

	p := c.Build()
	dc := di.MustResolve[cache.Distributed](p)
	require.IsType(t, &cache.Memory{}, dc)
	require.Same(t, dc, di.MustResolve[cache.Distributed](p))
}
