package di_test

import (
	"testing"

	"github.com/advdv/sutest/di"
	"github.com/stretchr/testify/require"
)

func TestNewConstructor(t *testing.T) {
	for _, tt := range []struct {
		name     string
		ctor     any
		wantImpl bool
		wantErr  string
	}{
		{name: "concrete result", ctor: func() *englishGreeter { return nil }, wantImpl: true},
		{name: "interface result", ctor: func() Greeter { return nil }},
		{name: "with error", ctor: func() (*englishGreeter, error) { return nil, nil }, wantImpl: true},
		{name: "not a func", ctor: 42, wantErr: "must be a function"},
		{name: "wrong result", ctor: func() *Counter { return nil }, wantErr: "not assignable"},
		{name: "too many results", ctor: func() (Greeter, int) { return nil, 0 }, wantErr: "must return"},
		{name: "variadic", ctor: func(...int) Greeter { return nil }, wantErr: "variadic"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			d, err := di.NewConstructor(di.TypeOf[Greeter](), di.Scoped, tt.ctor)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantImpl, d.ImplementationType != nil)
		})
	}
}

func TestCollectionReplace(t *testing.T) {
	c := di.NewCollection()
	first := di.NewInstance(di.TypeOf[Greeter](), dutchGreeter{})
	second := di.NewInstance(di.TypeOf[Greeter](), &englishGreeter{})
	c.Add(first, second)

	repl := di.NewInstance(di.TypeOf[Greeter](), dutchGreeter{})
	c.Replace(repl)

	require.Equal(t, []*di.Descriptor{second, repl}, c.All())
}

func TestCollectionRemoval(t *testing.T) {
	build := func() *di.Collection {
		c := di.NewCollection()
		di.AddInstance[Greeter](c, dutchGreeter{})
		di.AddSingleton[Greeter](c, func() *englishGreeter { return nil })
		di.AddSingleton[*Counter](c, func() *Counter { return nil })
		return c
	}

	t.Run("remove all", func(t *testing.T) {
		c := build()
		require.Equal(t, 2, c.RemoveAll(di.TypeOf[Greeter]()))
		require.Equal(t, 1, c.Len())
	})

	t.Run("remove single", func(t *testing.T) {
		c := build()
		require.NoError(t, c.RemoveSingleBy(func(d *di.Descriptor) bool {
			return d.ImplementationType == di.TypeOf[*englishGreeter]()
		}))
		require.Equal(t, 2, c.Len())
	})

	t.Run("remove single with many matches", func(t *testing.T) {
		c := build()
		err := c.RemoveSingleBy(func(d *di.Descriptor) bool { return d.ServiceType == di.TypeOf[Greeter]() })
		require.ErrorIs(t, err, di.ErrNoMatch)
		require.Equal(t, 3, c.Len())
	})

	t.Run("remove single without matches", func(t *testing.T) {
		c := build()
		require.ErrorIs(t, c.RemoveSingleBy(func(*di.Descriptor) bool { return false }), di.ErrNoMatch)
	})
}

func TestTryAddAndFind(t *testing.T) {
	c := di.NewCollection()
	require.True(t, c.TryAdd(di.NewInstance(di.TypeOf[Greeter](), dutchGreeter{})))
	require.False(t, c.TryAdd(di.NewInstance(di.TypeOf[Greeter](), &englishGreeter{})))

	d, ok := c.FindFirst(di.TypeOf[Greeter]())
	require.True(t, ok)
	require.Equal(t, di.TypeOf[dutchGreeter](), d.EffectiveImplementationType())

	_, ok = c.FindLast(di.TypeOf[*Counter]())
	require.False(t, ok)
}
