package di_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/advdv/sutest/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Greeter interface{ Greet() string }

type englishGreeter struct{ closed bool }

func (g *englishGreeter) Greet() string { return "hello" }
func (g *englishGreeter) Close() error  { g.closed = true; return nil }

type dutchGreeter struct{}

func (dutchGreeter) Greet() string { return "hallo" }

type Counter struct{ n int }

type Service struct {
	G Greeter
	C *Counter
}

func NewService(g Greeter, c *Counter) *Service { return &Service{G: g, C: c} }

func TestLifetimes(t *testing.T) {
	for _, tt := range []struct {
		lifetime      di.Lifetime
		sameInScope   bool
		sameAcrossAll bool
	}{
		{di.Singleton, true, true},
		{di.Scoped, true, false},
		{di.Transient, false, false},
	} {
		t.Run(tt.lifetime.String(), func(t *testing.T) {
			c := di.NewCollection()
			c.Add(di.Describe[*Counter](tt.lifetime, func() *Counter { return &Counter{} }))
			p := c.Build()
			t.Cleanup(func() { require.NoError(t, p.Close()) })

			s1, s2 := p.CreateScope(), p.CreateScope()
			a1, b1 := di.MustResolve[*Counter](s1), di.MustResolve[*Counter](s1)
			a2 := di.MustResolve[*Counter](s2)

			require.Equal(t, tt.sameInScope, a1 == b1)
			require.Equal(t, tt.sameAcrossAll, a1 == a2)
		})
	}
}

func TestResolveDependencies(t *testing.T) {
	c := di.NewCollection()
	di.AddSingleton[Greeter](c, func() *englishGreeter { return &englishGreeter{} })
	di.AddScoped[*Counter](c, func() *Counter { return &Counter{n: 1} })
	di.AddTransient[*Service](c, NewService)
	p := c.Build()

	svc, err := di.Resolve[*Service](p)
	require.NoError(t, err)
	require.Equal(t, "hello", svc.G.Greet())
	require.Equal(t, 1, svc.C.n)
}

func TestLastRegistrationWins(t *testing.T) {
	c := di.NewCollection()
	di.AddSingleton[Greeter](c, func() *englishGreeter { return &englishGreeter{} })
	di.AddInstance[Greeter](c, dutchGreeter{})
	p := c.Build()

	require.Equal(t, "hallo", di.MustResolve[Greeter](p).Greet())

	all, err := di.ResolveAll[Greeter](p)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "hello", all[0].Greet())
}

func TestResolveSliceParameter(t *testing.T) {
	c := di.NewCollection()
	di.AddInstance[Greeter](c, dutchGreeter{})
	di.AddSingleton[Greeter](c, func() *englishGreeter { return &englishGreeter{} })
	di.AddSingleton[string](c, func(gs []Greeter) string {
		var s string
		for _, g := range gs {
			s += g.Greet()
		}
		return s
	})

	require.Equal(t, "hallohello", di.MustResolve[string](c.Build()))
}

func TestNotRegistered(t *testing.T) {
	c := di.NewCollection()
	di.AddTransient[*Service](c, NewService)

	_, err := di.Resolve[*Service](c.Build())
	require.ErrorIs(t, err, di.ErrNotRegistered)
	require.ErrorContains(t, err, "di_test.Greeter")
}

func TestCircularDependency(t *testing.T) {
	type A struct{}
	type B struct{}

	c := di.NewCollection()
	di.AddSingleton[*A](c, func(*B) *A { return &A{} })
	di.AddSingleton[*B](c, func(*A) *B { return &B{} })

	_, err := di.Resolve[*A](c.Build())
	require.ErrorIs(t, err, di.ErrCircularDependency)
}

func TestConstructorError(t *testing.T) {
	c := di.NewCollection()
	di.AddSingleton[*Counter](c, func() (*Counter, error) { return nil, errors.New("boom") })

	_, err := di.Resolve[*Counter](c.Build())
	require.ErrorContains(t, err, "boom")
}

func TestResolverParameter(t *testing.T) {
	c := di.NewCollection()
	di.AddScoped[*Counter](c, func() *Counter { return &Counter{n: 7} })
	di.AddScoped[int](c, func(r di.Resolver) (int, error) {
		cnt, err := di.Resolve[*Counter](r)
		if err != nil {
			return 0, err
		}
		return cnt.n, nil
	})

	scope := c.Build().CreateScope()
	require.Equal(t, 7, di.MustResolve[int](scope))
}

func TestCloseOrderAndIdempotence(t *testing.T) {
	c := di.NewCollection()
	di.AddScoped[Greeter](c, func() *englishGreeter { return &englishGreeter{} })
	p := c.Build()

	scope := p.CreateScope()
	g := di.MustResolve[Greeter](scope).(*englishGreeter) //nolint:forcetypeassert
	require.NoError(t, scope.Close())
	require.NoError(t, scope.Close())
	require.True(t, g.closed)

	_, err := scope.Resolve(di.TypeOf[Greeter]())
	require.ErrorIs(t, err, di.ErrClosed)
}

func TestInstancesAreNotClosed(t *testing.T) {
	g := &englishGreeter{}
	c := di.NewCollection()
	di.AddInstance[Greeter](c, g)
	p := c.Build()

	_ = di.MustResolve[Greeter](p)
	require.NoError(t, p.Close())
	assert.False(t, g.closed)
}

func TestConcurrentSingleton(t *testing.T) {
	var calls int
	var mu sync.Mutex

	c := di.NewCollection()
	di.AddSingleton[*Counter](c, func() *Counter {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return &Counter{}
	})
	p := c.Build()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scope := p.CreateScope()
			defer scope.Close()
			_ = di.MustResolve[*Counter](scope)
		}()
	}

	wg.Wait()
	require.Equal(t, 1, calls)
}
