package sutest

import (
	"context"
	"sync"
	"testing"

	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
)

var (
	// ErrAlreadyBuilt is the cause of panics from configuration methods called
	// after the host was built.
	ErrAlreadyBuilt = errors.New("already built")
	// ErrNotBuilt is the cause of panics from methods that need a built host.
	ErrNotBuilt = errors.New("not built yet")
	// ErrNotRegistered is returned when a replacement inherits the lifetime of a
	// service that was never registered.
	ErrNotRegistered = errors.New("no registration to replace")
)

// Fixture prepares state once the services are built. All fixtures share one
// scope.
type Fixture func(ctx context.Context, r di.Resolver) error

// SUT is the system under test: an application host that is configured by the
// test, built once and stopped when the test ends.
type SUT struct {
	tb  testing.TB
	app host.Startup

	hostMutations     []func(b *host.Builder)
	registryMutations []func(c *di.Collection) error
	fixtures          []Fixture

	mu       sync.Mutex
	internal *di.Collection

	built    bool
	buildErr error
	host     *host.Host
}

// New inits a system under test for the application. The host is stopped
// when the test ends.
func New(tb testing.TB, app host.Startup) *SUT {
	s := &SUT{tb: tb, app: app, internal: di.NewCollection()}
	tb.Cleanup(func() {
		if err := s.Close(); err != nil {
			tb.Errorf("sutest: failed to stop host: %v", err)
		}
	})

	return s
}

// TB returns the test the SUT belongs to.
func (s *SUT) TB() testing.TB { return s.tb }

// IsBuilt reports whether Build was called.
func (s *SUT) IsBuilt() bool { return s.built }

// EnsureNotBuilt panics when the host was built already. Methods that change
// the configuration call it first.
func (s *SUT) EnsureNotBuilt(method string) {
	if s.built {
		panic(errors.Wrapf(ErrAlreadyBuilt, "sutest: cannot call %s()", method))
	}
}

// EnsureBuilt panics when the host was not built yet.
func (s *SUT) EnsureBuilt(method string) {
	if !s.built {
		panic(errors.Wrapf(ErrNotBuilt, "sutest: cannot call %s()", method))
	}
}

// ConfigureTestServices adds a mutation that runs against the registrations
// after the application registered its services.
func (s *SUT) ConfigureTestServices(fn func(c *di.Collection) error) *SUT {
	s.EnsureNotBuilt("ConfigureTestServices")
	s.registryMutations = append(s.registryMutations, fn)
	return s
}

// SetupWebHostBuilder adds a mutation of the host builder.
func (s *SUT) SetupWebHostBuilder(fn func(b *host.Builder)) *SUT {
	s.EnsureNotBuilt("SetupWebHostBuilder")
	s.hostMutations = append(s.hostMutations, fn)
	return s
}

// GetOrAddInternal returns the internal value of type T, creating it on first
// use. The second result reports whether the value was created by this call.
func GetOrAddInternal[T any](s *SUT, create func() T) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.internal.FindFirst(di.TypeOf[T]()); ok {
		return d.Instance.(T), false //nolint:forcetypeassert
	}

	v := create()
	s.internal.Add(di.NewInstance(di.TypeOf[T](), v))
	return v, true
}

// GetInternal returns the internal value of type T.
func GetInternal[T any](s *SUT) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.internal.FindFirst(di.TypeOf[T]())
	if !ok {
		var zero T
		return zero, false
	}

	return d.Instance.(T), true //nolint:forcetypeassert
}

// Build builds and starts the host: host mutations are applied to the builder,
// registration mutations to the services, then every fixture runs before the
// request pipeline is configured. Build runs once; later calls return the
// first result.
func (s *SUT) Build() error {
	if s.built {
		return s.buildErr
	}

	s.built = true
	s.buildErr = s.build(s.tb.Context())
	return s.buildErr
}

func (s *SUT) build(ctx context.Context) error {
	b := host.NewBuilder(s.app)
	for _, fn := range s.hostMutations {
		fn(b)
	}

	b.ConfigureTestServices(func(c *di.Collection) error {
		for _, fn := range s.registryMutations {
			if err := fn(c); err != nil {
				return err
			}
		}

		return nil
	})

	h, err := b.Build()
	if err != nil {
		return errors.Wrap(err, "sutest: failed to build host")
	}

	s.host = h
	if err := s.runFixtures(ctx); err != nil {
		return err
	}

	if err := h.Start(ctx); err != nil {
		return errors.Wrap(err, "sutest: failed to start host")
	}

	return nil
}

// runFixtures runs every fixture concurrently in one scope and reports all
// failures.
func (s *SUT) runFixtures(ctx context.Context) (err error) {
	if len(s.fixtures) == 0 {
		return nil
	}

	scope := s.host.Services().CreateScope()
	defer func() { err = errors.Join(err, scope.Close()) }()

	p := pool.New().WithErrors().WithContext(ctx)
	for _, fix := range s.fixtures {
		p.Go(func(ctx context.Context) error { return fix(ctx, scope) })
	}

	return errors.Wrap(p.Wait(), "sutest: fixture failed")
}

// Services returns the root provider of the built host.
func (s *SUT) Services() *di.Provider {
	s.EnsureBuilt("Services")
	if s.host == nil {
		return nil
	}

	return s.host.Services()
}

// Host returns the built host.
func (s *SUT) Host() *host.Host {
	s.EnsureBuilt("Host")
	return s.host
}

// Close stops the host. It is safe to call more than once and before Build.
func (s *SUT) Close() error {
	if s.host == nil {
		return nil
	}

	return s.host.Stop(context.Background())
}
