package sutest

import (
	"context"

	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
)

// UsingProvider runs fn against a new scope of the built services and closes
// the scope afterwards.
func (s *SUT) UsingProvider(fn func(r di.Resolver) error) (err error) {
	s.EnsureBuilt("UsingProvider")
	if s.buildErr != nil {
		return s.buildErr
	}

	scope := s.host.Services().CreateScope()
	defer func() { err = errors.Join(err, scope.Close()) }()

	return fn(scope)
}

// UsingService runs fn with the service T resolved from a new scope.
func UsingService[T any](s *SUT, fn func(svc T) error) error {
	s.EnsureBuilt("UsingService")
	return s.UsingProvider(func(r di.Resolver) error {
		svc, err := di.Resolve[T](r)
		if err != nil {
			return err
		}

		return fn(svc)
	})
}

// UsingService2 runs fn with two services resolved from one new scope.
func UsingService2[T1, T2 any](s *SUT, fn func(svc1 T1, svc2 T2) error) error {
	s.EnsureBuilt("UsingService2")
	return s.UsingProvider(func(r di.Resolver) error {
		svc1, svc2, err := resolve2[T1, T2](r)
		if err != nil {
			return err
		}

		return fn(svc1, svc2)
	})
}

// UsingService3 runs fn with three services resolved from one new scope.
func UsingService3[T1, T2, T3 any](s *SUT, fn func(svc1 T1, svc2 T2, svc3 T3) error) error {
	s.EnsureBuilt("UsingService3")
	return s.UsingProvider(func(r di.Resolver) error {
		svc1, svc2, err := resolve2[T1, T2](r)
		if err != nil {
			return err
		}

		svc3, err := di.Resolve[T3](r)
		if err != nil {
			return err
		}

		return fn(svc1, svc2, svc3)
	})
}

// UsingServiceContext is like [UsingService] for code that takes a context.
func UsingServiceContext[T any](ctx context.Context, s *SUT, fn func(ctx context.Context, svc T) error) error {
	s.EnsureBuilt("UsingServiceContext")
	return UsingService(s, func(svc T) error { return fn(ctx, svc) })
}

// UsingServiceContext2 is like [UsingService2] for code that takes a context.
func UsingServiceContext2[T1, T2 any](ctx context.Context, s *SUT, fn func(ctx context.Context, svc1 T1, svc2 T2) error) error {
	s.EnsureBuilt("UsingServiceContext2")
	return UsingService2(s, func(svc1 T1, svc2 T2) error { return fn(ctx, svc1, svc2) })
}

// UsingServiceContext3 is like [UsingService3] for code that takes a context.
func UsingServiceContext3[T1, T2, T3 any](
	ctx context.Context, s *SUT, fn func(ctx context.Context, svc1 T1, svc2 T2, svc3 T3) error,
) error {
	s.EnsureBuilt("UsingServiceContext3")
	return UsingService3(s, func(svc1 T1, svc2 T2, svc3 T3) error { return fn(ctx, svc1, svc2, svc3) })
}
