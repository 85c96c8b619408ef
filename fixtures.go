package sutest

import (
	"context"

	"github.com/advdv/sutest/di"
)

// SetupProviderFixture schedules fn to run once the services are built.
func (s *SUT) SetupProviderFixture(fn func(ctx context.Context, r di.Resolver) error) *SUT {
	s.EnsureNotBuilt("SetupProviderFixture")
	s.fixtures = append(s.fixtures, fn)
	return s
}

// SetupFixture schedules fn with the service S.
func SetupFixture[S any](s *SUT, fn func(ctx context.Context, svc S) error) *SUT {
	s.EnsureNotBuilt("SetupFixture")
	return s.SetupProviderFixture(func(ctx context.Context, r di.Resolver) error {
		svc, err := di.Resolve[S](r)
		if err != nil {
			return err
		}

		return fn(ctx, svc)
	})
}

// SetupFixture2 schedules fn with two services.
func SetupFixture2[S1, S2 any](s *SUT, fn func(ctx context.Context, svc1 S1, svc2 S2) error) *SUT {
	s.EnsureNotBuilt("SetupFixture2")
	return s.SetupProviderFixture(func(ctx context.Context, r di.Resolver) error {
		svc1, svc2, err := resolve2[S1, S2](r)
		if err != nil {
			return err
		}

		return fn(ctx, svc1, svc2)
	})
}

// SetupFixture3 schedules fn with three services.
func SetupFixture3[S1, S2, S3 any](s *SUT, fn func(ctx context.Context, svc1 S1, svc2 S2, svc3 S3) error) *SUT {
	s.EnsureNotBuilt("SetupFixture3")
	return s.SetupProviderFixture(func(ctx context.Context, r di.Resolver) error {
		svc1, svc2, err := resolve2[S1, S2](r)
		if err != nil {
			return err
		}

		svc3, err := di.Resolve[S3](r)
		if err != nil {
			return err
		}

		return fn(ctx, svc1, svc2, svc3)
	})
}

func resolve2[S1, S2 any](r di.Resolver) (svc1 S1, svc2 S2, err error) {
	if svc1, err = di.Resolve[S1](r); err != nil {
		return svc1, svc2, err
	}

	svc2, err = di.Resolve[S2](r)
	return svc1, svc2, err
}
