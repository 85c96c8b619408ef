package sutest

import (
	"reflect"

	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
)

// ReplaceService replaces the registration of S with ctor. Without a lifetime
// the replacement inherits the lifetime of the first registration of S, which
// must exist once the application has registered its services.
func ReplaceService[S any](s *SUT, ctor any, lifetime ...di.Lifetime) *SUT {
	s.EnsureNotBuilt("ReplaceService")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		lt, err := inheritLifetime(c, di.TypeOf[S](), lifetime)
		if err != nil {
			return err
		}

		d, err := di.NewConstructor(di.TypeOf[S](), lt, ctor)
		if err != nil {
			return errors.Wrap(err, "sutest: invalid replacement")
		}

		c.Replace(d)
		return nil
	})
}

// ReplaceServiceInstance replaces the registration of S with the singleton v.
func ReplaceServiceInstance[S any](s *SUT, v S) *SUT {
	s.EnsureNotBuilt("ReplaceServiceInstance")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.Replace(di.NewInstance(di.TypeOf[S](), v))
		return nil
	})
}

// ReplaceServiceFactory replaces the registration of S with a factory. The
// lifetime is inherited as with [ReplaceService].
func ReplaceServiceFactory[S any](s *SUT, fn func(r di.Resolver) (S, error), lifetime ...di.Lifetime) *SUT {
	s.EnsureNotBuilt("ReplaceServiceFactory")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		lt, err := inheritLifetime(c, di.TypeOf[S](), lifetime)
		if err != nil {
			return err
		}

		c.Replace(di.NewFactory(di.TypeOf[S](), lt, func(r di.Resolver) (any, error) { return fn(r) }))
		return nil
	})
}

// replacement records the value a service type was replaced with.
type replacement[S any] struct{ v S }

// ReplaceServiceOnce replaces S with the singleton v unless an earlier call
// replaced S already. It returns the value S is replaced with and whether this
// call installed it. Adapters use it so that each service type is replaced at
// most once.
func ReplaceServiceOnce[S any](s *SUT, v S) (S, bool) {
	s.EnsureNotBuilt("ReplaceServiceOnce")

	r, created := GetOrAddInternal(s, func() replacement[S] { return replacement[S]{v: v} })
	if created {
		ReplaceServiceInstance(s, v)
	}

	return r.v, created
}

func inheritLifetime(c *di.Collection, t reflect.Type, explicit []di.Lifetime) (di.Lifetime, error) {
	if len(explicit) > 0 {
		return explicit[0], nil
	}

	d, ok := c.FindFirst(t)
	if !ok {
		return 0, errors.Wrapf(ErrNotRegistered, "sutest: cannot inherit the lifetime of %s", t)
	}

	return d.Lifetime, nil
}

// RemoveAll removes every registration of S.
func RemoveAll[S any](s *SUT) *SUT {
	s.EnsureNotBuilt("RemoveAll")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAll(di.TypeOf[S]())
		return nil
	})
}

// Remove removes the registrations of S that are implemented by I.
func Remove[S, I any](s *SUT) *SUT {
	s.EnsureNotBuilt("Remove")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAllBy(implementedBy(di.TypeOf[S](), di.TypeOf[I]()))
		return nil
	})
}

// RemoveAllBy removes every registration matching pred.
func (s *SUT) RemoveAllBy(pred func(d *di.Descriptor) bool) *SUT {
	s.EnsureNotBuilt("RemoveAllBy")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		c.RemoveAllBy(pred)
		return nil
	})
}

// RemoveSingleBy removes the one registration matching pred. Building fails
// when zero or more registrations match.
func (s *SUT) RemoveSingleBy(pred func(d *di.Descriptor) bool) *SUT {
	s.EnsureNotBuilt("RemoveSingleBy")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		return errors.Wrap(c.RemoveSingleBy(pred), "sutest: RemoveSingleBy")
	})
}

func implementedBy(service, impl reflect.Type) func(d *di.Descriptor) bool {
	return func(d *di.Descriptor) bool {
		return d.ServiceType == service && d.EffectiveImplementationType() == impl
	}
}
