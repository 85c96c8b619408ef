package sutest

import (
	"reflect"

	"github.com/advdv/sutest/auth"
	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
)

var (
	// ErrAuthenticationNotConfigured is returned when authentication is faked for
	// an application that never called [auth.AddAuthentication].
	ErrAuthenticationNotConfigured = errors.New("authentication is not configured")
	// ErrFakeNotInstalled is returned when a result is set on a built host for a
	// scheme that was not faked before the build.
	ErrFakeNotInstalled = errors.New("no fake handler installed")
)

var fakerType = reflect.TypeFor[auth.Faker]()

// FakeAuthentication makes the scheme, or the default scheme when scheme is
// empty, return res instead of checking credentials. Before the build the
// scheme's handler is swapped for a fake; after the build the result of the
// installed fake is overwritten.
func (s *SUT) FakeAuthentication(scheme string, res auth.Result) error {
	if s.built {
		return s.setFakeResult(scheme, res)
	}

	s.ConfigureTestServices(func(c *di.Collection) error {
		return installFake(c, scheme, res)
	})

	return nil
}

// FakeDefaultAuthentication fakes the default scheme.
func (s *SUT) FakeDefaultAuthentication(res auth.Result) error {
	return s.FakeAuthentication("", res)
}

// NoUserAuthentication makes the scheme find no credentials.
func (s *SUT) NoUserAuthentication(scheme string) error {
	return s.FakeAuthentication(scheme, auth.NoResult())
}

// DenyAuthentication makes the scheme reject every request with msg.
func (s *SUT) DenyAuthentication(scheme, msg string) error {
	return s.FakeAuthentication(scheme, auth.Fail(msg))
}

// AllowAuthentication makes the scheme, or the default scheme when scheme is
// empty, authenticate every request as p. It fails when p is not authenticated.
func (s *SUT) AllowAuthentication(scheme string, p *auth.Principal) error {
	res, err := auth.Success(p, scheme)
	if err != nil {
		return err
	}

	return s.FakeAuthentication(scheme, res)
}

// ReplaceAuthenticationHandler serves the scheme with handler H built by ctor.
func ReplaceAuthenticationHandler[H auth.Handler](s *SUT, scheme string, ctor any, lifetime ...di.Lifetime) *SUT {
	s.EnsureNotBuilt("ReplaceAuthenticationHandler")
	return s.ConfigureTestServices(func(c *di.Collection) error {
		opts, sch, err := findScheme(c, scheme)
		if err != nil {
			return err
		}

		lt := di.Scoped
		if len(lifetime) > 0 {
			lt = lifetime[0]
		}

		d, err := di.NewConstructor(di.TypeOf[H](), lt, ctor)
		if err != nil {
			return errors.Wrap(err, "sutest: invalid authentication handler")
		}

		c.Replace(d)
		return swapHandlerType(c, opts, sch, di.TypeOf[H]())
	})
}

func findScheme(c *di.Collection, scheme string) (*auth.Options, auth.Scheme, error) {
	opts, ok := auth.FindOptions(c)
	if !ok {
		return nil, auth.Scheme{}, ErrAuthenticationNotConfigured
	}

	sch, err := opts.SchemeOrDefault(scheme)
	if err != nil {
		return nil, auth.Scheme{}, errors.Wrap(err, "sutest: cannot fake authentication")
	}

	return opts, sch, nil
}

// installFake points the scheme at a fake handler registered as a singleton
// and sets its result. A scheme that is already faked keeps its fake.
func installFake(c *di.Collection, scheme string, res auth.Result) error {
	opts, sch, err := findScheme(c, scheme)
	if err != nil {
		return err
	}

	if sch.HandlerType.Implements(fakerType) {
		if d, ok := c.FindLast(sch.HandlerType); ok {
			if f, ok := d.Instance.(auth.Faker); ok {
				f.SetResult(sch.Name, res)
				return nil
			}
		}
	}

	fake, err := opts.NewFake(sch)
	if err != nil {
		return errors.Wrap(err, "sutest: cannot fake authentication")
	}

	ft := reflect.TypeOf(fake)
	if d, ok := c.FindLast(ft); ok {
		if existing, ok := d.Instance.(auth.Faker); ok {
			fake = existing
		}
	} else {
		c.Add(di.NewInstance(ft, fake))
	}

	fake.SetResult(sch.Name, res)
	return swapHandlerType(c, opts, sch, ft)
}

// swapHandlerType serves the scheme with handler type t and drops the old
// handler's registration once no scheme uses it.
func swapHandlerType(c *di.Collection, opts *auth.Options, sch auth.Scheme, t reflect.Type) error {
	if err := opts.SetHandlerType(sch.Name, t); err != nil {
		return err
	}

	if sch.HandlerType != t && !opts.UsesHandlerType(sch.HandlerType) {
		c.RemoveAll(sch.HandlerType)
	}

	return nil
}

func (s *SUT) setFakeResult(scheme string, res auth.Result) error {
	if s.buildErr != nil {
		return s.buildErr
	}

	p := s.host.Services()
	opts, err := di.Resolve[*auth.Options](p)
	if errors.Is(err, di.ErrNotRegistered) {
		return errors.Wrap(ErrAuthenticationNotConfigured, "sutest: cannot fake authentication")
	} else if err != nil {
		return errors.Wrap(err, "sutest: cannot fake authentication")
	}

	sch, err := opts.SchemeOrDefault(scheme)
	if err != nil {
		return errors.Wrap(err, "sutest: cannot fake authentication")
	}

	if !sch.HandlerType.Implements(fakerType) {
		return errors.Wrapf(ErrFakeNotInstalled, "sutest: scheme %q is served by %s", sch.Name, sch.HandlerType)
	}

	v, err := p.Resolve(sch.HandlerType)
	if err != nil {
		return errors.Wrapf(err, "sutest: failed to resolve fake for scheme %q", sch.Name)
	}

	v.(auth.Faker).SetResult(sch.Name, res) //nolint:forcetypeassert
	return nil
}
