package sutest

import (
	"reflect"

	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

// VerifyRegisteredLifetime asserts that the registration of S that resolves
// has the lifetime lt.
func VerifyRegisteredLifetime[S any](s *SUT, lt di.Lifetime) bool {
	s.TB().Helper()
	d, ok := lastRegistration(s, "VerifyRegisteredLifetime", di.TypeOf[S]())
	if !ok {
		return false
	}

	return assert.Equal(s.TB(), lt, d.Lifetime, "lifetime of %s", di.TypeOf[S]())
}

// VerifyRegisteredImplementationType asserts that the registration of S that
// resolves is implemented by I.
func VerifyRegisteredImplementationType[S, I any](s *SUT) bool {
	s.TB().Helper()
	d, ok := lastRegistration(s, "VerifyRegisteredImplementationType", di.TypeOf[S]())
	if !ok {
		return false
	}

	impl, err := s.implementationType(d)
	if !assert.NoError(s.TB(), err, "failed to determine the implementation of %s", d) {
		return false
	}

	return assert.Equal(s.TB(), di.TypeOf[I](), impl, "implementation of %s", di.TypeOf[S]())
}

// VerifyRegistrationByCondition asserts that at least one registration matches pred.
func (s *SUT) VerifyRegistrationByCondition(pred func(d *di.Descriptor) bool) bool {
	s.TB().Helper()
	s.EnsureBuilt("VerifyRegistrationByCondition")

	return assert.True(s.TB(), lo.ContainsBy(s.registrations(), pred), "no registration matches the condition")
}

// VerifyNoRegistrationByCondition asserts that no registration matches pred.
func (s *SUT) VerifyNoRegistrationByCondition(pred func(d *di.Descriptor) bool) bool {
	s.TB().Helper()
	s.EnsureBuilt("VerifyNoRegistrationByCondition")

	matches := lo.Filter(s.registrations(), func(d *di.Descriptor, _ int) bool { return pred(d) })
	return assert.Empty(s.TB(), matches, "registrations match the condition")
}

// VerifyNoRegistration asserts that nothing is registered for S.
func VerifyNoRegistration[S any](s *SUT) bool {
	s.TB().Helper()
	s.EnsureBuilt("VerifyNoRegistration")

	t := di.TypeOf[S]()
	matches := lo.Filter(s.registrations(), func(d *di.Descriptor, _ int) bool { return d.ServiceType == t })
	return assert.Empty(s.TB(), matches, "registrations of %s", t)
}

// VerifyNoRegistrationOf asserts that no registration of S is implemented by I.
func VerifyNoRegistrationOf[S, I any](s *SUT) bool {
	s.TB().Helper()
	s.EnsureBuilt("VerifyNoRegistrationOf")

	svc, impl := di.TypeOf[S](), di.TypeOf[I]()
	for _, d := range s.registrations() {
		if d.ServiceType != svc {
			continue
		}

		got, err := s.implementationType(d)
		if !assert.NoError(s.TB(), err, "failed to determine the implementation of %s", d) {
			return false
		}

		if got == impl {
			return assert.Fail(s.TB(), "unexpected registration", "%s is implemented by %s", svc, impl)
		}
	}

	return true
}

func lastRegistration(s *SUT, method string, t reflect.Type) (*di.Descriptor, bool) {
	s.TB().Helper()
	s.EnsureBuilt(method)

	d, _, ok := lo.FindLastIndexOf(s.registrations(), func(d *di.Descriptor) bool { return d.ServiceType == t })
	if !ok {
		return nil, assert.Fail(s.TB(), "service not registered", "%s has no registration", t)
	}

	return d, true
}

func (s *SUT) registrations() []*di.Descriptor {
	if s.host == nil {
		return nil
	}

	return s.host.Services().Descriptors()
}

// implementationType returns the declared implementation type of d, the
// runtime type of its instance, or else the runtime type of a value that d
// builds in a throwaway provider.
func (s *SUT) implementationType(d *di.Descriptor) (t reflect.Type, err error) {
	if t = d.EffectiveImplementationType(); t != nil {
		return t, nil
	}

	c := di.NewCollection().Add(s.registrations()...)
	c.Remove(d)
	p := c.Add(d).Build()
	defer func() { err = errors.Join(err, p.Close()) }()

	scope := p.CreateScope()
	defer func() { err = errors.Join(err, scope.Close()) }()

	v, err := scope.Resolve(d.ServiceType)
	if err != nil {
		return nil, err
	}

	return reflect.TypeOf(v), nil
}
