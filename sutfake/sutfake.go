// Package sutfake replaces services with fakes that count their calls, such as
// those generated by counterfeiter.
package sutfake

import (
	"github.com/advdv/sutest"
	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

// ErrNotFaked is returned when a fake is requested that was never installed.
var ErrNotFaked = errors.New("service is not faked")

// FakeService replaces S with the fake of type F and returns it. There is one
// fake per type F, shared by every service it is installed for. The test fails
// when *F does not implement S or when S was replaced by something else already.
func FakeService[S, F any](s *sutest.SUT) *F {
	s.EnsureNotBuilt("FakeService")
	s.TB().Helper()

	f, _ := sutest.GetOrAddInternal(s, func() *F { return new(F) })
	svc, ok := any(f).(S)
	if !ok {
		s.TB().Fatalf("sutfake: %T does not implement %s", f, di.TypeOf[S]())
		return f
	}

	if got, _ := sutest.ReplaceServiceOnce(s, svc); any(got) != any(svc) {
		s.TB().Fatalf("sutfake: %s is already replaced by %T", di.TypeOf[S](), got)
	}

	return f
}

// GetFakeService returns the fake installed by [FakeService].
func GetFakeService[F any](s *sutest.SUT) (*F, error) {
	f, ok := sutest.GetInternal[*F](s)
	if !ok {
		return nil, errors.Wrapf(ErrNotFaked, "sutfake: no %s installed", di.TypeOf[*F]())
	}

	return f, nil
}

// UseFakeService calls fn with the installed fake.
func UseFakeService[F any](s *sutest.SUT, fn func(f *F)) error {
	f, err := GetFakeService[F](s)
	if err != nil {
		return err
	}

	fn(f)
	return nil
}

// VerifyCall asserts on a call counter of the fake, for example
// (*FakeGreeter).GreetCallCount. Without times the method must have been called
// at least once.
func VerifyCall[F any](s *sutest.SUT, count func(f *F) int, times ...int) bool {
	s.TB().Helper()

	f, err := GetFakeService[F](s)
	if err != nil {
		s.TB().Errorf("%v", err)
		return false
	}

	n := count(f)
	if len(times) == 0 {
		return assert.Positive(s.TB(), n, "expected at least one call")
	}

	return assert.Equal(s.TB(), times[0], n, "unexpected number of calls")
}

// VerifyCallOnce asserts that the counted method was called exactly once.
func VerifyCallOnce[F any](s *sutest.SUT, count func(f *F) int) bool {
	s.TB().Helper()
	return VerifyCall(s, count, 1)
}
