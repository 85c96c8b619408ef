// Package sutmock replaces services with testify mocks.
//
//	m := sutmock.MockService[sampleapp.Greeter, greeterMock](s)
//	m.On("Greet", mock.Anything, "ann").Return("hi ann", nil)
//	...
//	sutmock.VerifyCallOnce[greeterMock](s, "Greet", mock.Anything, "ann")
package sutmock

import (
	"github.com/advdv/sutest"
	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"
)

// ErrNotMocked is returned when a mock is requested that was never installed.
var ErrNotMocked = errors.New("service is not mocked")

// Mock is implemented by every type that embeds [mock.Mock].
type Mock interface {
	On(methodName string, arguments ...any) *mock.Call
	AssertCalled(t mock.TestingT, methodName string, arguments ...any) bool
	AssertNumberOfCalls(t mock.TestingT, methodName string, expectedCalls int) bool
	AssertExpectations(t mock.TestingT) bool
}

// MockService replaces S with a mock of type M and returns it. There is one
// mock per type M, so mocking two services with the same M installs the same
// mock for both. The test fails when *M does not implement S or when S was
// replaced by something else already.
func MockService[S, M any, PM interface {
	*M
	Mock
}](s *sutest.SUT) *M {
	s.EnsureNotBuilt("MockService")
	s.TB().Helper()

	m, _ := sutest.GetOrAddInternal(s, func() *M { return new(M) })
	svc, ok := any(m).(S)
	if !ok {
		s.TB().Fatalf("sutmock: %T does not implement %s", m, di.TypeOf[S]())
		return m
	}

	if got, _ := sutest.ReplaceServiceOnce(s, svc); any(got) != any(svc) {
		s.TB().Fatalf("sutmock: %s is already replaced by %T", di.TypeOf[S](), got)
	}

	return m
}

// GetServiceMock returns the mock installed by [MockService].
func GetServiceMock[M any](s *sutest.SUT) (*M, error) {
	m, ok := sutest.GetInternal[*M](s)
	if !ok {
		return nil, errors.Wrapf(ErrNotMocked, "sutmock: no %T installed", m)
	}

	return m, nil
}

// VerifyCall asserts that the method was called at least once with args.
func VerifyCall[M any, PM interface {
	*M
	Mock
}](s *sutest.SUT, method string, args ...any) bool {
	s.TB().Helper()

	m, ok := mockOf[M, PM](s)
	return ok && m.AssertCalled(s.TB(), method, args...)
}

// VerifyCallTimes asserts the number of calls to the method.
func VerifyCallTimes[M any, PM interface {
	*M
	Mock
}](s *sutest.SUT, method string, times int) bool {
	s.TB().Helper()

	m, ok := mockOf[M, PM](s)
	return ok && m.AssertNumberOfCalls(s.TB(), method, times)
}

// VerifyCallOnce asserts that the method was called exactly once, with args when
// any are given.
func VerifyCallOnce[M any, PM interface {
	*M
	Mock
}](s *sutest.SUT, method string, args ...any) bool {
	s.TB().Helper()

	if len(args) > 0 && !VerifyCall[M, PM](s, method, args...) {
		return false
	}

	return VerifyCallTimes[M, PM](s, method, 1)
}

// VerifyExpectations asserts that everything set up with On was called.
func VerifyExpectations[M any, PM interface {
	*M
	Mock
}](s *sutest.SUT) bool {
	s.TB().Helper()

	m, ok := mockOf[M, PM](s)
	return ok && m.AssertExpectations(s.TB())
}

func mockOf[M any, PM interface {
	*M
	Mock
}](s *sutest.SUT) (PM, bool) {
	m, err := GetServiceMock[M](s)
	if err != nil {
		s.TB().Errorf("%v", err)
		return nil, false
	}

	return PM(m), true
}
