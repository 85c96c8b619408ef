// Package sutgomock replaces services with mocks generated by mockgen.
package sutgomock

import (
	"github.com/advdv/sutest"
	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"go.uber.org/mock/gomock"
)

// ErrNotMocked is returned when a mock is requested that was never installed.
var ErrNotMocked = errors.New("service is not mocked")

// Controller returns the controller shared by every mock of the SUT. It is
// created on first use and finished when the test ends.
func Controller(s *sutest.SUT) *gomock.Controller {
	ctrl, _ := sutest.GetOrAddInternal(s, func() *gomock.Controller {
		return gomock.NewController(s.TB())
	})

	return ctrl
}

// MockService replaces S with the mock built by newMock, usually a generated
// NewMockX function. There is one mock per type M, shared by every service it
// is installed for. The test fails when M does not implement S or when S was
// replaced by something else already.
func MockService[S, M any](s *sutest.SUT, newMock func(ctrl *gomock.Controller) M) M {
	s.EnsureNotBuilt("MockService")
	s.TB().Helper()

	ctrl := Controller(s)
	m, _ := sutest.GetOrAddInternal(s, func() M { return newMock(ctrl) })
	svc, ok := any(m).(S)
	if !ok {
		s.TB().Fatalf("sutgomock: %T does not implement %s", m, di.TypeOf[S]())
		return m
	}

	if got, _ := sutest.ReplaceServiceOnce(s, svc); any(got) != any(svc) {
		s.TB().Fatalf("sutgomock: %s is already replaced by %T", di.TypeOf[S](), got)
	}

	return m
}

// GetServiceMock returns the mock installed by [MockService].
func GetServiceMock[M any](s *sutest.SUT) (M, error) {
	m, ok := sutest.GetInternal[M](s)
	if !ok {
		return m, errors.Wrapf(ErrNotMocked, "sutgomock: no %s installed", di.TypeOf[M]())
	}

	return m, nil
}

// VerifyCalls asserts that every expected call was made.
func VerifyCalls(s *sutest.SUT) bool {
	s.TB().Helper()

	ctrl, ok := sutest.GetInternal[*gomock.Controller](s)
	if !ok {
		return true
	}

	if !ctrl.Satisfied() {
		s.TB().Errorf("sutgomock: not all expected calls were made")
		return false
	}

	return true
}
