package sutest_test

import (
	"net/http"
	"testing"

	"github.com/advdv/sutest"
	"github.com/advdv/sutest/auth"
	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"github.com/advdv/sutest/host/hosttest"
	"github.com/advdv/sutest/httpassert"
	"github.com/advdv/sutest/internal/sampleapp"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func admin() *auth.Principal {
	return auth.NewPrincipal(auth.NewIdentity(auth.BearerScheme, "alice",
		auth.Claim{Type: "role", Value: "admin"}))
}

func TestFakeAuthentication(t *testing.T) {
	s := newSUT(t)
	require.NoError(t, s.NoUserAuthentication(auth.BearerScheme))
	require.NoError(t, s.Build())

	httpassert.Unauthorized(t, get(t, s, "/admin"))

	require.NoError(t, s.AllowAuthentication(auth.BearerScheme, admin()))
	httpassert.NoContent(t, get(t, s, "/admin"))

	me := httpassert.OKWith[map[string]string](t, get(t, s, "/me"))
	assert.Equal(t, map[string]string{"name": "alice", "scheme": auth.BearerScheme}, me)

	require.NoError(t, s.DenyAuthentication(auth.BearerScheme, "expired"))
	httpassert.Unauthorized(t, get(t, s, "/me"))
}

func TestFakeDefaultAuthentication(t *testing.T) {
	s := newSUT(t)
	require.NoError(t, s.FakeDefaultAuthentication(auth.MustSuccess(admin(), "")))
	require.NoError(t, s.Build())

	httpassert.NoContent(t, get(t, s, "/admin"))

	user := auth.NewPrincipal(auth.NewIdentity(auth.BearerScheme, "bob"))
	require.NoError(t, s.AllowAuthentication("", user))
	httpassert.Forbidden(t, get(t, s, "/admin"))
}

func TestFakingTwiceKeepsOneFake(t *testing.T) {
	s := newSUT(t)
	require.NoError(t, s.NoUserAuthentication(auth.BearerScheme))
	require.NoError(t, s.AllowAuthentication(auth.BearerScheme, admin()))
	require.NoError(t, s.Build())

	httpassert.NoContent(t, get(t, s, "/admin"))
	assert.True(t, sutest.VerifyNoRegistration[*auth.JWTBearer](s))
	assert.True(t, sutest.VerifyRegisteredLifetime[*auth.FakeHandler[auth.JWTBearerOptions]](s, di.Singleton))
	assert.Equal(t, 1, countRegistrations[*auth.FakeHandler[auth.JWTBearerOptions]](s))
}

func TestDenyAuthentication(t *testing.T) {
	s := newSUT(t)
	require.NoError(t, s.DenyAuthentication(sampleapp.APIKeyScheme, "revoked"))
	require.NoError(t, s.Build())

	resp := get(t, s, "/partner")
	httpassert.Unauthorized(t, resp)
	assert.Equal(t, sampleapp.APIKeyScheme, resp.Header.Get("WWW-Authenticate"))
}

func TestFakeAuthenticationErrors(t *testing.T) {
	t.Run("not installed", func(t *testing.T) {
		s := newSUT(t)
		require.NoError(t, s.Build())

		err := s.AllowAuthentication(auth.BearerScheme, admin())
		require.ErrorIs(t, err, sutest.ErrFakeNotInstalled)
	})

	t.Run("unknown scheme", func(t *testing.T) {
		s := newSUT(t)
		require.NoError(t, s.NoUserAuthentication("Cookie"))
		require.ErrorIs(t, s.Build(), auth.ErrUnknownScheme)
	})

	t.Run("unauthenticated principal", func(t *testing.T) {
		s := newSUT(t)
		require.ErrorIs(t, s.AllowAuthentication(auth.BearerScheme, auth.NewPrincipal()), auth.ErrNotAuthenticated)
	})

	t.Run("no authentication before build", func(t *testing.T) {
		hosttest.SetBaseEnv(t)
		s := sutest.New(t, bareStartup{})
		require.NoError(t, s.NoUserAuthentication(""))
		require.ErrorIs(t, s.Build(), sutest.ErrAuthenticationNotConfigured)
	})

	t.Run("no authentication after build", func(t *testing.T) {
		hosttest.SetBaseEnv(t)
		s := sutest.New(t, bareStartup{})
		require.NoError(t, s.Build())

		err := s.NoUserAuthentication("")
		require.ErrorIs(t, err, sutest.ErrAuthenticationNotConfigured)
		assert.NotErrorIs(t, err, sutest.ErrFakeNotInstalled)
		assert.EqualError(t, err, "sutest: cannot fake authentication: authentication is not configured")
	})
}

type staticHandler struct{ auth.BaseHandler }

func (staticHandler) Authenticate(_ *http.Request, scheme string) auth.Result {
	return auth.MustSuccess(auth.NewPrincipal(auth.NewIdentity(scheme, "static")), scheme)
}

func TestReplaceAuthenticationHandler(t *testing.T) {
	s := newSUT(t)
	sutest.ReplaceAuthenticationHandler[*staticHandler](s, sampleapp.APIKeyScheme,
		func() *staticHandler { return &staticHandler{} })
	require.NoError(t, s.Build())

	httpassert.NoContent(t, get(t, s, "/partner"))
	assert.True(t, sutest.VerifyRegisteredLifetime[*staticHandler](s, di.Scoped))
	assert.True(t, sutest.VerifyNoRegistration[*sampleapp.APIKeyHandler](s))
}

type bareStartup struct{}

func (bareStartup) ConfigureServices(host.BuilderContext, *di.Collection) error { return nil }

func (bareStartup) Configure(*host.AppBuilder) error { return nil }

func countRegistrations[S any](s *sutest.SUT) int {
	return lo.CountBy(s.Services().Descriptors(), func(d *di.Descriptor) bool {
		return d.ServiceType == di.TypeOf[S]()
	})
}
