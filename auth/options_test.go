package auth_test

import (
	"net/http"
	"testing"

	"github.com/advdv/sutest/auth"
	"github.com/advdv/sutest/di"
	"github.com/stretchr/testify/require"
)

type headerHandler struct{ auth.BaseHandler }

func (headerHandler) Authenticate(r *http.Request, scheme string) auth.Result {
	if r.Header.Get("X-User") == "" {
		return auth.NoResult()
	}

	return auth.MustSuccess(auth.NewPrincipal(auth.NewIdentity(scheme, r.Header.Get("X-User"))), scheme)
}

func TestAddAuthenticationReusesOptions(t *testing.T) {
	c := di.NewCollection()
	b1 := auth.AddAuthentication(c, "Bearer")
	auth.AddJWTBearer(b1, "Bearer", nil)

	b2 := auth.AddAuthentication(c, "")
	auth.AddHandler[headerHandler](b2, "Header", func() headerHandler { return headerHandler{} })

	require.Same(t, b1.Options(), b2.Options())
	require.Equal(t, "Bearer", b2.Options().DefaultScheme)
	require.Len(t, b2.Options().Schemes(), 2)

	opts, ok := auth.FindOptions(c)
	require.True(t, ok)
	require.Same(t, b1.Options(), opts)

	require.PanicsWithValue(t, "auth: scheme already added: Bearer", func() {
		auth.AddJWTBearer(b1, "Bearer", nil)
	})
}

func TestSchemeLookup(t *testing.T) {
	c := di.NewCollection()
	b := auth.AddAuthentication(c, "")
	auth.AddJWTBearer(b, "Bearer", nil)
	auth.AddHandler[headerHandler](b, "Header", func() headerHandler { return headerHandler{} })
	opts := b.Options()

	_, err := opts.SchemeOrDefault("")
	require.ErrorIs(t, err, auth.ErrNoDefaultScheme)

	_, err = opts.Scheme("Cookie")
	require.ErrorIs(t, err, auth.ErrUnknownScheme)

	s, err := opts.Scheme("Bearer")
	require.NoError(t, err)
	require.Equal(t, di.TypeOf[*auth.JWTBearer](), s.HandlerType)
	require.Equal(t, di.TypeOf[auth.JWTBearerOptions](), s.OptionsType)

	fake, err := opts.NewFake(s)
	require.NoError(t, err)
	require.IsType(t, &auth.FakeHandler[auth.JWTBearerOptions]{}, fake)

	hs, err := opts.Scheme("Header")
	require.NoError(t, err)
	_, err = opts.NewFake(hs)
	require.ErrorIs(t, err, auth.ErrNotFakeable)

	require.NoError(t, opts.SetHandlerType("Bearer", di.TypeOf[headerHandler]()))
	require.True(t, opts.UsesHandlerType(di.TypeOf[headerHandler]()))
	require.False(t, opts.UsesHandlerType(di.TypeOf[*auth.JWTBearer]()))
	require.ErrorIs(t, opts.SetHandlerType("Cookie", nil), auth.ErrUnknownScheme)
}

func TestFakeHandlerResults(t *testing.T) {
	fake := auth.NewFakeHandler[auth.JWTBearerOptions]()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	require.True(t, fake.Authenticate(req, "Bearer").None())

	fake.SetResult("Bearer", auth.Fail("nope"))
	require.EqualError(t, fake.Authenticate(req, "Bearer").Failure(), "nope")
	require.True(t, fake.Authenticate(req, "Other").None())
}
