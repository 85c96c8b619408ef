package host_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"github.com/advdv/sutest/host/hosttest"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

type Visits struct{ n int }

type testStartup struct {
	configureErr error
}

func (s testStartup) ConfigureAppConfiguration(_ host.Environment, b *host.ConfigBuilder) error {
	b.AddMap(map[string]any{"greeting": "hello"})
	return nil
}

func (s testStartup) ConfigureServices(_ host.BuilderContext, c *di.Collection) error {
	di.AddScoped[*Visits](c, func() *Visits { return &Visits{} })
	return nil
}

func (s testStartup) Configure(app *host.AppBuilder) error {
	if s.configureErr != nil {
		return s.configureErr
	}

	greeting := app.Configuration.GetString("greeting")
	app.Mux.HandleFunc("GET /hello", func(ctx context.Context, w host.ResponseWriter, _ *http.Request) error {
		v1 := di.MustResolve[*Visits](host.RequestServices(ctx))
		v2 := di.MustResolve[*Visits](host.RequestServices(ctx))
		v1.n++
		v2.n++

		host.Log(ctx).Info("served hello")
		fmt.Fprintf(w, "%s %s %d", greeting, app.Environment.Name, v1.n)
		return nil
	})

	return nil
}

type headerFilter struct{ value string }

func (f headerFilter) Configure(next host.ConfigureFunc) host.ConfigureFunc {
	return func(app *host.AppBuilder) error {
		app.Use(func(n host.BareHandler) host.BareHandler {
			return host.BareHandlerFunc(func(w host.ResponseWriter, r *http.Request) error {
				w.Header().Add("X-Filter", f.value)
				return n.ServeBare(w, r)
			})
		})

		return next(app)
	}
}

func get(t *testing.T, h *host.Host, path string) (*http.Response, string) {
	t.Helper()

	resp, err := h.Client().Get(h.URL() + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHostServes(t *testing.T) {
	hosttest.SetBaseEnv(t)

	var started bool
	h := hosttest.Start(t, testStartup{}, func(b *host.Builder) {
		b.UseEnvironment(host.Staging)
		b.ConfigureAppConfiguration(func(_ host.Environment, cb *host.ConfigBuilder) {
			cb.AddValues(map[string]any{"greeting": "hi"})
		})
		b.ConfigureTestServices(func(c *di.Collection) error {
			host.AddStartupFilter(c, func() headerFilter { return headerFilter{"outer"} })
			host.AddStartupFilter(c, func() headerFilter { return headerFilter{"inner"} })
			return nil
		})
		b.WithFx(fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.StartHook(func() { started = true }))
		}))
	})

	require.True(t, started)
	require.True(t, h.Environment().IsStaging())

	resp, body := get(t, h, "/hello")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "hi Staging 2", body)
	require.Equal(t, []string{"outer", "inner"}, resp.Header.Values("X-Filter"))

	_, body = get(t, h, "/hello")
	require.Equal(t, "hi Staging 2", body, "scoped services are per request")

	require.ErrorIs(t, h.Start(t.Context()), host.ErrStarted)
}

func TestHostConfigureFailure(t *testing.T) {
	hosttest.SetBaseEnv(t)

	h, err := host.NewBuilder(testStartup{configureErr: errors.New("bad routes")}).Build()
	require.NoError(t, err)

	err = h.Start(t.Context())
	require.ErrorContains(t, err, "failed to configure request pipeline: bad routes")
	require.NoError(t, h.Stop(t.Context()))
	require.NoError(t, h.Stop(t.Context()))

	_, err = h.Services().Resolve(di.TypeOf[*Visits]())
	require.ErrorIs(t, err, di.ErrClosed)
}

func TestHostStartAfterFailedStart(t *testing.T) {
	hosttest.SetBaseEnv(t)

	attempts := 0
	h, err := host.NewBuilder(testStartup{}).
		WithFx(fx.Invoke(func() error {
			attempts++
			if attempts == 1 {
				return errors.New("not ready")
			}

			return nil
		})).
		Build()
	require.NoError(t, err)

	err = h.Start(t.Context())
	require.ErrorContains(t, err, "failed to start host")
	require.ErrorContains(t, err, "not ready")
	require.Empty(t, h.URL())

	require.NoError(t, h.Start(t.Context()))
	t.Cleanup(func() { require.NoError(t, h.Stop(context.Background())) })
	require.Equal(t, 2, attempts)

	resp, body := get(t, h, "/hello")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "hello ")
}

func TestTestServicesRunLast(t *testing.T) {
	hosttest.SetBaseEnv(t)

	h, err := host.NewBuilder(testStartup{}).
		ConfigureServices(func(_ host.BuilderContext, c *di.Collection) error {
			require.False(t, c.Contains(di.TypeOf[*Visits]()))
			return nil
		}).
		ConfigureTestServices(func(c *di.Collection) error {
			require.True(t, c.Contains(di.TypeOf[*Visits]()))
			return errors.New("test mutation failed")
		}).
		Build()
	require.Nil(t, h)
	require.ErrorContains(t, err, "failed to configure test services: test mutation failed")
}
