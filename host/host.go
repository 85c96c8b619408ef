package host

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrStarted is returned when a host is started twice.
var ErrStarted = errors.New("host already started")

// Host runs an application in-process on an [httptest.Server].
type Host struct {
	startup  Startup
	env      Environment
	cfg      *viper.Viper
	provider *di.Provider
	fxOpts   []fx.Option
	bufLimit int

	app     *fx.App
	server  *httptest.Server
	started bool
	stopped bool
}

// Services returns the root provider.
func (h *Host) Services() *di.Provider { return h.provider }

// Environment returns the environment the host was built for.
func (h *Host) Environment() Environment { return h.env }

// Configuration returns the merged app configuration.
func (h *Host) Configuration() *viper.Viper { return h.cfg }

// Start configures the request pipeline through the startup filters and starts
// the server.
func (h *Host) Start(ctx context.Context) error {
	if h.app != nil {
		return ErrStarted
	}

	handler, logger, err := h.pipeline()
	if err != nil {
		return err
	}

	h.app = fx.New(
		fx.NopLogger,
		fx.Supply(h.provider, logger),
		fx.Provide(func() http.Handler { return handler }),
		fx.Provide(newTestServer),
		fx.Invoke(startServerHook),
		fx.Populate(&h.server),
		fx.Options(h.fxOpts...),
	)

	if err := h.app.Start(ctx); err != nil {
		h.app, h.server = nil, nil
		return errors.Wrap(err, "failed to start host")
	}

	h.started = true
	return nil
}

func (h *Host) pipeline() (http.Handler, *zap.Logger, error) {
	logger, err := di.Resolve[*zap.Logger](h.provider)
	if err != nil {
		return nil, nil, err
	}

	mux := NewMux(h.bufLimit, NewZapLogger(logger))
	mux.Use(withRequestScope(h.provider, logger))

	configure, err := composeConfigure(h.provider, h.startup.Configure)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to resolve startup filters")
	}

	if err := configure(&AppBuilder{
		Services:      h.provider,
		Environment:   h.env,
		Configuration: h.cfg,
		Mux:           mux,
		Logger:        logger,
	}); err != nil {
		return nil, nil, errors.Wrap(err, "failed to configure request pipeline")
	}

	tp, err := di.Resolve[trace.TracerProvider](h.provider)
	if err != nil {
		return nil, nil, err
	}

	prop, err := di.Resolve[propagation.TextMapPropagator](h.provider)
	if err != nil {
		return nil, nil, err
	}

	return withTracing(tp, prop, h.env.ServiceName)(mux), logger, nil
}

// URL returns the base url of the running server.
func (h *Host) URL() string {
	if h.server == nil {
		return ""
	}

	return h.server.URL
}

// Client returns a client that trusts the server.
func (h *Host) Client() *http.Client {
	if h.server == nil {
		return nil
	}

	return h.server.Client()
}

// Stop stops the server and closes the provider. It is safe to call more than once.
func (h *Host) Stop(ctx context.Context) error {
	if h.stopped {
		return nil
	}

	h.stopped = true
	if !h.started {
		return h.provider.Close()
	}

	return h.app.Stop(ctx)
}

func newTestServer(h http.Handler) *httptest.Server {
	return httptest.NewUnstartedServer(h)
}

// startServerHook registers lifecycle hooks for the test server.
func startServerHook(lc fx.Lifecycle, server *httptest.Server, provider *di.Provider, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			server.Start()
			logger.Info("starting server", zap.String("url", server.URL))
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Info("stopping server")
			server.Close()
			return provider.Close()
		},
	})
}
