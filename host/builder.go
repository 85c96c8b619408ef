package host

import (
	"net/http"

	"github.com/advdv/sutest/di"
	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// BuilderContext is handed to everything that registers services.
type BuilderContext struct {
	Environment   Environment
	Configuration *viper.Viper
}

// Startup is the composition root of an application.
type Startup interface {
	// ConfigureServices registers the application's services.
	ConfigureServices(ctx BuilderContext, c *di.Collection) error
	// Configure sets up the request pipeline once the services are built.
	Configure(app *AppBuilder) error
}

// AppConfigurer can be implemented by a [Startup] to add configuration sources
// before any source added through the [Builder].
type AppConfigurer interface {
	ConfigureAppConfiguration(env Environment, b *ConfigBuilder) error
}

// AppBuilder is handed to [Startup.Configure] and the startup filters.
type AppBuilder struct {
	Services      di.Resolver
	Environment   Environment
	Configuration *viper.Viper
	Mux           *Mux
	Logger        *zap.Logger
}

// Use adds middleware to the mux.
func (a *AppBuilder) Use(mw ...Middleware) { a.Mux.Use(mw...) }

// Builder assembles a [Host] for a [Startup].
type Builder struct {
	startup      Startup
	settings     map[string]string
	appConfig    []func(Environment, *ConfigBuilder)
	services     []func(BuilderContext, *di.Collection) error
	testServices []func(*di.Collection) error
	fxOpts       []fx.Option
	bufLimit     int
}

// NewBuilder inits a builder for the startup.
func NewBuilder(startup Startup) *Builder {
	return &Builder{startup: startup, settings: map[string]string{}, bufLimit: -1}
}

// UseSetting sets a raw host setting.
func (b *Builder) UseSetting(key, value string) *Builder {
	b.settings[key] = value
	return b
}

// UseEnvironment sets the environment name, overriding APP_ENVIRONMENT.
func (b *Builder) UseEnvironment(name string) *Builder {
	return b.UseSetting(SettingEnvironment, name)
}

// Setting returns a raw host setting.
func (b *Builder) Setting(key string) (string, bool) {
	v, ok := b.settings[key]
	return v, ok
}

// ConfigureAppConfiguration appends configuration sources after the ones of the startup.
func (b *Builder) ConfigureAppConfiguration(fn func(env Environment, cb *ConfigBuilder)) *Builder {
	b.appConfig = append(b.appConfig, fn)
	return b
}

// ConfigureServices registers services before the startup does.
func (b *Builder) ConfigureServices(fn func(ctx BuilderContext, c *di.Collection) error) *Builder {
	b.services = append(b.services, fn)
	return b
}

// ConfigureTestServices mutates the registrations after the startup has registered its services.
func (b *Builder) ConfigureTestServices(fn func(c *di.Collection) error) *Builder {
	b.testServices = append(b.testServices, fn)
	return b
}

// WithFx adds options to the fx app that runs the server.
func (b *Builder) WithFx(opts ...fx.Option) *Builder {
	b.fxOpts = append(b.fxOpts, opts...)
	return b
}

// WithResponseBufferLimit limits buffered response bodies to n bytes.
func (b *Builder) WithResponseBufferLimit(n int) *Builder {
	b.bufLimit = n
	return b
}

// Build parses the environment, merges the configuration, registers every
// service and builds the provider. The server is not started.
func (b *Builder) Build() (*Host, error) {
	env, err := ParseEnv(b.settings)
	if err != nil {
		return nil, err
	}

	cb := &ConfigBuilder{}
	cb.AddValues(settingValues(b.settings))
	if ac, ok := b.startup.(AppConfigurer); ok {
		if err := ac.ConfigureAppConfiguration(env, cb); err != nil {
			return nil, errors.Wrap(err, "failed to configure app configuration")
		}
	}

	for _, fn := range b.appConfig {
		fn(env, cb)
	}

	cfg, err := cb.Build()
	if err != nil {
		return nil, err
	}

	bctx := BuilderContext{Environment: env, Configuration: cfg}
	c := di.NewCollection()
	addCoreServices(c, env, cfg)

	for _, fn := range b.services {
		if err := fn(bctx, c); err != nil {
			return nil, errors.Wrap(err, "failed to configure services")
		}
	}

	if err := b.startup.ConfigureServices(bctx, c); err != nil {
		return nil, errors.Wrap(err, "failed to configure startup services")
	}

	for _, fn := range b.testServices {
		if err := fn(c); err != nil {
			return nil, errors.Wrap(err, "failed to configure test services")
		}
	}

	return &Host{
		startup:  b.startup,
		env:      env,
		cfg:      cfg,
		provider: c.Build(),
		fxOpts:   b.fxOpts,
		bufLimit: b.bufLimit,
	}, nil
}

func settingValues(settings map[string]string) map[string]any {
	vals := make(map[string]any, len(settings))
	for k, v := range settings {
		vals[k] = v
	}

	return vals
}

func addCoreServices(c *di.Collection, env Environment, cfg *viper.Viper) {
	di.AddInstance(c, env)
	di.AddInstance(c, cfg)
	di.AddSingleton[LoggerFactory](c, NewLoggerFactory)
	di.AddSingleton[*zap.Logger](c, func(f LoggerFactory) *zap.Logger { return f.Logger("") })
	di.AddSingleton[trace.TracerProvider](c, NewTracerProvider)
	di.AddSingleton[propagation.TextMapPropagator](c, NewPropagator)
	di.AddSingleton[http.RoundTripper](c, func(tp trace.TracerProvider, prop propagation.TextMapPropagator) http.RoundTripper {
		return NewHTTPTransport(nil, tp, prop)
	})
	di.AddTransient[*requests.Builder](c, func(t http.RoundTripper) *requests.Builder {
		return requests.New().Transport(t)
	})
}
