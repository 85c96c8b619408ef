package sutest

import (
	"encoding/json"

	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"go.uber.org/fx"
)

// ConfigureServices registers services before the application does.
func (s *SUT) ConfigureServices(fn func(ctx host.BuilderContext, c *di.Collection) error) *SUT {
	s.EnsureNotBuilt("ConfigureServices")
	return s.SetupWebHostBuilder(func(b *host.Builder) { b.ConfigureServices(fn) })
}

// ConfigureAppConfiguration adds configuration sources after the ones of the
// application.
func (s *SUT) ConfigureAppConfiguration(fn func(env host.Environment, cb *host.ConfigBuilder)) *SUT {
	s.EnsureNotBuilt("ConfigureAppConfiguration")
	return s.SetupWebHostBuilder(func(b *host.Builder) { b.ConfigureAppConfiguration(fn) })
}

// UseSetting sets a raw host setting.
func (s *SUT) UseSetting(key, value string) *SUT {
	s.EnsureNotBuilt("UseSetting")
	return s.SetupWebHostBuilder(func(b *host.Builder) { b.UseSetting(key, value) })
}

// UseEnvironment sets the environment name.
func (s *SUT) UseEnvironment(name string) *SUT {
	s.EnsureNotBuilt("UseEnvironment")
	return s.SetupWebHostBuilder(func(b *host.Builder) { b.UseEnvironment(name) })
}

// UseProductionEnvironment runs the host as Production.
func (s *SUT) UseProductionEnvironment() *SUT { return s.UseEnvironment(host.Production) }

// UseStagingEnvironment runs the host as Staging.
func (s *SUT) UseStagingEnvironment() *SUT { return s.UseEnvironment(host.Staging) }

// UseDevelopmentEnvironment runs the host as Development.
func (s *SUT) UseDevelopmentEnvironment() *SUT { return s.UseEnvironment(host.Development) }

// WithFx adds options to the fx app that runs the server.
func (s *SUT) WithFx(opts ...fx.Option) *SUT {
	s.EnsureNotBuilt("WithFx")
	return s.SetupWebHostBuilder(func(b *host.Builder) { b.WithFx(opts...) })
}

// OverrideAppConfiguration layers the JSON encoding of v over the application's
// configuration. Overrides added later win.
func (s *SUT) OverrideAppConfiguration(v any) *SUT {
	s.EnsureNotBuilt("OverrideAppConfiguration")

	data, err := json.Marshal(v)
	if err != nil {
		panic("sutest: failed to encode configuration override: " + err.Error())
	}

	return s.ConfigureAppConfiguration(func(_ host.Environment, cb *host.ConfigBuilder) { cb.AddJSON(data) })
}

// OverrideAppConfigurationMap layers values over the application's
// configuration. Keys are paths separated by "." or ":".
func (s *SUT) OverrideAppConfigurationMap(values map[string]any) *SUT {
	s.EnsureNotBuilt("OverrideAppConfigurationMap")
	return s.ConfigureAppConfiguration(func(_ host.Environment, cb *host.ConfigBuilder) { cb.AddValues(values) })
}

// OverrideAppConfigurationValue layers a single value over the application's
// configuration.
func (s *SUT) OverrideAppConfigurationValue(path string, value any) *SUT {
	s.EnsureNotBuilt("OverrideAppConfigurationValue")
	return s.OverrideAppConfigurationMap(map[string]any{path: value})
}
