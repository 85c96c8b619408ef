package host

import (
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Well known environment names.
const (
	Development = "Development"
	Staging     = "Staging"
	Production  = "Production"
)

// Setting keys the builder understands. Settings override the process environment.
const (
	SettingEnvironment  = "environment"
	SettingServiceName  = "servicename"
	SettingLogLevel     = "loglevel"
	SettingOtelExporter = "otelexporter"
)

// BaseEnvironment holds the variables every host reads from the process environment.
type BaseEnvironment struct {
	Name         string        `env:"APP_ENVIRONMENT" envDefault:"Production"`
	ServiceName  string        `env:"APP_SERVICE_NAME" envDefault:"app"`
	LogLevel     zapcore.Level `env:"APP_LOG_LEVEL" envDefault:"info"`
	OtelExporter string        `env:"APP_OTEL_EXPORTER" envDefault:"none"`
	// LogGroups are correlated with traces exported to X-Ray.
	LogGroups    []string      `env:"APP_OTEL_LOG_GROUPS"`
}

// Environment describes where the host runs.
type Environment struct {
	BaseEnvironment
}

// IsEnvironment compares the environment name case-insensitively.
func (e Environment) IsEnvironment(name string) bool {
	return strings.EqualFold(e.Name, name)
}

func (e Environment) IsDevelopment() bool { return e.IsEnvironment(Development) }
func (e Environment) IsStaging() bool     { return e.IsEnvironment(Staging) }
func (e Environment) IsProduction() bool  { return e.IsEnvironment(Production) }

// ParseEnv parses the process environment and applies settings on top.
func ParseEnv(settings map[string]string) (Environment, error) {
	var base BaseEnvironment
	if err := env.Parse(&base); err != nil {
		return Environment{}, errors.Wrap(err, "failed to parse environment")
	}

	if v, ok := settings[SettingEnvironment]; ok {
		base.Name = v
	}

	if v, ok := settings[SettingServiceName]; ok {
		base.ServiceName = v
	}

	if v, ok := settings[SettingOtelExporter]; ok {
		base.OtelExporter = v
	}

	if v, ok := settings[SettingLogLevel]; ok {
		lvl, err := zapcore.ParseLevel(v)
		if err != nil {
			return Environment{}, errors.Wrapf(err, "invalid %s setting", SettingLogLevel)
		}

		base.LogLevel = lvl
	}

	return Environment{BaseEnvironment: base}, nil
}
