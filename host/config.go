package host

import (
	"bytes"
	"os"
	"strings"

	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// Source contributes values to the app configuration. Sources are merged in the
// order they were added so later sources win.
type Source interface {
	Load(v *viper.Viper) error
}

// SourceFunc adapts a function to [Source].
type SourceFunc func(v *viper.Viper) error

// Load implements [Source].
func (f SourceFunc) Load(v *viper.Viper) error { return f(v) }

// ConfigBuilder collects configuration sources.
type ConfigBuilder struct {
	sources []Source
}

// Add appends a source.
func (b *ConfigBuilder) Add(src Source) *ConfigBuilder {
	b.sources = append(b.sources, src)
	return b
}

// AddMap appends a nested map of values.
func (b *ConfigBuilder) AddMap(m map[string]any) *ConfigBuilder {
	return b.Add(SourceFunc(func(v *viper.Viper) error {
		return errors.Wrap(v.MergeConfigMap(m), "failed to merge map")
	}))
}

// AddValues appends flat key/value pairs. Keys are paths separated by "." or ":".
func (b *ConfigBuilder) AddValues(kv map[string]any) *ConfigBuilder {
	return b.Add(SourceFunc(func(v *viper.Viper) error { return MergeValues(v, kv) }))
}

// MergeValues merges flat key/value pairs into v. Keys are paths separated by
// "." or ":".
func MergeValues(v *viper.Viper, kv map[string]any) error {
	for k, val := range kv {
		if err := v.MergeConfigMap(nest(k, val)); err != nil {
			return errors.Wrapf(err, "failed to merge %q", k)
		}
	}

	return nil
}

// AddJSON appends a JSON document.
func (b *ConfigBuilder) AddJSON(data []byte) *ConfigBuilder {
	return b.Add(SourceFunc(func(v *viper.Viper) error {
		return errors.Wrap(v.MergeConfig(bytes.NewReader(data)), "failed to merge json")
	}))
}

// AddJSONFile appends a JSON file. A missing optional file is skipped.
func (b *ConfigBuilder) AddJSONFile(path string, optional bool) *ConfigBuilder {
	return b.Add(SourceFunc(func(v *viper.Viper) error {
		data, err := os.ReadFile(path)
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		} else if err != nil {
			return errors.Wrapf(err, "failed to read config file %q", path)
		}

		return errors.Wrapf(v.MergeConfig(bytes.NewReader(data)), "failed to merge %q", path)
	}))
}

// AddEnv appends the process environment variables that start with prefix.
// A double underscore separates nested keys: APP_DATABASE__DSN sets database.dsn.
func (b *ConfigBuilder) AddEnv(prefix string) *ConfigBuilder {
	return b.Add(SourceFunc(func(v *viper.Viper) error {
		for _, kv := range os.Environ() {
			k, val, _ := strings.Cut(kv, "=")
			if !strings.HasPrefix(k, prefix) {
				continue
			}

			path := strings.ReplaceAll(strings.TrimPrefix(k, prefix), "__", ".")
			if err := v.MergeConfigMap(nest(path, val)); err != nil {
				return errors.Wrapf(err, "failed to merge env %q", k)
			}
		}

		return nil
	}))
}

// Build merges every source into a new viper instance.
func (b *ConfigBuilder) Build() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("json")

	for i, src := range b.sources {
		if err := src.Load(v); err != nil {
			return nil, errors.Wrapf(err, "failed to load configuration source %d", i)
		}
	}

	return v, nil
}

func nest(path string, val any) map[string]any {
	parts := strings.Split(strings.ToLower(strings.ReplaceAll(path, ":", ".")), ".")

	m := map[string]any{parts[len(parts)-1]: val}
	for i := len(parts) - 2; i >= 0; i-- {
		m = map[string]any{parts[i]: m}
	}

	return m
}

// BindOptions binds the configuration section at key to the default instance of T.
func BindOptions[T any](c *di.Collection, key string) *di.Collection {
	return BindNamedOptions[T](c, di.DefaultName, key)
}

// BindNamedOptions binds the configuration section at key to the instance of T called name.
func BindNamedOptions[T any](c *di.Collection, name, key string) *di.Collection {
	return di.AddConfigurer[T](c, &di.NamedConfigurer[T]{Name: name, Fn: func(r di.Resolver, o *T) error {
		v, err := di.Resolve[*viper.Viper](r)
		if err != nil {
			return err
		}

		if !v.IsSet(key) {
			return nil
		}

		return errors.Wrapf(v.UnmarshalKey(key, o), "failed to bind %q", key)
	}})
}
