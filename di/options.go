package di

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
)

// DefaultName names the unnamed options instance.
const DefaultName = ""

// Configurer mutates an options value while it is being built.
type Configurer[T any] interface {
	Configure(r Resolver, name string, v *T) error
}

// NamedConfigurer runs Fn for the options instance called Name, or for every
// instance when All is set.
type NamedConfigurer[T any] struct {
	Name string
	All  bool
	Fn   func(r Resolver, v *T) error
}

// Configure implements [Configurer].
func (c *NamedConfigurer[T]) Configure(r Resolver, name string, v *T) error {
	if !c.All && c.Name != name {
		return nil
	}

	return c.Fn(r, v)
}

// Validator checks a fully configured options value.
type Validator[T any] interface {
	Validate(name string, v *T) error
}

// ValidatorFunc adapts a function to [Validator].
type ValidatorFunc[T any] func(name string, v *T) error

// Validate implements [Validator].
func (f ValidatorFunc[T]) Validate(name string, v *T) error { return f(name, v) }

// OptionsValidationError lists every validation failure of an options value.
type OptionsValidationError struct {
	OptionsType reflect.Type
	Name        string
	Failures    []string
}

func (e *OptionsValidationError) Error() string {
	name := e.Name
	if name == DefaultName {
		name = "default"
	}

	return fmt.Sprintf("options %s (%s) failed validation: %s", e.OptionsType, name, strings.Join(e.Failures, "; "))
}

// Options builds and caches named option values of T. A value is built on first
// access: struct defaults are applied, then every registered [Configurer] in
// registration order, then every registered [Validator].
type Options[T any] struct {
	r      Resolver
	mu     sync.Mutex
	values map[string]*T
}

// NewOptions inits options that resolve configurers and validators from r.
func NewOptions[T any](r Resolver) *Options[T] {
	return &Options[T]{r: r, values: map[string]*T{}}
}

// Value returns the default instance.
func (o *Options[T]) Value() (*T, error) { return o.Get(DefaultName) }

// MustValue returns the default instance and panics when it cannot be built.
func (o *Options[T]) MustValue() *T {
	v, err := o.Value()
	if err != nil {
		panic("di: " + err.Error())
	}

	return v
}

// Get returns the named instance.
func (o *Options[T]) Get(name string) (*T, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if v, ok := o.values[name]; ok {
		return v, nil
	}

	v, err := o.build(name)
	if err != nil {
		return nil, err
	}

	o.values[name] = v
	return v, nil
}

func (o *Options[T]) build(name string) (*T, error) {
	v := new(T)
	if reflect.TypeFor[T]().Kind() == reflect.Struct {
		if err := defaults.Set(v); err != nil {
			return nil, errors.Wrapf(err, "failed to apply defaults to %s", TypeOf[T]())
		}
	}

	configurers, err := ResolveAll[Configurer[T]](o.r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve configurers")
	}

	for _, c := range configurers {
		if err := c.Configure(o.r, name, v); err != nil {
			return nil, errors.Wrapf(err, "failed to configure %s", TypeOf[T]())
		}
	}

	validators, err := ResolveAll[Validator[T]](o.r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve validators")
	}

	var failures []string
	for _, val := range validators {
		if err := val.Validate(name, v); err != nil {
			failures = append(failures, validationFailures(err)...)
		}
	}

	if len(failures) > 0 {
		return nil, &OptionsValidationError{OptionsType: TypeOf[T](), Name: name, Failures: failures}
	}

	return v, nil
}

// AddOptions registers the [Options] singleton for T if it is not registered yet.
func AddOptions[T any](c *Collection) *Collection {
	c.TryAdd(Describe[*Options[T]](Singleton, NewOptions[T]))
	return c
}

// Configure registers fn to configure the default instance of T.
func Configure[T any](c *Collection, fn func(*T)) *Collection {
	return ConfigureNamed(c, DefaultName, fn)
}

// ConfigureNamed registers fn to configure the instance of T called name.
func ConfigureNamed[T any](c *Collection, name string, fn func(*T)) *Collection {
	return AddConfigurer(c, &NamedConfigurer[T]{Name: name, Fn: func(_ Resolver, v *T) error {
		fn(v)
		return nil
	}})
}

// ConfigureAll registers fn to configure every instance of T.
func ConfigureAll[T any](c *Collection, fn func(*T)) *Collection {
	return AddConfigurer(c, &NamedConfigurer[T]{All: true, Fn: func(_ Resolver, v *T) error {
		fn(v)
		return nil
	}})
}

// AddConfigurer registers a configurer for T.
func AddConfigurer[T any](c *Collection, cfg Configurer[T]) *Collection {
	AddOptions[T](c)
	return c.Add(NewInstance(TypeOf[Configurer[T]](), cfg))
}

// AddValidator registers a validator for T.
func AddValidator[T any](c *Collection, v Validator[T]) *Collection {
	AddOptions[T](c)
	return c.Add(NewInstance(TypeOf[Validator[T]](), v))
}
