package di

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
)

var errorType = reflect.TypeFor[error]()

// Descriptor describes a single service registration. Exactly one of Instance,
// Constructor or Factory is set.
type Descriptor struct {
	ServiceType reflect.Type
	Lifetime    Lifetime

	// ImplementationType is the concrete type a constructor returns. It is nil for
	// instances, factories and constructors that return an interface.
	ImplementationType reflect.Type

	Instance    any
	Constructor any
	Factory     func(r Resolver) (any, error)
}

// String describes the registration for use in error messages and test output.
func (d *Descriptor) String() string {
	impl := "<factory>"
	switch {
	case d.Instance != nil:
		impl = fmt.Sprintf("instance %T", d.Instance)
	case d.ImplementationType != nil:
		impl = d.ImplementationType.String()
	case d.Constructor != nil:
		impl = reflect.TypeOf(d.Constructor).String()
	}

	return fmt.Sprintf("%s => %s (%s)", d.ServiceType, impl, d.Lifetime)
}

// EffectiveImplementationType returns the declared implementation type or, for
// instance registrations, the instance's runtime type. It returns nil when the
// type can only be known by constructing the service.
func (d *Descriptor) EffectiveImplementationType() reflect.Type {
	if d.ImplementationType != nil {
		return d.ImplementationType
	}

	if d.Instance != nil {
		return reflect.TypeOf(d.Instance)
	}

	return nil
}

// NewInstance describes a singleton registration of an existing value.
func NewInstance(service reflect.Type, v any) *Descriptor {
	return &Descriptor{ServiceType: service, Lifetime: Singleton, Instance: v}
}

// NewFactory describes a registration built by calling fn.
func NewFactory(service reflect.Type, lt Lifetime, fn func(r Resolver) (any, error)) *Descriptor {
	return &Descriptor{ServiceType: service, Lifetime: lt, Factory: fn}
}

// NewConstructor describes a registration built by calling ctor with its
// parameters resolved by type. The constructor must return the service
// (optionally followed by an error).
func NewConstructor(service reflect.Type, lt Lifetime, ctor any) (*Descriptor, error) {
	ft := reflect.TypeOf(ctor)
	if ft == nil || ft.Kind() != reflect.Func {
		return nil, errors.Errorf("constructor for %s must be a function, got %T", service, ctor)
	}

	if ft.IsVariadic() {
		return nil, errors.Errorf("constructor for %s must not be variadic", service)
	}

	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return nil, errors.Errorf("constructor for %s must return (T) or (T, error), got %s", service, ft)
	}

	out := ft.Out(0)
	if !out.AssignableTo(service) {
		return nil, errors.Errorf("constructor result %s is not assignable to %s", out, service)
	}

	d := &Descriptor{ServiceType: service, Lifetime: lt, Constructor: ctor}
	if out.Kind() != reflect.Interface {
		d.ImplementationType = out
	}

	return d, nil
}

// Describe is the generic form of [NewConstructor]. It panics when ctor is not a
// valid constructor for S.
func Describe[S any](lt Lifetime, ctor any) *Descriptor {
	d, err := NewConstructor(TypeOf[S](), lt, ctor)
	if err != nil {
		panic("di: " + err.Error())
	}

	return d
}

// TypeOf returns the reflect type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}
