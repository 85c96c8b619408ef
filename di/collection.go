package di

import (
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrNoMatch is returned when a removal expected exactly one matching registration.
var ErrNoMatch = errors.New("no single matching registration")

// Collection is an ordered list of service registrations. It is not safe for
// concurrent use.
type Collection struct {
	descs []*Descriptor
}

// NewCollection inits an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Add appends registrations.
func (c *Collection) Add(ds ...*Descriptor) *Collection {
	c.descs = append(c.descs, ds...)
	return c
}

// TryAdd appends d only when nothing is registered for its service type yet.
func (c *Collection) TryAdd(d *Descriptor) bool {
	if c.Contains(d.ServiceType) {
		return false
	}

	c.descs = append(c.descs, d)
	return true
}

// Replace removes the first registration for d's service type and appends d.
func (c *Collection) Replace(d *Descriptor) {
	if _, idx, ok := lo.FindIndexOf(c.descs, byType(d.ServiceType)); ok {
		c.descs = slices.Delete(c.descs, idx, idx+1)
	}

	c.descs = append(c.descs, d)
}

// RemoveAll removes every registration for the service type and reports how
// many were removed.
func (c *Collection) RemoveAll(t reflect.Type) int {
	return c.RemoveAllBy(byType(t))
}

// Remove removes the given registration, compared by identity.
func (c *Collection) Remove(d *Descriptor) bool {
	idx := slices.Index(c.descs, d)
	if idx < 0 {
		return false
	}

	c.descs = slices.Delete(c.descs, idx, idx+1)
	return true
}

// RemoveAllBy removes every registration matching pred.
func (c *Collection) RemoveAllBy(pred func(*Descriptor) bool) int {
	before := len(c.descs)
	c.descs = lo.Reject(c.descs, func(d *Descriptor, _ int) bool { return pred(d) })

	return before - len(c.descs)
}

// RemoveSingleBy removes the one registration matching pred. It fails when zero
// or more than one registration matches.
func (c *Collection) RemoveSingleBy(pred func(*Descriptor) bool) error {
	matches := c.Find(pred)
	if len(matches) != 1 {
		return errors.Wrapf(ErrNoMatch, "expected exactly one registration to match, got %d", len(matches))
	}

	c.Remove(matches[0])
	return nil
}

// FindFirst returns the first registration for the service type.
func (c *Collection) FindFirst(t reflect.Type) (*Descriptor, bool) {
	return lo.Find(c.descs, byType(t))
}

// FindLast returns the last registration for the service type, which is the
// one a provider resolves.
func (c *Collection) FindLast(t reflect.Type) (*Descriptor, bool) {
	d, _, ok := lo.FindLastIndexOf(c.descs, byType(t))
	return d, ok
}

// Find returns all registrations matching pred, in order.
func (c *Collection) Find(pred func(*Descriptor) bool) []*Descriptor {
	return lo.Filter(c.descs, func(d *Descriptor, _ int) bool { return pred(d) })
}

// Contains reports whether anything is registered for the service type.
func (c *Collection) Contains(t reflect.Type) bool {
	return lo.ContainsBy(c.descs, byType(t))
}

// All returns a copy of the registrations.
func (c *Collection) All() []*Descriptor {
	return slices.Clone(c.descs)
}

// Len returns the number of registrations.
func (c *Collection) Len() int { return len(c.descs) }

// Clone returns a shallow copy that can be mutated independently.
func (c *Collection) Clone() *Collection {
	return &Collection{descs: slices.Clone(c.descs)}
}

// Build freezes the registrations into a provider.
func (c *Collection) Build() *Provider {
	return newProvider(slices.Clone(c.descs))
}

func byType(t reflect.Type) func(*Descriptor) bool {
	return func(d *Descriptor) bool { return d.ServiceType == t }
}

// AddSingleton registers ctor as a singleton for S.
func AddSingleton[S any](c *Collection, ctor any) *Collection {
	return c.Add(Describe[S](Singleton, ctor))
}

// AddScoped registers ctor as a scoped service for S.
func AddScoped[S any](c *Collection, ctor any) *Collection {
	return c.Add(Describe[S](Scoped, ctor))
}

// AddTransient registers ctor as a transient service for S.
func AddTransient[S any](c *Collection, ctor any) *Collection {
	return c.Add(Describe[S](Transient, ctor))
}

// AddInstance registers v as the singleton for S.
func AddInstance[S any](c *Collection, v S) *Collection {
	return c.Add(NewInstance(TypeOf[S](), v))
}

// AddFactory registers fn for S with the given lifetime.
func AddFactory[S any](c *Collection, lt Lifetime, fn func(r Resolver) (S, error)) *Collection {
	return c.Add(NewFactory(TypeOf[S](), lt, func(r Resolver) (any, error) { return fn(r) }))
}
