package di

import (
	"io"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

var (
	// ErrNotRegistered is returned when no registration exists for a requested type.
	ErrNotRegistered = errors.New("service not registered")
	// ErrCircularDependency is returned when a service (indirectly) depends on itself.
	ErrCircularDependency = errors.New("circular dependency")
	// ErrClosed is returned when resolving from a closed scope.
	ErrClosed = errors.New("scope is closed")
)

// Resolver resolves services by type. Constructors that take a Resolver
// parameter receive the scope they are being constructed in.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
	ResolveAll(t reflect.Type) ([]any, error)
}

var resolverType = reflect.TypeFor[Resolver]()

type slot struct {
	once sync.Once
	val  any
	err  error
}

// Provider resolves services from a frozen set of registrations. Singletons
// are shared by all scopes. The provider itself behaves as the root scope.
type Provider struct {
	descs      []*Descriptor
	byType     map[reflect.Type][]int
	singletons []slot
	root       *Scope
}

func newProvider(descs []*Descriptor) *Provider {
	p := &Provider{
		descs:      descs,
		byType:     make(map[reflect.Type][]int, len(descs)),
		singletons: make([]slot, len(descs)),
	}

	for i, d := range descs {
		p.byType[d.ServiceType] = append(p.byType[d.ServiceType], i)
	}

	p.root = p.CreateScope()
	return p
}

// Descriptors returns the registrations the provider was built from.
func (p *Provider) Descriptors() []*Descriptor { return slices.Clone(p.descs) }

// Contains reports whether the type is registered.
func (p *Provider) Contains(t reflect.Type) bool { return len(p.byType[t]) > 0 }

// CreateScope starts a new scope. The caller must close it.
func (p *Provider) CreateScope() *Scope {
	return &Scope{p: p, scoped: map[int]*slot{}}
}

// Resolve resolves from the root scope.
func (p *Provider) Resolve(t reflect.Type) (any, error) { return p.root.Resolve(t) }

// ResolveAll resolves every registration of t from the root scope.
func (p *Provider) ResolveAll(t reflect.Type) ([]any, error) { return p.root.ResolveAll(t) }

// Close closes the root scope, which owns every constructed singleton.
func (p *Provider) Close() error { return p.root.Close() }

// Scope caches scoped services and owns the closers of what it constructed.
type Scope struct {
	p       *Provider
	mu      sync.Mutex
	scoped  map[int]*slot
	closers []io.Closer
	closed  bool
}

// Resolve resolves the last registration of t.
func (s *Scope) Resolve(t reflect.Type) (any, error) { return s.resolve(t, nil) }

// ResolveAll resolves every registration of t in registration order.
func (s *Scope) ResolveAll(t reflect.Type) ([]any, error) { return s.resolveAll(t, nil) }

// Close closes everything the scope constructed, in reverse order. It is safe
// to call more than once.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for _, c := range slices.Backward(closers) {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Scope) resolve(t reflect.Type, chain []reflect.Type) (any, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	idxs := s.p.byType[t]
	if len(idxs) == 0 {
		if t.Kind() == reflect.Slice && s.p.Contains(t.Elem()) {
			return s.resolveSlice(t, chain)
		}

		return nil, errors.Wrapf(ErrNotRegistered, "resolve %s%s", t, describeChain(chain))
	}

	return s.resolveIndex(idxs[len(idxs)-1], chain)
}

func (s *Scope) resolveAll(t reflect.Type, chain []reflect.Type) ([]any, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	idxs := s.p.byType[t]
	vals := make([]any, 0, len(idxs))
	for _, i := range idxs {
		v, err := s.resolveIndex(i, chain)
		if err != nil {
			return nil, err
		}

		vals = append(vals, v)
	}

	return vals, nil
}

func (s *Scope) resolveSlice(t reflect.Type, chain []reflect.Type) (any, error) {
	vals, err := s.resolveAll(t.Elem(), chain)
	if err != nil {
		return nil, err
	}

	out := reflect.MakeSlice(t, 0, len(vals))
	for _, v := range vals {
		out = reflect.Append(out, valueOf(v, t.Elem()))
	}

	return out.Interface(), nil
}

func (s *Scope) resolveIndex(i int, chain []reflect.Type) (any, error) {
	d := s.p.descs[i]
	if d.Instance != nil {
		return d.Instance, nil
	}

	if slices.Contains(chain, d.ServiceType) {
		return nil, errors.Wrapf(ErrCircularDependency, "resolve %s%s", d.ServiceType, describeChain(chain))
	}

	chain = append(slices.Clip(chain), d.ServiceType)

	switch d.Lifetime {
	case Singleton:
		sl := &s.p.singletons[i]
		sl.once.Do(func() { sl.val, sl.err = s.p.root.construct(d, chain) })
		return sl.val, sl.err
	case Scoped:
		sl := s.scopedSlot(i)
		sl.once.Do(func() { sl.val, sl.err = s.construct(d, chain) })
		return sl.val, sl.err
	default:
		return s.construct(d, chain)
	}
}

func (s *Scope) scopedSlot(i int) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.scoped[i]
	if !ok {
		sl = &slot{}
		s.scoped[i] = sl
	}

	return sl
}

func (s *Scope) construct(d *Descriptor, chain []reflect.Type) (v any, err error) {
	r := resolution{s: s, chain: chain}
	if d.Factory != nil {
		v, err = d.Factory(r)
	} else {
		v, err = r.invoke(d.Constructor)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "construct %s", d.ServiceType)
	}

	if c, ok := v.(io.Closer); ok {
		s.mu.Lock()
		s.closers = append(s.closers, c)
		s.mu.Unlock()
	}

	return v, nil
}

func (s *Scope) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// resolution is the Resolver handed to constructors and factories. It carries
// the chain of types being constructed to detect cycles.
type resolution struct {
	s     *Scope
	chain []reflect.Type
}

func (r resolution) Resolve(t reflect.Type) (any, error) { return r.s.resolve(t, r.chain) }

func (r resolution) ResolveAll(t reflect.Type) ([]any, error) { return r.s.resolveAll(t, r.chain) }

func (r resolution) invoke(ctor any) (any, error) {
	fv := reflect.ValueOf(ctor)
	ft := fv.Type()

	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		pt := ft.In(i)
		if pt == resolverType {
			var res Resolver = r
			args[i] = reflect.ValueOf(&res).Elem()
			continue
		}

		v, err := r.Resolve(pt)
		if err != nil {
			return nil, err
		}

		args[i] = valueOf(v, pt)
	}

	out := fv.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error) //nolint:forcetypeassert
	}

	return out[0].Interface(), nil
}

// valueOf converts v into a reflect value of type t, which matters when t is
// an interface type.
func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}

	nv := reflect.New(t).Elem()
	nv.Set(reflect.ValueOf(v))
	return nv
}

func describeChain(chain []reflect.Type) string {
	if len(chain) == 0 {
		return ""
	}

	return " (via " + strings.Join(lo.Map(chain, func(t reflect.Type, _ int) string { return t.String() }), " -> ") + ")"
}

// Resolve resolves T from r.
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	v, err := r.Resolve(TypeOf[T]())
	if err != nil || v == nil {
		return zero, err
	}

	t, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("resolved %T is not a %s", v, TypeOf[T]())
	}

	return t, nil
}

// MustResolve resolves T from r and panics on failure.
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic("di: " + err.Error())
	}

	return v
}

// ResolveAll resolves every registration of T from r.
func ResolveAll[T any](r Resolver) ([]T, error) {
	vals, err := r.ResolveAll(TypeOf[T]())
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(vals))
	for _, v := range vals {
		t, ok := v.(T)
		if !ok {
			return nil, errors.Errorf("resolved %T is not a %s", v, TypeOf[T]())
		}

		out = append(out, t)
	}

	return out, nil
}

var (
	_ Resolver = &Provider{}
	_ Resolver = &Scope{}
)
