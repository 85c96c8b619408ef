package auth

import (
	"reflect"
	"slices"
	"sync"

	"github.com/advdv/sutest/di"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

var (
	// ErrUnknownScheme is returned for a scheme name that was never added.
	ErrUnknownScheme = errors.New("unknown authentication scheme")
	// ErrNoDefaultScheme is returned when a scheme is needed but none was named
	// and no default is configured.
	ErrNoDefaultScheme = errors.New("no default authentication scheme")
	// ErrNotFakeable is returned when a scheme's handler was added without an
	// options type, so no fake handler can stand in for it.
	ErrNotFakeable = errors.New("authentication handler has no options type")
)

// Scheme names a handler type. OptionsType is nil for handlers added through
// [AddHandler].
type Scheme struct {
	Name        string
	HandlerType reflect.Type
	OptionsType reflect.Type
}

// Options holds the configured schemes. It is registered as an instance so
// test code can inspect and rewrite it before the container is built.
type Options struct {
	DefaultScheme string

	mu      sync.Mutex
	schemes []Scheme
	fakes   map[reflect.Type]func() Faker
}

// NewOptions inits empty options.
func NewOptions() *Options {
	return &Options{fakes: map[reflect.Type]func() Faker{}}
}

// Schemes returns the schemes in the order they were added.
func (o *Options) Schemes() []Scheme {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.schemes)
}

// Scheme returns the scheme called name.
func (o *Options) Scheme(name string) (Scheme, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := lo.Find(o.schemes, func(s Scheme) bool { return s.Name == name })
	if !ok {
		return Scheme{}, errors.Wrapf(ErrUnknownScheme, "%q", name)
	}

	return s, nil
}

// SchemeOrDefault returns the named scheme, or the default scheme when name is empty.
func (o *Options) SchemeOrDefault(name string) (Scheme, error) {
	if name == "" {
		if name = o.DefaultScheme; name == "" {
			return Scheme{}, ErrNoDefaultScheme
		}
	}

	return o.Scheme(name)
}

// AddScheme adds s. It panics when a scheme with the same name exists.
func (o *Options) AddScheme(s Scheme) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if slices.ContainsFunc(o.schemes, func(e Scheme) bool { return e.Name == s.Name }) {
		panic("auth: scheme already added: " + s.Name)
	}

	o.schemes = append(o.schemes, s)
}

// SetHandlerType points the scheme at another handler type.
func (o *Options) SetHandlerType(name string, t reflect.Type) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	idx := slices.IndexFunc(o.schemes, func(s Scheme) bool { return s.Name == name })
	if idx < 0 {
		return errors.Wrapf(ErrUnknownScheme, "%q", name)
	}

	o.schemes[idx].HandlerType = t
	return nil
}

// UsesHandlerType reports whether any scheme is served by handler type t.
func (o *Options) UsesHandlerType(t reflect.Type) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.ContainsFunc(o.schemes, func(s Scheme) bool { return s.HandlerType == t })
}

// NewFake creates a fake handler standing in for the handlers of s.
func (o *Options) NewFake(s Scheme) (Faker, error) {
	if s.OptionsType == nil {
		return nil, errors.Wrapf(ErrNotFakeable, "scheme %q (%s)", s.Name, s.HandlerType)
	}

	o.mu.Lock()
	mk, ok := o.fakes[s.OptionsType]
	o.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotFakeable, "no fake for options %s", s.OptionsType)
	}

	return mk(), nil
}

func (o *Options) addFake(t reflect.Type, mk func() Faker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fakes[t] = mk
}

// Handler resolves the handler of the named scheme (or the default scheme).
func (o *Options) Handler(r di.Resolver, name string) (Handler, Scheme, error) {
	s, err := o.SchemeOrDefault(name)
	if err != nil {
		return nil, Scheme{}, err
	}

	v, err := r.Resolve(s.HandlerType)
	if err != nil {
		return nil, s, errors.Wrapf(err, "failed to resolve handler for scheme %q", s.Name)
	}

	h, ok := v.(Handler)
	if !ok {
		return nil, s, errors.Errorf("%T for scheme %q is not an auth.Handler", v, s.Name)
	}

	return h, s, nil
}

// Builder adds schemes to an authentication setup.
type Builder struct {
	c    *di.Collection
	opts *Options
}

// AddAuthentication registers the [Options] instance, or reuses the one that is
// already registered, and sets the default scheme when defaultScheme is not empty.
func AddAuthentication(c *di.Collection, defaultScheme string) *Builder {
	opts, ok := FindOptions(c)
	if !ok {
		opts = NewOptions()
		di.AddInstance(c, opts)
	}

	if defaultScheme != "" {
		opts.DefaultScheme = defaultScheme
	}

	return &Builder{c: c, opts: opts}
}

// FindOptions returns the [Options] instance registered in c.
func FindOptions(c *di.Collection) (*Options, bool) {
	d, ok := c.FindLast(di.TypeOf[*Options]())
	if !ok {
		return nil, false
	}

	opts, ok := d.Instance.(*Options)
	return opts, ok
}

// Options returns the options the builder adds to.
func (b *Builder) Options() *Options { return b.opts }

// Collection returns the service collection the builder registers handlers in.
func (b *Builder) Collection() *di.Collection { return b.c }

// AddScheme adds a scheme served by handler H that reads its settings from the
// named options of type O. The handler is registered as a scoped service built
// by ctor. The options type makes the scheme replaceable by a [FakeHandler].
func AddScheme[O any, H Handler](b *Builder, name string, ctor any, configure func(*O)) *Builder {
	b.opts.AddScheme(Scheme{Name: name, HandlerType: di.TypeOf[H](), OptionsType: di.TypeOf[O]()})
	b.opts.addFake(di.TypeOf[O](), func() Faker { return NewFakeHandler[O]() })

	b.c.TryAdd(di.Describe[H](di.Scoped, ctor))
	di.AddOptions[O](b.c)
	if configure != nil {
		di.ConfigureNamed(b.c, name, configure)
	}

	return b
}

// AddHandler adds a scheme served by handler H without an options type.
func AddHandler[H Handler](b *Builder, name string, ctor any) *Builder {
	b.opts.AddScheme(Scheme{Name: name, HandlerType: di.TypeOf[H]()})
	b.c.TryAdd(di.Describe[H](di.Scoped, ctor))
	return b
}
