package host

import (
	"context"
	"net/http"
	"slices"
	"strings"
)

// Mux is an HTTP multiplexer with buffered responses, error handling, and named routes.
type Mux struct {
	logs        Logger
	bufLimit    int
	reverser    *Reverser
	mux         *http.ServeMux
	middlewares struct {
		captured bool
		buffered []Middleware
	}
}

// NewMux creates a Mux that reports errors to logs. A negative bufLimit means
// responses are buffered without limit.
func NewMux(bufLimit int, logs Logger) *Mux {
	return &Mux{
		bufLimit: bufLimit,
		logs:     logs,
		reverser: NewReverser(),
		mux:      http.NewServeMux(),
	}
}

// Reverse returns the url based on the name and parameter values.
func (m *Mux) Reverse(name string, vals ...string) (string, error) {
	return m.reverser.Reverse(name, vals...)
}

// Use allows providing of middleware.
func (m *Mux) Use(mw ...Middleware) {
	m.ensureNoUseAfterHandle()
	m.middlewares.buffered = append(m.middlewares.buffered, mw...)
}

// HandleFunc handles the request given the pattern using a function.
func (m *Mux) HandleFunc(pattern string, handler HandlerFunc, name ...string) {
	m.Handle(pattern, handler, name...)
}

// HandleStd registers a standard library [http.Handler] for the given pattern. Middleware
// registered via [Mux.Use] is applied.
func (m *Mux) HandleStd(pattern string, handler http.Handler, name ...string) {
	m.Handle(pattern, HandlerFunc(func(_ context.Context, w ResponseWriter, r *http.Request) error {
		handler.ServeHTTP(w, r)
		return nil
	}), name...)
}

// Handle handles the request given a handler.
func (m *Mux) Handle(pattern string, handler Handler, name ...string) {
	m.middlewares.captured = true

	if len(name) > 0 {
		pattern = m.reverser.Named(name[0], pattern)
	}

	m.mux.Handle(pattern, ToStd(
		Wrap(handler, m.middlewares.buffered...),
		m.bufLimit,
		m.logs,
	))
}

// Mount serves handler for every path below the pattern's path. The handler
// sees the request path with the mount prefix removed; middleware sees the
// original path.
func (m *Mux) Mount(pattern string, handler Handler) {
	m.middlewares.captured = true

	method, prefix := splitMethodPattern(pattern)
	prefix = strings.TrimSuffix(prefix, "/")
	std := ToStd(m.wrapBare(stripPrefix(prefix, ToBare(handler))), m.bufLimit, m.logs)

	m.mux.Handle(method+prefix, std)
	m.mux.Handle(method+prefix+"/", std)
}

// MountStd is [Mux.Mount] for a standard library handler.
func (m *Mux) MountStd(pattern string, handler http.Handler) {
	m.Mount(pattern, HandlerFunc(func(_ context.Context, w ResponseWriter, r *http.Request) error {
		handler.ServeHTTP(w, r)
		return nil
	}))
}

func (m *Mux) wrapBare(h BareHandler) BareHandler {
	for _, mw := range slices.Backward(m.middlewares.buffered) {
		h = mw(h)
	}

	return h
}

func splitMethodPattern(pattern string) (method, path string) {
	if before, after, ok := strings.Cut(pattern, " "); ok {
		return before + " ", after
	}

	return "", pattern
}

func stripPrefix(prefix string, next BareHandler) BareHandler {
	return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		u := *r.URL
		u.Path = strings.TrimPrefix(u.Path, prefix)
		if u.Path == "" {
			u.Path = "/"
		}

		if u.RawPath != "" {
			u.RawPath = strings.TrimPrefix(u.RawPath, prefix)
		}

		r2 := r.Clone(r.Context())
		r2.URL = &u
		return next.ServeBare(w, r2)
	})
}

// ServeHTTP makes the mux implement the http.Handler interface.
func (m *Mux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mux.ServeHTTP(w, r)
}

func (m *Mux) ensureNoUseAfterHandle() {
	if m.middlewares.captured {
		panic("host: cannot call Use() after calling Handle")
	}
}
