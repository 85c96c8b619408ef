package host

import (
	"context"
	"net/http"
)

// ResponseWriter implements the http.ResponseWriter but the underlying bytes are buffered. This allows
// middleware to reset the writer and formulate a completely new response.
type ResponseWriter interface {
	http.ResponseWriter
	Reset()
	FlushBuffer() error
}

// Handler mirrors http.Handler but it takes a context and may return an error.
type Handler interface {
	ServeHost(ctx context.Context, w ResponseWriter, r *http.Request) error
}

// HandlerFunc allow casting a function to implement [Handler].
type HandlerFunc func(context.Context, ResponseWriter, *http.Request) error

// ServeHost implements the [Handler] interface.
func (f HandlerFunc) ServeHost(ctx context.Context, w ResponseWriter, r *http.Request) error {
	return f(ctx, w, r)
}

// BareHandler describes how middleware serves HTTP requests.
type BareHandler interface {
	ServeBare(w ResponseWriter, r *http.Request) error
}

// BareHandlerFunc allow casting a function to an implementation of [BareHandler].
type BareHandlerFunc func(ResponseWriter, *http.Request) error

// ServeBare implements the [BareHandler] interface.
func (f BareHandlerFunc) ServeBare(w ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// ToBare converts a handler into a bare handler that passes the request context.
func ToBare(h Handler) BareHandler {
	return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
		return h.ServeHost(r.Context(), w, r)
	})
}

// ToStd converts a bare handler into a standard library http.Handler. The implementation
// creates a buffered response writer and flushes it implicitly after serving the request.
// Errors that carry a [Code] are rendered with that status, anything else becomes a 500.
func ToStd(h BareHandler, bufLimit int, logs Logger) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		bresp := NewResponseWriter(resp, bufLimit)

		if err := h.ServeBare(bresp, req); err != nil {
			bresp.Reset()

			code := CodeOf(err)
			if code == CodeUnknown {
				logs.LogUnhandledServeError(err)
				code = CodeInternalServerError
			}

			http.Error(bresp, http.StatusText(int(code)), int(code))
		}

		if err := bresp.FlushBuffer(); err != nil {
			logs.LogImplicitFlushError(err)
		}
	})
}
