package host

import (
	"context"
	"net/http"

	"github.com/advdv/sutest/di"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ctxKey is the key type for context values.
type ctxKey int

const (
	ctxKeyRequestServices ctxKey = iota
)

// withRequestScope gives every request its own DI scope, closed when the request is done.
func withRequestScope(p *di.Provider, logs *zap.Logger) Middleware {
	return func(next BareHandler) BareHandler {
		return BareHandlerFunc(func(w ResponseWriter, r *http.Request) error {
			scope := p.CreateScope()
			defer func() {
				if err := scope.Close(); err != nil {
					logs.Error("failed to close request scope", zap.Error(err))
				}
			}()

			ctx := context.WithValue(r.Context(), ctxKeyRequestServices, scope)
			return next.ServeBare(w, r.WithContext(ctx))
		})
	}
}

// RequestServices returns the DI scope of the current request.
func RequestServices(ctx context.Context) di.Resolver {
	s, ok := ctx.Value(ctxKeyRequestServices).(*di.Scope)
	if !ok {
		panic("host: request services not found in context; is the request served by a host?")
	}

	return s
}

// Log returns a trace-correlated zap logger from the request services.
func Log(ctx context.Context) *zap.Logger {
	return di.MustResolve[*zap.Logger](RequestServices(ctx)).With(traceFields(ctx)...)
}

// traceFields extracts trace_id and span_id from the context for log correlation.
func traceFields(ctx context.Context) []zap.Field {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return nil
	}

	sc := span.SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
