package host

import (
	"context"
	"net/http"
	"time"

	"github.com/aws-observability/aws-otel-go/exporters/xrayudp"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/detectors/aws/lambda"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// closingTracerProvider shuts the sdk provider down when the container closes.
type closingTracerProvider struct {
	*sdktrace.TracerProvider
}

func (p closingTracerProvider) Close() error {
	return p.Shutdown(context.Background())
}

const tracingInitTimeout = 5 * time.Second

// NewTracerProvider creates the TracerProvider for the exporter in APP_OTEL_EXPORTER:
// "none" (default), "stdout" or "xrayudp". The last one expects to run on Lambda.
func NewTracerProvider(env Environment) (trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), tracingInitTimeout)
	defer cancel()

	var (
		exp  sdktrace.SpanExporter
		res  *resource.Resource
		opts []sdktrace.TracerProviderOption
		err  error
	)

	switch env.OtelExporter {
	case "none", "":
		return noop.NewTracerProvider(), nil
	case "stdout":
		if exp, err = stdouttrace.New(stdouttrace.WithPrettyPrint()); err != nil {
			return nil, errors.Wrap(err, "failed to create stdout exporter")
		}

		res = resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(env.ServiceName))
	case "xrayudp":
		if exp, err = xrayudp.NewSpanExporter(ctx); err != nil {
			return nil, errors.Wrap(err, "failed to create xray exporter")
		}

		if res, err = lambdaResource(ctx, env.LogGroups); err != nil {
			return nil, err
		}

		opts = append(opts, sdktrace.WithIDGenerator(xray.NewIDGenerator()))
	default:
		return nil, errors.Errorf("unsupported APP_OTEL_EXPORTER: %q (supported: none, stdout, xrayudp)", env.OtelExporter)
	}

	return closingTracerProvider{sdktrace.NewTracerProvider(append(opts,
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exp)),
		sdktrace.WithResource(res),
	)...)}, nil
}

// lambdaResource describes the Lambda function, with the log groups to
// correlate traces with.
func lambdaResource(ctx context.Context, logGroups []string) (*resource.Resource, error) {
	base, err := lambda.NewResourceDetector().Detect(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to detect lambda resource")
	}

	return withLogGroups(base, logGroups...)
}

// withLogGroups adds the non-empty log groups to aws.log.group.names.
func withLogGroups(base *resource.Resource, logGroups ...string) (*resource.Resource, error) {
	logGroups = lo.Compact(logGroups)
	if len(logGroups) == 0 {
		return base, nil
	}

	return resource.Merge(base, resource.NewSchemaless(attribute.StringSlice("aws.log.group.names", logGroups)))
}

// NewPropagator creates the X-Ray propagator for the xrayudp exporter and the
// W3C TraceContext + Baggage composite otherwise.
func NewPropagator(env Environment) propagation.TextMapPropagator {
	if env.OtelExporter == "xrayudp" {
		return xray.Propagator{}
	}

	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// NewHTTPTransport creates an HTTP RoundTripper instrumented with OpenTelemetry tracing.
func NewHTTPTransport(base http.RoundTripper, tp trace.TracerProvider, prop propagation.TextMapPropagator) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	return otelhttp.NewTransport(base,
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithPropagators(prop),
	)
}

// withTracing wraps the handler with otelhttp for automatic span creation.
func withTracing(tp trace.TracerProvider, prop propagation.TextMapPropagator, serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithPropagators(prop),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}
}
