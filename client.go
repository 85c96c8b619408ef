package sutest

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"
)

// ClientOptions configures clients created by [SUT.CreateClient].
type ClientOptions struct {
	// BaseURL resolves relative request URLs. It defaults to the server's URL.
	BaseURL string
	// AllowAutoRedirect follows redirect responses.
	AllowAutoRedirect bool
	// MaxAutomaticRedirections caps the redirects followed per request.
	MaxAutomaticRedirections int
	// HandleCookies keeps cookies between requests.
	HandleCookies bool
}

// DefaultClientOptions follows up to 7 redirects and keeps cookies.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{AllowAutoRedirect: true, MaxAutomaticRedirections: 7, HandleCookies: true}
}

// CreateClient builds the host if needed and returns a client for it. Requests
// with a relative URL are sent to the base URL.
func (s *SUT) CreateClient(opts ...func(o *ClientOptions)) (*http.Client, error) {
	o := DefaultClientOptions()
	for _, fn := range opts {
		fn(&o)
	}

	return s.newClient(o, nil)
}

// CreateDefaultClient is like [SUT.CreateClient] with the default options. The
// wrappers decorate the transport; the first one sees the request first.
func (s *SUT) CreateDefaultClient(wrappers ...func(next http.RoundTripper) http.RoundTripper) (*http.Client, error) {
	return s.newClient(DefaultClientOptions(), wrappers)
}

// CreateDefaultClientWithBaseURL is like [SUT.CreateDefaultClient] with another
// base URL.
func (s *SUT) CreateDefaultClientWithBaseURL(baseURL string, wrappers ...func(next http.RoundTripper) http.RoundTripper) (*http.Client, error) {
	o := DefaultClientOptions()
	o.BaseURL = baseURL
	return s.newClient(o, wrappers)
}

func (s *SUT) newClient(o ClientOptions, wrappers []func(http.RoundTripper) http.RoundTripper) (*http.Client, error) {
	if err := s.Build(); err != nil {
		return nil, err
	}

	if o.BaseURL == "" {
		o.BaseURL = s.host.URL()
	}

	base, err := url.Parse(o.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "sutest: invalid base url %q", o.BaseURL)
	}

	tp, err := di.Resolve[trace.TracerProvider](s.host.Services())
	if err != nil {
		return nil, err
	}

	prop, err := di.Resolve[propagation.TextMapPropagator](s.host.Services())
	if err != nil {
		return nil, err
	}

	var rt http.RoundTripper = host.NewHTTPTransport(s.host.Client().Transport, tp, prop)
	for i := len(wrappers) - 1; i >= 0; i-- {
		rt = wrappers[i](rt)
	}

	client := &http.Client{Transport: baseURLTransport{base: base, next: rt}}
	client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if !o.AllowAutoRedirect {
			return http.ErrUseLastResponse
		}

		if len(via) >= o.MaxAutomaticRedirections {
			return errors.Newf("sutest: stopped after %d redirects", len(via))
		}

		return nil
	}

	if o.HandleCookies {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrap(err, "sutest: failed to create cookie jar")
		}

		client.Jar = baseURLJar{base: base, jar: jar}
	}

	return client, nil
}

// baseURLTransport resolves relative request URLs against base.
type baseURLTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t baseURLTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.IsAbs() {
		return t.next.RoundTrip(req)
	}

	r2 := req.Clone(req.Context())
	r2.URL = t.base.ResolveReference(req.URL)
	r2.Host = r2.URL.Host
	return t.next.RoundTrip(r2)
}

// baseURLJar stores cookies of relative request URLs under base.
type baseURLJar struct {
	base *url.URL
	jar  http.CookieJar
}

func (j baseURLJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(j.base.ResolveReference(u), cookies)
}

func (j baseURLJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(j.base.ResolveReference(u))
}

// Resource returns a request builder for the path on the host, sent through a
// default client. Failing to build the host fails the test.
func (s *SUT) Resource(path string) *requests.Builder {
	client, err := s.CreateDefaultClient()
	require.NoError(s.tb, err)

	return requests.URL(s.host.URL()).Path(path).Client(client)
}

// URL returns the URL of the running host.
func (s *SUT) URL() string {
	s.EnsureBuilt("URL")
	if s.host == nil {
		return ""
	}

	return s.host.URL()
}
