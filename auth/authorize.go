package auth

import (
	"context"
	"net/http"

	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"go.uber.org/zap"
)

type ctxKey int

const ctxKeyPrincipal ctxKey = iota

// WithPrincipal returns a context that carries p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFrom returns the principal an authorized request runs as.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(*Principal)
	return p, ok
}

// Policy describes what a request needs to be authorized.
type Policy struct {
	// Schemes are tried in order. The default scheme is used when empty.
	Schemes []string
	// Claims must all be present on the principal. An empty value matches any
	// claim of the type.
	Claims []Claim
}

// Authorize requires the request to authenticate with one of the schemes.
func Authorize(next host.Handler, schemes ...string) host.Handler {
	return RequireAuthorization(next, Policy{Schemes: schemes})
}

// RequireAuthorization serves next only for requests that satisfy the policy.
// Unauthenticated requests are challenged by the first scheme's handler,
// authenticated requests without the required claims are forbidden.
func RequireAuthorization(next host.Handler, pol Policy) host.Handler {
	schemes := pol.Schemes
	if len(schemes) == 0 {
		schemes = []string{""}
	}

	return host.HandlerFunc(func(ctx context.Context, w host.ResponseWriter, r *http.Request) error {
		rs := host.RequestServices(ctx)
		opts, err := di.Resolve[*Options](rs)
		if err != nil {
			return err
		}

		var (
			challenger Handler
			challenge  string
			success    Result
			winner     Handler
		)

		for _, name := range schemes {
			h, s, err := opts.Handler(rs, name)
			if err != nil {
				return err
			}

			if challenger == nil {
				challenger, challenge = h, s.Name
			}

			res := h.Authenticate(r, s.Name)
			if res.Succeeded() {
				success, winner = res, h
				break
			}

			if res.Failure() != nil {
				host.Log(ctx).Debug("authentication failed",
					zap.String("scheme", s.Name), zap.Error(res.Failure()))
			}
		}

		if !success.Succeeded() {
			return challenger.Challenge(w, r, challenge)
		}

		p := success.Principal()
		for _, c := range pol.Claims {
			if !p.HasClaim(c.Type, c.Value) {
				return winner.Forbid(w, r, success.Scheme())
			}
		}

		return next.ServeHost(WithPrincipal(ctx, p), w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}
