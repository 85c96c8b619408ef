package auth

import "github.com/cockroachdb/errors"

// ErrNotAuthenticated is returned when a successful result is created for a
// principal without an authenticated identity.
var ErrNotAuthenticated = errors.New("principal is not authenticated")

type outcome int

const (
	outcomeNone outcome = iota
	outcomeFailure
	outcomeSuccess
)

// Result is the outcome of authenticating a request. The zero value is
// [NoResult].
type Result struct {
	outcome   outcome
	failure   error
	principal *Principal
	scheme    string
}

// NoResult means the handler found no credentials to check.
func NoResult() Result { return Result{} }

// Fail means credentials were present but invalid.
func Fail(msg string) Result {
	return Result{outcome: outcomeFailure, failure: errors.New(msg)}
}

// FailErr is like [Fail] but keeps the underlying error.
func FailErr(err error) Result {
	return Result{outcome: outcomeFailure, failure: err}
}

// Success means the request runs as p. It fails when p has no authenticated
// identity.
func Success(p *Principal, scheme string) (Result, error) {
	if !p.IsAuthenticated() {
		return Result{}, errors.Wrapf(ErrNotAuthenticated, "success result for scheme %q", scheme)
	}

	return Result{outcome: outcomeSuccess, principal: p, scheme: scheme}, nil
}

// MustSuccess is like [Success] but panics on an unauthenticated principal.
func MustSuccess(p *Principal, scheme string) Result {
	res, err := Success(p, scheme)
	if err != nil {
		panic("auth: " + err.Error())
	}

	return res
}

// None reports whether no credentials were found.
func (r Result) None() bool { return r.outcome == outcomeNone }

// Succeeded reports whether the request was authenticated.
func (r Result) Succeeded() bool { return r.outcome == outcomeSuccess }

// Failure returns the failure, or nil when the result did not fail.
func (r Result) Failure() error { return r.failure }

// Principal returns the authenticated principal of a successful result.
func (r Result) Principal() *Principal { return r.principal }

// Scheme returns the scheme that produced a successful result.
func (r Result) Scheme() string { return r.scheme }

func (r Result) String() string {
	switch r.outcome {
	case outcomeFailure:
		return "failure: " + r.failure.Error()
	case outcomeSuccess:
		return "success: " + r.principal.Identity().Name
	default:
		return "no result"
	}
}
