package auth

import (
	"net/http"
)

// Handler authenticates requests for one or more schemes.
type Handler interface {
	// Authenticate checks the request's credentials for the scheme.
	Authenticate(r *http.Request, scheme string) Result
	// Challenge responds to a request that could not be authenticated.
	Challenge(w http.ResponseWriter, r *http.Request, scheme string) error
	// Forbid responds to an authenticated request that is not allowed.
	Forbid(w http.ResponseWriter, r *http.Request, scheme string) error
}

// BaseHandler provides the default challenge and forbid responses. Embed it in
// handlers that only need to implement Authenticate.
type BaseHandler struct{}

// Challenge responds with 401 and a WWW-Authenticate header naming the scheme.
func (BaseHandler) Challenge(w http.ResponseWriter, _ *http.Request, scheme string) error {
	w.Header().Set("WWW-Authenticate", scheme)
	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	return nil
}

// Forbid responds with 403.
func (BaseHandler) Forbid(w http.ResponseWriter, _ *http.Request, _ string) error {
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	return nil
}
