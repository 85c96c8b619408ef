package sampleapp

import (
	"crypto/subtle"
	"net/http"

	"github.com/advdv/sutest/auth"
	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
)

// APIKeyScheme authenticates partners by a shared key.
const APIKeyScheme = "ApiKey"

// APIKeyOptions configures an API key scheme. Secret is a [SecretRef] in its
// "id#field" form.
type APIKeyOptions struct {
	Secret string `validate:"required"`
	Header string `default:"X-Api-Key"`
}

// APIKeyHandler compares a request header with a stored key.
type APIKeyHandler struct {
	auth.BaseHandler
	opts    *di.Options[APIKeyOptions]
	secrets SecretReader
}

// NewAPIKeyHandler inits the handler.
func NewAPIKeyHandler(opts *di.Options[APIKeyOptions], secrets SecretReader) *APIKeyHandler {
	return &APIKeyHandler{opts: opts, secrets: secrets}
}

// AddAPIKey adds an API key scheme called name, bound to the configuration
// section at key.
func AddAPIKey(b *auth.Builder, name, key string) {
	auth.AddScheme[APIKeyOptions, *APIKeyHandler](b, name, NewAPIKeyHandler, nil)
	host.BindNamedOptions[APIKeyOptions](b.Collection(), name, key)
	di.ValidateStruct[APIKeyOptions](b.Collection())
}

// Authenticate implements [auth.Handler].
func (h *APIKeyHandler) Authenticate(r *http.Request, scheme string) auth.Result {
	opts, err := h.opts.Get(scheme)
	if err != nil {
		return auth.FailErr(err)
	}

	given := r.Header.Get(opts.Header)
	if given == "" {
		return auth.NoResult()
	}

	ref, err := ParseSecretRef(opts.Secret)
	if err != nil {
		return auth.FailErr(err)
	}

	want, err := ref.Read(r.Context(), h.secrets)
	if err != nil {
		return auth.FailErr(err)
	}

	if subtle.ConstantTimeCompare([]byte(given), []byte(want)) != 1 {
		return auth.Fail("invalid api key")
	}

	return auth.MustSuccess(auth.NewPrincipal(auth.NewIdentity(scheme, "partner",
		auth.Claim{Type: "role", Value: "partner"})), scheme)
}
