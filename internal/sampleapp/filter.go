package sampleapp

import (
	"net/http"

	"github.com/advdv/sutest/host"
	"github.com/google/uuid"
)

// RequestIDHeader carries the id of a request.
const RequestIDHeader = "X-Request-Id"

// RequestIDFilter adds middleware that echoes the request id, or assigns one.
type RequestIDFilter struct{}

// NewRequestIDFilter inits the filter.
func NewRequestIDFilter() RequestIDFilter { return RequestIDFilter{} }

// Configure implements [host.StartupFilter].
func (RequestIDFilter) Configure(next host.ConfigureFunc) host.ConfigureFunc {
	return func(app *host.AppBuilder) error {
		app.Use(func(h host.BareHandler) host.BareHandler {
			return host.BareHandlerFunc(func(w host.ResponseWriter, r *http.Request) error {
				id := r.Header.Get(RequestIDHeader)
				if id == "" {
					id = uuid.NewString()
				}

				w.Header().Set(RequestIDHeader, id)
				return h.ServeBare(w, r)
			})
		})

		return next(app)
	}
}
