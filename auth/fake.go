package auth

import (
	"net/http"
	"sync"
)

// Faker is a handler that returns scripted results.
type Faker interface {
	Handler
	SetResult(scheme string, res Result)
	Result(scheme string) Result
}

// FakeHandler returns a scripted result per scheme for every scheme whose
// settings are of type O. Schemes without a scripted result get [NoResult].
type FakeHandler[O any] struct {
	BaseHandler

	mu      sync.RWMutex
	results map[string]Result
}

// NewFakeHandler inits a fake without results.
func NewFakeHandler[O any]() *FakeHandler[O] {
	return &FakeHandler[O]{results: map[string]Result{}}
}

// Authenticate returns the result scripted for the scheme. A success without a
// scheme is attributed to the scheme being authenticated.
func (h *FakeHandler[O]) Authenticate(_ *http.Request, scheme string) Result {
	res := h.Result(scheme)
	if res.Succeeded() && res.scheme == "" {
		res.scheme = scheme
	}

	return res
}

// SetResult scripts the result for the scheme.
func (h *FakeHandler[O]) SetResult(scheme string, res Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results[scheme] = res
}

// Result returns the result scripted for the scheme.
func (h *FakeHandler[O]) Result(scheme string) Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.results[scheme]
}

var _ Faker = &FakeHandler[struct{}]{}
