package sampleapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/advdv/sutest/auth"
	"github.com/advdv/sutest/cache"
	"github.com/advdv/sutest/di"
	"github.com/advdv/sutest/host"
	"github.com/cockroachdb/errors"
)

// CacheSliding is how long cached values live without being read.
const CacheSliding = 5 * time.Minute

func routes(mux *host.Mux, env host.Environment) {
	mux.HandleFunc("GET /greeting", greet)
	mux.HandleFunc("GET /environment", func(_ context.Context, w host.ResponseWriter, _ *http.Request) error {
		_, err := io.WriteString(w, env.Name)
		return err
	})

	mux.Handle("GET /me", auth.Authorize(host.HandlerFunc(whoami)))
	mux.Handle("GET /admin", auth.RequireAuthorization(host.HandlerFunc(noContent), auth.Policy{
		Claims: []auth.Claim{{Type: "role", Value: "admin"}},
	}))
	mux.Handle("GET /partner", auth.Authorize(host.HandlerFunc(noContent), APIKeyScheme))

	mux.Mount("/items", host.HandlerFunc(items))

	mux.HandleFunc("GET /cache/{key}", getCached)
	mux.HandleFunc("PUT /cache/{key}", putCached)
}

func noContent(_ context.Context, w host.ResponseWriter, _ *http.Request) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func greet(ctx context.Context, w host.ResponseWriter, r *http.Request) error {
	g, err := di.Resolve[Greeter](host.RequestServices(ctx))
	if err != nil {
		return err
	}

	msg, err := g.Greet(ctx, r.URL.Query().Get("name"))
	if errors.Is(err, ErrNameTooLong) {
		return host.NewError(host.CodeBadRequest, err)
	} else if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func whoami(ctx context.Context, w host.ResponseWriter, _ *http.Request) error {
	p, _ := auth.PrincipalFrom(ctx)
	id := p.Identity()

	return writeJSON(w, http.StatusOK, map[string]string{
		"name":   id.Name,
		"scheme": id.AuthenticationType,
	})
}

// items serves the collection below its mount point.
func items(ctx context.Context, w host.ResponseWriter, r *http.Request) error {
	store, err := di.Resolve[ItemStore](host.RequestServices(ctx))
	if err != nil {
		return err
	}

	switch {
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		list, err := store.List(ctx)
		if err != nil {
			return err
		}

		return writeJSON(w, http.StatusOK, list)
	case r.URL.Path == "/" && r.Method == http.MethodPost:
		var in struct {
			Name string `json:"name"`
		}

		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
			return host.NewError(host.CodeBadRequest, errors.New("a name is required"))
		}

		it, err := store.Add(ctx, in.Name)
		if err != nil {
			return err
		}

		events, err := di.Resolve[ItemEvents](host.RequestServices(ctx))
		if err != nil {
			return err
		} else if err := events.ItemAdded(ctx, it); err != nil {
			return err
		}

		return writeJSON(w, http.StatusCreated, it)
	case r.URL.Path == "/count" && r.Method == http.MethodGet:
		n, err := store.Count(ctx)
		if err != nil {
			return err
		}

		return writeJSON(w, http.StatusOK, map[string]int{"count": n})
	default:
		return host.NewError(host.CodeNotFound, errors.Newf("no route for %s %s", r.Method, r.URL.Path))
	}
}

func getCached(ctx context.Context, w host.ResponseWriter, r *http.Request) error {
	c, err := di.Resolve[cache.Distributed](host.RequestServices(ctx))
	if err != nil {
		return err
	}

	val, ok, err := c.Get(ctx, r.PathValue("key"))
	if err != nil {
		return err
	} else if !ok {
		return host.NewError(host.CodeNotFound, errors.Newf("%q is not cached", r.PathValue("key")))
	}

	_, err = w.Write(val)
	return err
}

func putCached(ctx context.Context, w host.ResponseWriter, r *http.Request) error {
	c, err := di.Resolve[cache.Distributed](host.RequestServices(ctx))
	if err != nil {
		return err
	}

	val, err := io.ReadAll(r.Body)
	if err != nil {
		return host.NewError(host.CodeBadRequest, err)
	}

	if err := c.Set(ctx, r.PathValue("key"), val, cache.EntryOptions{SlidingExpiration: CacheSliding}); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func writeJSON(w host.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
