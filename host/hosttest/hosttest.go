// Package hosttest provides test helpers for host applications.
//
// Example:
//
//	hosttest.SetBaseEnv(t).LogLevel("debug")
//	h := hosttest.Start(t, &myapp.Startup{})
//	resp, err := h.Client().Get(h.URL() + "/items")
package hosttest

import (
	"context"
	"testing"

	"github.com/advdv/sutest/host"
	"github.com/stretchr/testify/require"
)

// Env provides a chainable builder for setting [host.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [host.BaseEnvironment] env vars to sensible test defaults.
//
// Defaults:
//   - APP_ENVIRONMENT: "Development"
//   - APP_SERVICE_NAME: "test"
//   - APP_LOG_LEVEL: "warn"
//   - APP_OTEL_EXPORTER: "none"
//   - AWS_REGION: "us-east-1"
//   - AWS_ACCESS_KEY_ID: "test"
//   - AWS_SECRET_ACCESS_KEY: "test"
//
// Use the returned [Env] to override individual values:
//
//	hosttest.SetBaseEnv(t).Environment("Staging").ServiceName("orders")
func SetBaseEnv(t testing.TB) *Env {
	t.Helper()
	t.Setenv("APP_ENVIRONMENT", host.Development)
	t.Setenv("APP_SERVICE_NAME", "test")
	t.Setenv("APP_LOG_LEVEL", "warn")
	t.Setenv("APP_OTEL_EXPORTER", "none")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	return &Env{t: t}
}

// Environment overrides APP_ENVIRONMENT.
func (e *Env) Environment(name string) *Env {
	e.t.Helper()
	e.t.Setenv("APP_ENVIRONMENT", name)
	return e
}

// ServiceName overrides APP_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("APP_SERVICE_NAME", name)
	return e
}

// LogLevel overrides APP_LOG_LEVEL.
func (e *Env) LogLevel(level string) *Env {
	e.t.Helper()
	e.t.Setenv("APP_LOG_LEVEL", level)
	return e
}

// OtelExporter overrides APP_OTEL_EXPORTER.
func (e *Env) OtelExporter(exp string) *Env {
	e.t.Helper()
	e.t.Setenv("APP_OTEL_EXPORTER", exp)
	return e
}

// Set sets any other variable.
func (e *Env) Set(key, value string) *Env {
	e.t.Helper()
	e.t.Setenv(key, value)
	return e
}

// Start builds and starts a host for the startup and stops it when the test
// ends. Building or starting failures fail the test immediately.
func Start(t testing.TB, startup host.Startup, configure ...func(b *host.Builder)) *host.Host {
	t.Helper()

	b := host.NewBuilder(startup)
	for _, fn := range configure {
		fn(b)
	}

	h, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, h.Stop(context.Background())) })

	require.NoError(t, h.Start(t.Context()))
	return h
}
