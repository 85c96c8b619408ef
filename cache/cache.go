// Package cache provides distributed caches keyed by string.
package cache

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrInvalidOptions is returned for entry options that can never be satisfied.
var ErrInvalidOptions = errors.New("invalid cache entry options")

// Distributed stores byte values that may be shared between processes.
type Distributed interface {
	// Get returns the value and whether it was found. Reading an entry with a
	// sliding expiration extends its lifetime.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, opts EntryOptions) error
	// Refresh extends the lifetime of a sliding entry without reading it.
	Refresh(ctx context.Context, key string) error
	Remove(ctx context.Context, key string) error
}

// EntryOptions controls when an entry expires. The zero value never expires.
type EntryOptions struct {
	AbsoluteExpiration              time.Time
	AbsoluteExpirationRelativeToNow time.Duration
	SlidingExpiration               time.Duration
}

// deadlines returns the absolute deadline (zero if none) and the sliding window.
func (o EntryOptions) deadlines(now time.Time) (time.Time, time.Duration, error) {
	if o.AbsoluteExpirationRelativeToNow < 0 {
		return time.Time{}, 0, errors.Wrap(ErrInvalidOptions, "relative expiration must be positive")
	}

	if o.SlidingExpiration < 0 {
		return time.Time{}, 0, errors.Wrap(ErrInvalidOptions, "sliding expiration must be positive")
	}

	abs := o.AbsoluteExpiration
	if o.AbsoluteExpirationRelativeToNow > 0 {
		abs = now.Add(o.AbsoluteExpirationRelativeToNow)
	}

	if !abs.IsZero() && !abs.After(now) {
		return time.Time{}, 0, errors.Wrap(ErrInvalidOptions, "absolute expiration is in the past")
	}

	return abs, o.SlidingExpiration, nil
}

// nextExpiry returns when an entry accessed at now expires, zero meaning never.
func nextExpiry(now, abs time.Time, sliding time.Duration) time.Time {
	if sliding <= 0 {
		return abs
	}

	next := now.Add(sliding)
	if !abs.IsZero() && abs.Before(next) {
		return abs
	}

	return next
}

// GetString is like Get but returns a string.
func GetString(ctx context.Context, c Distributed, key string) (string, bool, error) {
	b, ok, err := c.Get(ctx, key)
	return string(b), ok, err
}

// SetString is like Set but stores a string.
func SetString(ctx context.Context, c Distributed, key, value string, opts EntryOptions) error {
	return c.Set(ctx, key, []byte(value), opts)
}
