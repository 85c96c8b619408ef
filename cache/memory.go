package cache

import (
	"bytes"
	"context"
	"maps"
	"sync"
	"time"

	"github.com/advdv/sutest/di"
)

// MemoryOptions configures a [Memory] cache.
type MemoryOptions struct {
	// ExpirationScanFrequency is the minimum time between scans for expired entries.
	ExpirationScanFrequency time.Duration `default:"1m"`
	// Clock replaces time.Now, mostly for tests.
	Clock func() time.Time
}

type memoryEntry struct {
	value   []byte
	abs     time.Time
	sliding time.Duration
	expires time.Time
}

// Memory is an in-process [Distributed] cache.
type Memory struct {
	opts     MemoryOptions
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	lastScan time.Time
}

// NewMemory inits an empty cache.
func NewMemory(opts MemoryOptions) *Memory {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Memory{opts: opts, entries: map[string]*memoryEntry{}, lastScan: opts.Clock()}
}

// AddMemory registers a [Memory] cache as the [Distributed] cache.
func AddMemory(c *di.Collection, configure ...func(*MemoryOptions)) *di.Collection {
	for _, fn := range configure {
		di.Configure(c, fn)
	}

	di.AddOptions[MemoryOptions](c)
	return di.AddSingleton[Distributed](c, func(o *di.Options[MemoryOptions]) (*Memory, error) {
		opts, err := o.Value()
		if err != nil {
			return nil, err
		}

		return NewMemory(*opts), nil
	})
}

// Get implements [Distributed].
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return nil, false, nil
	}

	return bytes.Clone(e.value), true, nil
}

// Set implements [Distributed].
func (m *Memory) Set(_ context.Context, key string, value []byte, opts EntryOptions) error {
	now := m.opts.Clock()
	abs, sliding, err := opts.deadlines(now)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = &memoryEntry{
		value:   bytes.Clone(value),
		abs:     abs,
		sliding: sliding,
		expires: nextExpiry(now, abs, sliding),
	}

	m.scan(now)
	return nil
}

// Refresh implements [Distributed].
func (m *Memory) Refresh(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.live(key)
	return nil
}

// Remove implements [Distributed].
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Len returns the number of entries, including expired ones not yet scanned.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// live returns the entry when it has not expired and slides its expiry.
// The caller holds the lock.
func (m *Memory) live(key string) (*memoryEntry, bool) {
	now := m.opts.Clock()
	defer m.scan(now)

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}

	if !e.expires.IsZero() && !now.Before(e.expires) {
		delete(m.entries, key)
		return nil, false
	}

	e.expires = nextExpiry(now, e.abs, e.sliding)
	return e, true
}

func (m *Memory) scan(now time.Time) {
	if now.Sub(m.lastScan) < m.opts.ExpirationScanFrequency {
		return
	}

	m.lastScan = now
	maps.DeleteFunc(m.entries, func(_ string, e *memoryEntry) bool {
		return !e.expires.IsZero() && !now.Before(e.expires)
	})
}

var _ Distributed = &Memory{}
