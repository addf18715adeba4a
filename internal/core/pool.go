package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// defaultKey is the canonical pool key used when no named profile resolves
// and acquisition proceeds on the bare default environment. The tilde keeps
// it out of the namespace of ordinary profile names.
const defaultKey = "~default"

// Client is the capability surface the pool owns per entry. The constructed
// client exposes a richer API to downstream code; the pool only needs to
// probe it and release its resources.
type Client interface {
	// Ping performs one minimal backend round trip.
	Ping(ctx context.Context) error

	// Close releases the client's underlying resources (network sessions,
	// cache handles). Must be idempotent.
	Close() error
}

// ClientFactory constructs a ready-to-use client from an effective
// configuration. The factory encapsulates all construction details
// (credential resolution, transport setup, cache store opening), keeping
// Pool decoupled from what a "client" actually is.
type ClientFactory func(ctx context.Context, cfg EffectiveConfig) (Client, error)

// Entry binds a profile identity to its constructed client and the
// configuration the client was built from. Entries are created on first
// acquisition and live until explicit eviction or pool teardown; they are
// never silently replaced while in use.
type Entry struct {
	cfg    EffectiveConfig
	client Client
}

// Config returns the effective configuration the entry's client was built from.
func (e *Entry) Config() EffectiveConfig {
	return e.cfg
}

// Client returns the entry's constructed client. The caller borrows the
// reference for the duration of a request and must not hold it past pool
// teardown.
func (e *Entry) Client() Client {
	return e.client
}

// PoolConfig holds configuration for a Pool. All fields are immutable after
// construction via NewPool.
type PoolConfig struct {
	// Resolver produces effective configurations for requested profiles.
	Resolver *Resolver

	// Factory constructs clients from resolved configurations.
	Factory ClientFactory

	// BuildTimeout bounds a single client construction. The build runs
	// detached from the acquiring caller's context, so this timeout is the
	// only thing that can abort it.
	BuildTimeout time.Duration

	// ProbeTimeout bounds the backend round trip made by Probe and
	// TestConnection.
	ProbeTimeout time.Duration
}

// Validate checks all PoolConfig invariants and returns an error describing
// every violation found, joined so callers can fix them in one pass.
func (c PoolConfig) Validate() error {
	var errs []error

	if c.Resolver == nil {
		errs = append(errs, errors.New("resolver must not be nil"))
	}
	if c.Factory == nil {
		errs = append(errs, errors.New("client factory must not be nil"))
	}
	if c.BuildTimeout <= 0 {
		errs = append(errs, fmt.Errorf("build timeout must be greater than 0, got %s", c.BuildTimeout))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("probe timeout must be greater than 0, got %s", c.ProbeTimeout))
	}

	return errors.Join(errs...)
}

// Pool owns the mapping from profile identity to constructed client. Its
// defining guarantee: at most one client is ever constructed per resolved
// profile identity, even under concurrent acquisition — concurrent callers
// of the same key await one shared in-flight construction instead of racing
// to build duplicates. Acquisitions for different keys never block each
// other.
//
// It is safe for concurrent use by multiple goroutines.
type Pool struct {
	cfg PoolConfig

	// mu guards entries and closed. Held only for map access, never across
	// client construction.
	mu      sync.RWMutex
	entries map[string]*Entry
	closed  bool

	// group deduplicates in-flight constructions by canonical pool key.
	// A failed construction is not remembered: singleflight forgets the key
	// once the call finishes, so the next acquire retries from scratch.
	group singleflight.Group
}

// NewPool creates a Pool with the provided configuration. Performs no I/O.
//
// Panics if cfg.Validate() reports any errors; invalid configuration is a
// programmer error caught at construction time, like regexp.MustCompile.
func NewPool(cfg PoolConfig) *Pool {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("dvenv: invalid pool config: %v", err))
	}
	return &Pool{
		cfg:     cfg,
		entries: make(map[string]*Entry),
	}
}

// keyFor maps a resolved profile name to the canonical pool key. Entries are
// always stored under the key of the identity their configuration was
// resolved to, never under the name the caller happened to use.
func keyFor(profileName string) string {
	if profileName == "" {
		return defaultKey
	}
	return profileName
}

// key maps a requested profile name to the canonical pool key through the
// current store state. An empty name and the default profile's own name land
// on the same key, matching the store's default-fallback behavior; unknown
// names share the default's entry because they resolve to the same
// underlying configuration. Only a hint for the fast path and for
// singleflight grouping: the authoritative key of an entry is derived from
// its own resolution in build.
func (p *Pool) key(name string) string {
	res, ok := p.cfg.Resolver.store.EffectiveProfile(name)
	if !ok {
		return defaultKey
	}
	return keyFor(res.Profile.Name)
}

// Acquire returns the pooled client entry for the named profile ("" requests
// the default), constructing it on first use. On a hit the existing entry is
// returned immediately with no lock held across construction.
//
// Configuration and construction failures surface to the caller and are
// never cached — a subsequent Acquire retries from scratch. Cancelling ctx
// makes this caller stop waiting but does not abort a construction other
// concurrent callers are awaiting; only BuildTimeout bounds the build.
//
// Returns ErrPoolClosed after CloseAll.
func (p *Pool) Acquire(ctx context.Context, name string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context done before acquire: %w", err)
	}

	key := p.key(name)

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrPoolClosed
	}
	if e, ok := p.entries[key]; ok {
		p.mu.RUnlock()
		return e, nil
	}
	p.mu.RUnlock()

	ch := p.group.DoChan(key, func() (any, error) {
		return p.build(ctx, name)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	case <-ctx.Done():
		// The shared build keeps running for the other waiters; this
		// caller just stops waiting for it.
		return nil, fmt.Errorf("context done while awaiting construction of profile %s: %w",
			quoteName(name), ctx.Err())
	}
}

// build runs inside the singleflight group: exactly one build per key is in
// flight at a time. The entry's storage key comes from the resolution made
// here, so the identity an entry is filed under always matches the
// configuration it carries — even when a Reload lands between the caller's
// fast-path read and this build.
func (p *Pool) build(ctx context.Context, name string) (*Entry, error) {
	cfg, err := p.cfg.Resolver.Resolve(name)
	if err != nil {
		return nil, err
	}
	key := keyFor(cfg.ProfileName)

	// Double-checked: a concurrent builder may have stored the entry
	// between our fast-path miss and the group admitting this call.
	p.mu.RLock()
	e, ok := p.entries[key]
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}
	if ok {
		return e, nil
	}

	// Detach from the originating caller: the construction is shared state
	// awaited by any number of concurrent acquirers, so only BuildTimeout
	// may abort it, never one caller's cancellation.
	buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.BuildTimeout)
	defer cancel()

	client, err := p.cfg.Factory(buildCtx, cfg)
	if err != nil {
		return nil, &BuildError{Profile: key, Err: err}
	}

	entry := &Entry{cfg: cfg, client: client}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		if closeErr := client.Close(); closeErr != nil {
			Logger().Warn("failed to close client built after pool close",
				"profile", key, "error", closeErr)
		}
		return nil, ErrPoolClosed
	}
	p.entries[key] = entry
	p.mu.Unlock()

	Logger().Debug("constructed client", "profile", key, "base_url", cfg.BaseURL)
	return entry, nil
}

// Evict removes the named profile's entry and closes its client. Subsequent
// acquisitions construct a fresh client from a fresh resolution, which is
// how configuration changes take effect — entries are never swapped in
// place. No-op when the profile has no pooled entry.
//
// The literal name is tried first so a profile removed by a Reload can still
// be evicted under the identity its entry was stored with; only when nothing
// is pooled under that name does eviction follow the store's default
// fallback, mirroring Acquire.
func (p *Pool) Evict(name string) {
	p.mu.Lock()
	key := name
	e, ok := p.entries[key]
	if !ok {
		key = p.key(name)
		e, ok = p.entries[key]
	}
	if ok {
		delete(p.entries, key)
	}
	p.mu.Unlock()

	if !ok {
		return
	}
	if err := e.client.Close(); err != nil {
		Logger().Warn("failed to close evicted client", "profile", key, "error", err)
	}
}

// Len returns the number of pooled entries.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// CloseAll releases every pooled client's resources in parallel and clears
// the map. Safe to call from teardown paths and idempotent: a second call
// returns nil immediately. Acquire returns ErrPoolClosed afterwards.
func (p *Pool) CloseAll() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	entries := p.entries
	p.entries = nil
	p.mu.Unlock()

	var g errgroup.Group
	for key, e := range entries {
		g.Go(func() error {
			if err := e.client.Close(); err != nil {
				return fmt.Errorf("closing client for profile %s: %w", quoteName(key), err)
			}
			return nil
		})
	}
	return g.Wait()
}
