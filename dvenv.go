package dvenv

import (
	"context"
	"sync/atomic"

	"github.com/crmtools/dvenv/internal/core"
	"github.com/crmtools/dvenv/internal/dataverse"
)

// Compile-time interface satisfaction checks.
var (
	_ Pool   = (*poolWrapper)(nil)
	_ Client = (*clientWrapper)(nil)
)

// New creates an independent Pool from already-parsed settings. Each call
// returns its own pool with its own client map, so tests can run several
// isolated pools concurrently — there is deliberately no process-wide
// singleton. Performs no I/O; clients are constructed lazily on first
// Acquire of each profile.
//
// Panics if any option receives an invalid value; see the individual With*
// functions for constraints.
func New(settings Settings, opts ...Option) Pool {
	cfg := defaultPoolConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	store := core.NewStore(settings)
	resolver := core.NewResolver(store, cfg.cacheRoot)

	factory := cfg.factory
	if factory == nil {
		creds := cfg.credentials
		factory = func(ctx context.Context, ec core.EffectiveConfig) (core.Client, error) {
			return dataverse.New(ctx, ec, creds)
		}
	}

	pool := core.NewPool(core.PoolConfig{
		Resolver:     resolver,
		Factory:      factory,
		BuildTimeout: cfg.buildTimeout,
		ProbeTimeout: cfg.probeTimeout,
	})

	return &poolWrapper{pool: pool, store: store, resolver: resolver}
}

// poolWrapper wraps core.Pool to implement the public Pool interface. The
// core types are stored as named (unexported) fields rather than embedded so
// callers cannot reach internal methods through type assertions.
type poolWrapper struct {
	pool     *core.Pool
	store    *core.Store
	resolver *core.Resolver
}

// Acquire implements Pool.Acquire, returning the Client handle interface.
//
//nolint:ireturn // Returns Client interface by design for testability (mockable).
func (w *poolWrapper) Acquire(ctx context.Context, profile string) (Client, error) {
	entry, err := w.pool.Acquire(ctx, profile)
	if err != nil {
		return nil, err
	}
	return &clientWrapper{requested: profile, entry: entry}, nil
}

// Resolve implements Pool.Resolve.
func (w *poolWrapper) Resolve(profile string) (EffectiveConfig, error) {
	return w.resolver.Resolve(profile)
}

// Probe implements Pool.Probe.
func (w *poolWrapper) Probe(ctx context.Context, profile string) ProbeResult {
	return w.pool.Probe(ctx, profile)
}

// TestConnection implements Pool.TestConnection.
func (w *poolWrapper) TestConnection(ctx context.Context, profile string) bool {
	return w.pool.TestConnection(ctx, profile)
}

// Profiles implements Pool.Profiles.
func (w *poolWrapper) Profiles() map[string]Profile {
	return w.store.Profiles()
}

// Reload implements Pool.Reload.
func (w *poolWrapper) Reload(settings Settings) {
	w.store.Reload(settings)
}

// Evict implements Pool.Evict.
func (w *poolWrapper) Evict(profile string) {
	w.pool.Evict(profile)
}

// Close implements Pool.Close.
func (w *poolWrapper) Close() error {
	return w.pool.CloseAll()
}

// clientWrapper is the per-acquisition handle onto a pooled entry.
//
// released tracks whether Release has been called on this handle. It
// prevents Config and Ping from returning data after Release, enforcing the
// contract that a handle is only valid between Acquire and Release. The
// pooled entry itself is shared with other acquirers and unaffected.
type clientWrapper struct {
	requested string
	entry     *core.Entry
	released  atomic.Bool
}

// Name returns the resolved profile's name.
func (w *clientWrapper) Name() string {
	return w.entry.Config().ProfileName
}

// UsedFallback reports whether the requested name fell back to the default.
func (w *clientWrapper) UsedFallback() bool {
	return w.requested != "" && w.requested != w.entry.Config().ProfileName
}

// Config returns the effective configuration the pooled client was built
// from. Returns ErrClientReleased after Release.
func (w *clientWrapper) Config() (EffectiveConfig, error) {
	if w.released.Load() {
		return EffectiveConfig{}, ErrClientReleased
	}
	return w.entry.Config(), nil
}

// Ping performs one minimal backend round trip through the pooled client.
func (w *clientWrapper) Ping(ctx context.Context) error {
	if w.released.Load() {
		return ErrClientReleased
	}
	return w.entry.Client().Ping(ctx)
}

// Release marks the handle as returned. Bookkeeping only: pooled clients
// are not reference-counted and stay alive until eviction or pool teardown.
func (w *clientWrapper) Release() {
	w.released.Store(true)
}
