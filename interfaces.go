package dvenv

import "context"

// Pool coordinates pooled clients for named environment profiles.
//
// Callers construct a Pool with New, acquire clients as needed, and call
// Close on teardown. All methods are safe for concurrent use.
type Pool interface {
	// Acquire returns the pooled client handle for the named profile
	// ("" requests the default), constructing the underlying client on
	// first use. At most one client is ever constructed per resolved
	// profile identity, even under concurrent acquisition.
	//
	// Fails with ErrConfiguration when no profile and no default resolve
	// or the merged configuration is invalid, with ErrConstruction when
	// the client could not initialize, and with ErrPoolClosed after
	// Close. Construction failures are not cached; a subsequent Acquire
	// retries from scratch.
	//
	// Cancelling ctx stops this caller from waiting but does not abort a
	// construction that other concurrent callers are awaiting.
	Acquire(ctx context.Context, profile string) (Client, error)

	// Resolve computes the effective configuration for the named profile
	// without constructing or pooling a client. Pure computation over the
	// current settings; a runtime Reload is visible to the next call.
	Resolve(profile string) (EffectiveConfig, error)

	// Probe checks connectivity for the named profile with one minimal
	// backend round trip. Never returns an error: all failures are
	// reported as OK=false with a human-readable detail.
	Probe(ctx context.Context, profile string) ProbeResult

	// TestConnection is the boolean shorthand for Probe.
	TestConnection(ctx context.Context, profile string) bool

	// Profiles returns a defensive snapshot of all named profiles.
	Profiles() map[string]Profile

	// Reload replaces the profile settings. Already-pooled clients keep
	// their superseded configuration until explicitly evicted; new
	// resolutions see the new settings immediately.
	Reload(settings Settings)

	// Evict removes the named profile's pooled client and closes it. The
	// next Acquire constructs a fresh client from a fresh resolution.
	Evict(profile string)

	// Close releases every pooled client's resources and clears the pool.
	// Idempotent and safe to call from shutdown paths; Acquire returns
	// ErrPoolClosed afterwards.
	Close() error
}

// Client is an acquired handle onto one environment's pooled client.
// Handles are borrowed: the underlying client is shared with every other
// acquirer of the same profile and stays alive until eviction or pool
// teardown — Release is bookkeeping only, not destruction.
type Client interface {
	// Name returns the resolved profile's name. Empty when the
	// configuration came purely from the default environment.
	Name() string

	// UsedFallback reports whether the requested profile name was unknown
	// and the default was used instead. This is how callers detect a
	// typo that the fallback rule would otherwise mask.
	UsedFallback() bool

	// Config returns the effective configuration the underlying client
	// was constructed from. Returns ErrClientReleased after Release.
	Config() (EffectiveConfig, error)

	// Ping performs one minimal backend round trip through the pooled
	// client. Returns ErrClientReleased after Release.
	Ping(ctx context.Context) error

	// Release marks the handle as returned. The pooled client itself
	// stays alive for other borrowers; only Evict or Close destroy it.
	// Subsequent Config and Ping calls on this handle fail.
	Release()
}
