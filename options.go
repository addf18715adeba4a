package dvenv

import (
	"fmt"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive(name string, v time.Duration) {
	if v <= 0 {
		panic(fmt.Sprintf("dvenv: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("dvenv: %s must not be empty", name))
	}
}

// Option configures a Pool during construction via New. Each With* function
// returns an Option that sets a specific field.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// durations). These panics are intentional: option values are typically
// compile-time constants, so an invalid value indicates a programmer error
// rather than a runtime condition, mirroring [regexp.MustCompile].
type Option func(*poolConfig)

// poolConfig holds the configuration assembled by New from defaults and
// options.
type poolConfig struct {
	cacheRoot    string
	buildTimeout time.Duration
	probeTimeout time.Duration
	credentials  CredentialResolver
	factory      ClientFactory
}

// defaultPoolConfig returns a poolConfig populated with all default values.
func defaultPoolConfig() poolConfig {
	return poolConfig{
		cacheRoot:    DefaultCacheRoot(),
		buildTimeout: DefaultBuildTimeout,
		probeTimeout: DefaultProbeTimeout,
	}
}

// WithCacheRoot overrides the process-wide cache root under which every
// environment's cache directory is derived. Useful in CI environments where
// several projects share a machine and need isolated cache trees.
//
// Default: DefaultCacheRoot().
//
// Panics if dir is empty.
func WithCacheRoot(dir string) Option {
	requireNonEmpty("cache root", dir)
	return func(c *poolConfig) {
		c.cacheRoot = dir
	}
}

// WithBuildTimeout sets the maximum time allowed for a single client
// construction (credential resolution plus cache store opening).
//
// Default: 2 minutes.
//
// Panics if d <= 0.
func WithBuildTimeout(d time.Duration) Option {
	requirePositive("build timeout", d)
	return func(c *poolConfig) {
		c.buildTimeout = d
	}
}

// WithProbeTimeout sets the timeout for the backend round trip made by
// Probe and TestConnection.
//
// Default: 10 seconds.
//
// Panics if d <= 0.
func WithProbeTimeout(d time.Duration) Option {
	requirePositive("probe timeout", d)
	return func(c *poolConfig) {
		c.probeTimeout = d
	}
}

// WithCredentialResolver sets the resolver invoked during client
// construction to obtain usable credentials for a profile's auth mode.
// Without one, only profiles with auth mode "none" can be constructed;
// every other mode fails with ErrNoResolver instead of silently sending
// unauthenticated requests.
func WithCredentialResolver(r CredentialResolver) Option {
	return func(c *poolConfig) {
		c.credentials = r
	}
}

// WithClientFactory replaces the client construction function. The default
// factory builds a Dataverse Web API client; tests substitute fakes to
// exercise pool behavior without a backend.
//
// Panics if f is nil.
func WithClientFactory(f ClientFactory) Option {
	if f == nil {
		panic("dvenv: client factory must not be nil")
	}
	return func(c *poolConfig) {
		c.factory = f
	}
}
