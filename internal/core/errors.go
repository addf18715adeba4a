package core

import (
	"fmt"

	"github.com/crmtools/dvenv/internal/sentinel"
)

// Sentinel errors for error inspection with errors.Is.
const (
	// ErrConfiguration marks every configuration failure: no resolvable
	// profile, malformed fields, inconsistent credential material.
	ErrConfiguration = sentinel.Error("configuration error")

	// ErrConstruction marks a client that failed to initialize (credential
	// resolution failure, unusable cache directory, unreachable metadata).
	ErrConstruction = sentinel.Error("client construction failed")

	// ErrPoolClosed is returned by Acquire after CloseAll.
	ErrPoolClosed = sentinel.Error("pool is closed")

	// ErrClientReleased is returned by handle methods called after Release.
	ErrClientReleased = sentinel.Error("client handle has been released")
)

// Compile-time checks that both taxonomy types implement error.
var (
	_ error = (*ConfigError)(nil)
	_ error = (*BuildError)(nil)
)

// ConfigError reports a configuration problem, carrying the profile name the
// caller requested so the message identifies which profile caused it.
// Matches ErrConfiguration under errors.Is.
type ConfigError struct {
	// Profile is the requested profile name; empty for the default.
	Profile string

	// Err describes the specific violation (possibly several, joined).
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %v", ErrConfiguration, e.Err)
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *ConfigError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

// BuildError reports a failed client construction for a profile. Failed
// constructions are never cached by the pool, so a later acquire retries
// from scratch. Matches ErrConstruction under errors.Is.
type BuildError struct {
	// Profile is the canonical pool key the construction ran under.
	Profile string

	// Err is the underlying construction failure.
	Err error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("%v: profile %s: %v", ErrConstruction, quoteName(e.Profile), e.Err)
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *BuildError) Unwrap() []error {
	return []error{ErrConstruction, e.Err}
}
