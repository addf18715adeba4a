package dvenv

import (
	"github.com/crmtools/dvenv/internal/core"
	"github.com/crmtools/dvenv/internal/dataverse"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrConfiguration marks every configuration failure: no resolvable
	// profile, malformed fields (e.g. a non-absolute base URL), or
	// credential material inconsistent with the profile's auth mode.
	// Configuration errors surface to the caller of Acquire — silently
	// falling back to a wrong environment would be worse than failing.
	ErrConfiguration = core.ErrConfiguration

	// ErrConstruction marks a client that failed to initialize. Failed
	// constructions are never cached; the next Acquire retries.
	ErrConstruction = core.ErrConstruction

	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = core.ErrPoolClosed

	// ErrClientReleased is returned by Client.Config after Release. A
	// released handle may refer to an entry that has since been evicted,
	// making any previously obtained configuration stale.
	ErrClientReleased = core.ErrClientReleased

	// ErrNoResolver is returned (wrapped in ErrConstruction) when a
	// profile's auth mode needs credential material but no
	// CredentialResolver was configured.
	ErrNoResolver = dataverse.ErrNoResolver
)
