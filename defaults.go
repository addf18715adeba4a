package dvenv

import (
	"time"

	"github.com/crmtools/dvenv/internal/cachedir"
	"github.com/crmtools/dvenv/internal/core"
)

// Default configuration values. Exported so callers can build custom
// configurations relative to them (e.g. 2 * DefaultProbeTimeout).
const (
	// DefaultTimeout is the built-in per-request timeout used when
	// neither the profile nor the default environment sets one.
	DefaultTimeout = core.DefaultTimeout

	// DefaultVerifyTLS keeps server certificate verification on unless a
	// profile explicitly opts out.
	DefaultVerifyTLS = core.DefaultVerifyTLS

	// DefaultMetadataCache enables the per-environment on-disk metadata
	// cache unless a profile disables it.
	DefaultMetadataCache = core.DefaultMetadataCache

	// DefaultSearchIndex leaves the full-text metadata index off; it is
	// opt-in per profile.
	DefaultSearchIndex = core.DefaultSearchIndex

	// DefaultAuthMode applies when no layer names an auth mode.
	DefaultAuthMode = core.DefaultAuthMode

	// DefaultBuildTimeout bounds a single client construction. The build
	// runs detached from the acquiring caller, so this timeout is the
	// only thing that can abort it.
	DefaultBuildTimeout = 2 * time.Minute

	// DefaultProbeTimeout bounds the backend round trip made by Probe
	// and TestConnection.
	DefaultProbeTimeout = 10 * time.Second
)

// DefaultCacheRoot returns the process-wide cache root following the host
// OS cache-directory convention (XDG_CACHE_HOME on Linux, ~/Library/Caches
// on macOS, %LocalAppData% on Windows). Overridable via WithCacheRoot.
func DefaultCacheRoot() string {
	return cachedir.DefaultRoot()
}
