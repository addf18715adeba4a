package dvenv

import (
	"github.com/crmtools/dvenv/internal/core"
	"github.com/crmtools/dvenv/internal/dataverse"
	"github.com/crmtools/dvenv/internal/settings"
)

// Data-model types are defined in internal/core and aliased here so the
// public API and the internals share one set of definitions without
// exposing the rest of the core package.
type (
	// Settings is the parsed configuration shape: one optional default
	// environment fragment plus named profiles.
	Settings = core.Settings

	// Profile is a named configuration fragment for one environment.
	Profile = core.Profile

	// Fragment is a partial environment configuration; nil fields inherit
	// from the next layer down (default environment, then built-ins).
	Fragment = core.Fragment

	// EffectiveConfig is the fully merged, immutable configuration a
	// pooled client was constructed from.
	EffectiveConfig = core.EffectiveConfig

	// AuthMode selects how credentials are obtained for an environment.
	AuthMode = core.AuthMode

	// ProbeResult reports the outcome of a connectivity probe.
	ProbeResult = core.ProbeResult

	// PooledClient is the capability surface the pool owns per entry.
	PooledClient = core.Client

	// ClientFactory constructs a pooled client from an effective
	// configuration. Replaceable via WithClientFactory for tests.
	ClientFactory = core.ClientFactory
)

// Credential resolution types, defined alongside the constructed client.
type (
	// CredentialResolver turns a credential request into usable material.
	CredentialResolver = dataverse.CredentialResolver

	// Credential is opaque material applied to outgoing requests.
	Credential = dataverse.Credential

	// CredentialRequest is the closed set of per-auth-mode request
	// variants handed to a CredentialResolver.
	CredentialRequest = dataverse.CredentialRequest

	// StaticTokenResolver resolves everything to one fixed bearer token.
	StaticTokenResolver = dataverse.StaticTokenResolver
)

// Auth modes recognized in profile configuration.
const (
	AuthDefault      = core.AuthDefault
	AuthClientSecret = core.AuthClientSecret
	AuthInteractive  = core.AuthInteractive
	AuthCertificate  = core.AuthCertificate
	AuthNone         = core.AuthNone
)

// LoadSettings reads and parses a YAML settings file with ${VAR}
// environment-variable expansion. Fails with ErrConfiguration when the file
// is missing, unreadable or malformed.
func LoadSettings(path string) (Settings, error) {
	return settings.Load(path)
}

// ParseSettings parses YAML settings data. See LoadSettings.
func ParseSettings(data []byte) (Settings, error) {
	return settings.Parse(data)
}
