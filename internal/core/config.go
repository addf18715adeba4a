package core

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// AuthMode selects how credentials are obtained for an environment.
// The value is authoritative: credential fields present on a profile are
// only consulted for the mode that needs them, and a profile carrying
// material inconsistent with its mode fails validation instead of being
// silently corrected.
type AuthMode string

const (
	// AuthDefault uses ambient credentials from the hosting process
	// (managed identity, developer sign-in, environment).
	AuthDefault AuthMode = "default"

	// AuthClientSecret authenticates with an application registration's
	// client ID and secret. Requires TenantID, ClientID and ClientSecretRef.
	AuthClientSecret AuthMode = "client-credentials"

	// AuthInteractive opens a browser-based sign-in flow.
	AuthInteractive AuthMode = "interactive"

	// AuthCertificate authenticates with a client certificate.
	// Requires TenantID, ClientID and CertificatePath.
	AuthCertificate AuthMode = "certificate"

	// AuthNone sends unauthenticated requests. Useful against local
	// emulators and in tests.
	AuthNone AuthMode = "none"
)

// IsValid reports whether m is a recognized AuthMode value.
func (m AuthMode) IsValid() bool {
	switch m {
	case AuthDefault, AuthClientSecret, AuthInteractive, AuthCertificate, AuthNone:
		return true
	default:
		return false
	}
}

// Built-in fallback values, the lowest layer of the merge in
// Resolver.Resolve. A field unset on both the profile and the default
// environment takes these.
const (
	// DefaultTimeout bounds each request made by a constructed client.
	DefaultTimeout = 60 * time.Second

	// DefaultVerifyTLS keeps server certificate verification on unless a
	// profile explicitly opts out.
	DefaultVerifyTLS = true

	// DefaultMetadataCache enables the on-disk metadata cache per
	// environment unless a profile disables it.
	DefaultMetadataCache = true

	// DefaultSearchIndex leaves the full-text metadata index off; it is
	// opt-in per profile because index maintenance has a write cost.
	DefaultSearchIndex = false

	// DefaultAuthMode is used when neither the profile nor the default
	// environment names an auth mode.
	DefaultAuthMode = AuthDefault
)

// Fragment is a partial environment configuration. Both named profiles and
// the default environment share this shape; nil fields mean "unset, inherit
// from the next layer down". Pointer fields let an explicit false or zero
// survive the merge instead of being mistaken for absence.
type Fragment struct {
	// BaseURL is the backend root, e.g. "https://org.crm.dynamics.com".
	// Must be absolute when set.
	BaseURL *string `yaml:"base_url"`

	// AuthMode selects the credential strategy. See AuthMode constants.
	AuthMode *AuthMode `yaml:"auth_mode"`

	// TenantID and ClientID identify the application registration for
	// client-credentials and certificate modes.
	TenantID *string `yaml:"tenant_id"`
	ClientID *string `yaml:"client_id"`

	// ClientSecretRef names the secret to hand to the credential resolver;
	// the secret value itself never appears in configuration.
	ClientSecretRef *string `yaml:"client_secret_ref"`

	// CertificatePath points at the client certificate for certificate mode.
	CertificatePath *string `yaml:"certificate_path"`

	// Timeout bounds each request made by the constructed client.
	Timeout *time.Duration `yaml:"timeout"`

	// VerifyTLS controls server certificate verification.
	VerifyTLS *bool `yaml:"verify_tls"`

	// MetadataCache enables the per-environment on-disk metadata cache.
	MetadataCache *bool `yaml:"metadata_cache"`

	// SearchIndex enables the full-text index over cached metadata.
	SearchIndex *bool `yaml:"search_index"`

	// CacheDir overrides the derived cache directory for this environment.
	CacheDir *string `yaml:"cache_dir"`
}

// IsZero reports whether no field of the fragment is set.
func (f Fragment) IsZero() bool {
	return f.BaseURL == nil && f.AuthMode == nil && f.TenantID == nil &&
		f.ClientID == nil && f.ClientSecretRef == nil && f.CertificatePath == nil &&
		f.Timeout == nil && f.VerifyTLS == nil && f.MetadataCache == nil &&
		f.SearchIndex == nil && f.CacheDir == nil
}

// Clone returns a deep copy of the fragment. Store hands out clones so that
// callers mutating a snapshot cannot affect stored state.
func (f Fragment) Clone() Fragment {
	return Fragment{
		BaseURL:         clonePtr(f.BaseURL),
		AuthMode:        clonePtr(f.AuthMode),
		TenantID:        clonePtr(f.TenantID),
		ClientID:        clonePtr(f.ClientID),
		ClientSecretRef: clonePtr(f.ClientSecretRef),
		CertificatePath: clonePtr(f.CertificatePath),
		Timeout:         clonePtr(f.Timeout),
		VerifyTLS:       clonePtr(f.VerifyTLS),
		MetadataCache:   clonePtr(f.MetadataCache),
		SearchIndex:     clonePtr(f.SearchIndex),
		CacheDir:        clonePtr(f.CacheDir),
	}
}

// clonePtr copies the pointee into a fresh allocation; nil stays nil.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// builtinFragment returns the built-in fallback layer of the merge,
// fully populated except for fields that have no universal default
// (base URL, credential material, cache directory).
func builtinFragment() Fragment {
	timeout := DefaultTimeout
	verify := DefaultVerifyTLS
	metaCache := DefaultMetadataCache
	searchIndex := DefaultSearchIndex
	mode := DefaultAuthMode
	return Fragment{
		AuthMode:      &mode,
		Timeout:       &timeout,
		VerifyTLS:     &verify,
		MetadataCache: &metaCache,
		SearchIndex:   &searchIndex,
	}
}

// EffectiveConfig is the fully merged configuration a client is constructed
// from. Every field is resolved; no "unset" states remain. Values are
// immutable after Resolve returns one — a changed profile produces a new
// EffectiveConfig, never an edit of an existing one.
type EffectiveConfig struct {
	// ProfileName is the name of the profile the configuration was resolved
	// from. Empty when the configuration came purely from the default
	// environment with no named profile in the store.
	ProfileName string

	// RequestedName is the profile name the caller asked for ("" for the
	// default). Comparing it with ProfileName, or checking UsedFallback,
	// tells a caller whether an unknown name silently fell back.
	RequestedName string

	// UsedFallback is true when RequestedName named a profile that does not
	// exist and the default profile (or bare default environment) was used
	// instead.
	UsedFallback bool

	// BaseURL is the normalized absolute backend root.
	BaseURL string

	AuthMode        AuthMode
	TenantID        string
	ClientID        string
	ClientSecretRef string
	CertificatePath string

	Timeout       time.Duration
	VerifyTLS     bool
	MetadataCache bool
	SearchIndex   bool

	// CacheDir is the environment's isolated on-disk cache location,
	// derived from BaseURL unless the profile overrode it.
	CacheDir string
}

// Validate checks all EffectiveConfig invariants and returns an error
// describing every violation found. It uses errors.Join to report multiple
// issues at once so callers can fix all problems in a single pass.
func (c EffectiveConfig) Validate() error {
	var errs []error

	subject := "profile " + quoteName(c.ProfileName)

	if c.BaseURL == "" {
		errs = append(errs, fmt.Errorf(
			"%s has no base_url and no default_environment.base_url is set", subject))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s base_url %q is not an absolute URL", subject, c.BaseURL))
	}

	if !c.AuthMode.IsValid() {
		errs = append(errs, fmt.Errorf("%s has unknown auth_mode %q", subject, string(c.AuthMode)))
	}

	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s timeout must be greater than 0, got %s", subject, c.Timeout))
	}

	errs = append(errs, c.validateCredentialFields(subject)...)

	return errors.Join(errs...)
}

// validateCredentialFields enforces the auth-mode consistency rule: the mode
// is authoritative, and material that contradicts it is a configuration
// error rather than something to silently ignore or "fix".
func (c EffectiveConfig) validateCredentialFields(subject string) []error {
	var errs []error

	switch c.AuthMode {
	case AuthClientSecret:
		if c.TenantID == "" {
			errs = append(errs, fmt.Errorf("%s auth_mode %q requires tenant_id", subject, c.AuthMode))
		}
		if c.ClientID == "" {
			errs = append(errs, fmt.Errorf("%s auth_mode %q requires client_id", subject, c.AuthMode))
		}
		if c.ClientSecretRef == "" {
			errs = append(errs, fmt.Errorf("%s auth_mode %q requires client_secret_ref", subject, c.AuthMode))
		}
	case AuthCertificate:
		if c.TenantID == "" {
			errs = append(errs, fmt.Errorf("%s auth_mode %q requires tenant_id", subject, c.AuthMode))
		}
		if c.ClientID == "" {
			errs = append(errs, fmt.Errorf("%s auth_mode %q requires client_id", subject, c.AuthMode))
		}
		if c.CertificatePath == "" {
			errs = append(errs, fmt.Errorf("%s auth_mode %q requires certificate_path", subject, c.AuthMode))
		}
	case AuthDefault, AuthInteractive, AuthNone:
		if c.ClientSecretRef != "" {
			errs = append(errs, fmt.Errorf(
				"%s sets client_secret_ref but auth_mode is %q; the mode is authoritative — remove the secret or switch to %q",
				subject, c.AuthMode, AuthClientSecret))
		}
		if c.CertificatePath != "" {
			errs = append(errs, fmt.Errorf(
				"%s sets certificate_path but auth_mode is %q; the mode is authoritative — remove the certificate or switch to %q",
				subject, c.AuthMode, AuthCertificate))
		}
	}

	return errs
}

// quoteName quotes a profile name for error messages, rendering the unnamed
// default environment as "(default)".
func quoteName(name string) string {
	if name == "" {
		return "(default)"
	}
	return fmt.Sprintf("%q", name)
}
