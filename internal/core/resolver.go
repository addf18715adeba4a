package core

import (
	"fmt"

	"dario.cat/mergo"

	"github.com/crmtools/dvenv/internal/cachedir"
)

// Resolver merges a requested profile against the default environment and
// built-in fallbacks, producing one fully populated EffectiveConfig. It is a
// pure computation over the store's already-loaded data: no I/O, nothing
// cached between calls, so a runtime Reload of the store is picked up by the
// very next Resolve.
type Resolver struct {
	store     *Store
	cacheRoot string
}

// NewResolver creates a Resolver reading from store and deriving cache
// directories under cacheRoot. Panics if store is nil or cacheRoot is empty;
// both are programmer errors caught at construction time.
func NewResolver(store *Store, cacheRoot string) *Resolver {
	if store == nil {
		panic("dvenv: NewResolver store must not be nil")
	}
	if cacheRoot == "" {
		panic("dvenv: NewResolver cacheRoot must not be empty")
	}
	return &Resolver{store: store, cacheRoot: cacheRoot}
}

// Resolve produces the effective configuration for the named profile
// ("" requests the default). See ResolveWith for the merge rules.
func (r *Resolver) Resolve(name string) (EffectiveConfig, error) {
	return r.ResolveWith(name, nil)
}

// ResolveWith resolves name with an optional inline override fragment layered
// on top of the profile. Field precedence, strongest first:
//
//	override > profile > default environment > built-in fallbacks
//
// Fails with a ConfigError when neither the requested profile nor a default
// is resolvable and no override was supplied, or when the merged result
// violates an invariant (missing/relative base URL, non-positive timeout,
// credential material inconsistent with the auth mode).
func (r *Resolver) ResolveWith(name string, override *Fragment) (EffectiveConfig, error) {
	res, found := r.store.EffectiveProfile(name)
	defaultEnv := r.store.DefaultEnvironment()

	hasOverride := override != nil && !override.IsZero()
	if !found && defaultEnv.IsZero() && !hasOverride {
		return EffectiveConfig{}, &ConfigError{
			Profile: name,
			Err: fmt.Errorf("no profile %s found and no default_environment is configured",
				quoteName(name)),
		}
	}

	var merged Fragment
	if override != nil {
		merged = override.Clone()
	}
	layers := []Fragment{defaultEnv, builtinFragment()}
	if found {
		layers = append([]Fragment{res.Profile.Fragment}, layers...)
	}
	for _, layer := range layers {
		// WithoutDereference treats pointer fields as atomic values: a set
		// field survives the overlay untouched even when it holds an
		// explicit zero (false, 0s), and unset fields inherit the layer's
		// pointer. This is what makes "explicitly disabled" distinguishable
		// from "unset".
		if err := mergo.Merge(&merged, layer, mergo.WithoutDereference); err != nil {
			return EffectiveConfig{}, &ConfigError{
				Profile: name,
				Err:     fmt.Errorf("merging configuration layers: %w", err),
			}
		}
	}

	cfg := EffectiveConfig{
		ProfileName:   res.Profile.Name,
		RequestedName: name,
		UsedFallback:  name != "" && !res.Matched,
	}
	if merged.AuthMode != nil {
		cfg.AuthMode = *merged.AuthMode
	}
	cfg.TenantID = deref(merged.TenantID)
	cfg.ClientID = deref(merged.ClientID)
	cfg.ClientSecretRef = deref(merged.ClientSecretRef)
	cfg.CertificatePath = deref(merged.CertificatePath)
	if merged.Timeout != nil {
		cfg.Timeout = *merged.Timeout
	}
	if merged.VerifyTLS != nil {
		cfg.VerifyTLS = *merged.VerifyTLS
	}
	if merged.MetadataCache != nil {
		cfg.MetadataCache = *merged.MetadataCache
	}
	if merged.SearchIndex != nil {
		cfg.SearchIndex = *merged.SearchIndex
	}

	if merged.BaseURL != nil {
		norm, err := cachedir.Normalize(*merged.BaseURL)
		if err != nil {
			return EffectiveConfig{}, &ConfigError{Profile: name, Err: err}
		}
		cfg.BaseURL = norm
	}

	if err := cfg.Validate(); err != nil {
		return EffectiveConfig{}, &ConfigError{Profile: name, Err: err}
	}

	// The cache directory is derived from the normalized base URL unless the
	// profile (or an outer layer) pinned an explicit directory.
	if merged.CacheDir != nil {
		cfg.CacheDir = *merged.CacheDir
	} else {
		dir, err := cachedir.Resolve(r.cacheRoot, cfg.BaseURL)
		if err != nil {
			return EffectiveConfig{}, &ConfigError{Profile: name, Err: err}
		}
		cfg.CacheDir = dir
	}

	return cfg, nil
}

// deref returns the pointee or the zero string.
func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
