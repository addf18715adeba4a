package core

import "sync"

// Profile is a named configuration fragment for one backend environment.
type Profile struct {
	// Name uniquely identifies the profile within a Store. Populated from
	// the profiles map key when settings are loaded.
	Name string `yaml:"-"`

	// Default flags this profile as the store's default. At most one
	// profile should carry the flag; when several do, the first in
	// lexicographic name order wins so selection stays deterministic.
	Default bool `yaml:"default"`

	Fragment `yaml:",inline"`
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	return Profile{Name: p.Name, Default: p.Default, Fragment: p.Fragment.Clone()}
}

// Settings is the parsed configuration shape consumed by the store: one
// optional default environment fragment plus named profiles. Loading (file
// format, environment overlay) happens outside this package; the store only
// sees already-parsed data.
type Settings struct {
	DefaultEnvironment Fragment           `yaml:"default_environment"`
	Profiles           map[string]Profile `yaml:"profiles"`
}

// Resolution is the outcome of an effective-profile lookup. Matched reports
// whether the returned profile is the one the caller asked for; it is false
// when an unknown name fell back to the default profile, letting callers
// detect the fallback without a separate signal.
type Resolution struct {
	Profile Profile
	Matched bool
}

// Store holds named profiles and the default environment fragment. Reads
// vastly outnumber writes; a RWMutex guards the data so profiles can be
// reloaded at runtime while resolutions re-read on every call.
//
// Store never fails a lookup for a missing name — absence is reported
// through boolean results, and only the settings loader can produce errors
// (corrupt backing data).
type Store struct {
	mu         sync.RWMutex
	defaultEnv Fragment
	profiles   map[string]Profile
}

// NewStore creates a Store from parsed settings. Profile names are taken
// from the map keys; a Name set inside a profile value is overwritten.
func NewStore(s Settings) *Store {
	st := &Store{}
	st.Reload(s)
	return st
}

// Reload replaces the store contents with freshly parsed settings.
// In-flight resolutions that already read the old data are unaffected;
// pooled clients built from superseded profiles stay alive until the pool
// entry is explicitly evicted.
func (s *Store) Reload(settings Settings) {
	profiles := make(map[string]Profile, len(settings.Profiles))
	for name, p := range settings.Profiles {
		cp := p.Clone()
		cp.Name = name
		profiles[name] = cp
	}

	s.mu.Lock()
	s.defaultEnv = settings.DefaultEnvironment.Clone()
	s.profiles = profiles
	s.mu.Unlock()
}

// Profiles returns a defensive snapshot of all named profiles. Mutating the
// result does not affect stored state.
func (s *Store) Profiles() map[string]Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Profile, len(s.profiles))
	for name, p := range s.profiles {
		out[name] = p.Clone()
	}
	return out
}

// DefaultEnvironment returns a copy of the default environment fragment.
func (s *Store) DefaultEnvironment() Fragment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultEnv.Clone()
}

// DefaultProfile returns the store's default profile: the profile explicitly
// flagged as default, or — when none is flagged — the sole profile if
// exactly one exists. Returns false when neither rule selects a profile.
func (s *Store) DefaultProfile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultProfileLocked()
}

// defaultProfileLocked implements DefaultProfile; callers hold s.mu.
func (s *Store) defaultProfileLocked() (Profile, bool) {
	var (
		best  Profile
		found bool
	)
	for _, p := range s.profiles {
		if !p.Default {
			continue
		}
		// Deterministic tie-break when several profiles claim the flag.
		if !found || p.Name < best.Name {
			best = p
			found = true
		}
	}
	if found {
		return best.Clone(), true
	}

	if len(s.profiles) == 1 {
		for _, p := range s.profiles {
			return p.Clone(), true
		}
	}

	return Profile{}, false
}

// EffectiveProfile resolves the profile a caller means. An empty name asks
// for the default profile. A non-empty name returns the named profile when
// it exists; otherwise the default profile is returned with Matched=false,
// so callers can tell a fallback from a direct hit. The second result is
// false only when no profile could be resolved at all.
func (s *Store) EffectiveProfile(name string) (Resolution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if name == "" {
		p, ok := s.defaultProfileLocked()
		return Resolution{Profile: p, Matched: ok}, ok
	}

	if p, ok := s.profiles[name]; ok {
		return Resolution{Profile: p.Clone(), Matched: true}, true
	}

	p, ok := s.defaultProfileLocked()
	return Resolution{Profile: p, Matched: false}, ok
}
