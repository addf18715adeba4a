package core

import (
	"testing"
	"time"
)

func TestStoreProfilesSnapshot(t *testing.T) {
	t.Parallel()

	store := NewStore(Settings{
		Profiles: map[string]Profile{
			"dev": {Fragment: Fragment{BaseURL: ptr("https://dev.crm.dynamics.com")}},
		},
	})

	snap := store.Profiles()
	if len(snap) != 1 {
		t.Fatalf("Profiles() returned %d entries, want 1", len(snap))
	}

	// Mutating the snapshot must not affect stored state.
	p := snap["dev"]
	*p.BaseURL = "https://evil.example"
	delete(snap, "dev")

	again := store.Profiles()
	if got := *again["dev"].BaseURL; got != "https://dev.crm.dynamics.com" {
		t.Errorf("stored BaseURL = %q after snapshot mutation, want original", got)
	}
}

func TestStoreNameFromMapKey(t *testing.T) {
	t.Parallel()

	store := NewStore(Settings{
		Profiles: map[string]Profile{
			"prod": {Name: "wrong"},
		},
	})

	if got := store.Profiles()["prod"].Name; got != "prod" {
		t.Errorf("profile Name = %q, want map key %q", got, "prod")
	}
}

func TestStoreDefaultProfile(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		profiles map[string]Profile
		wantName string
		wantOK   bool
	}{
		"explicit default flag": {
			profiles: map[string]Profile{
				"dev":  {},
				"prod": {Default: true},
			},
			wantName: "prod",
			wantOK:   true,
		},
		"sole profile without flag": {
			profiles: map[string]Profile{
				"only": {},
			},
			wantName: "only",
			wantOK:   true,
		},
		"several profiles none flagged": {
			profiles: map[string]Profile{
				"a": {},
				"b": {},
			},
			wantOK: false,
		},
		"no profiles at all": {
			profiles: nil,
			wantOK:   false,
		},
		"several flagged picks lexicographic first": {
			profiles: map[string]Profile{
				"zeta":  {Default: true},
				"alpha": {Default: true},
			},
			wantName: "alpha",
			wantOK:   true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := NewStore(Settings{Profiles: tc.profiles})
			p, ok := store.DefaultProfile()
			if ok != tc.wantOK {
				t.Fatalf("DefaultProfile() ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && p.Name != tc.wantName {
				t.Errorf("DefaultProfile() = %q, want %q", p.Name, tc.wantName)
			}
		})
	}
}

func TestStoreEffectiveProfile(t *testing.T) {
	t.Parallel()

	store := NewStore(Settings{
		Profiles: map[string]Profile{
			"dev":  {},
			"prod": {Default: true},
		},
	})

	tests := map[string]struct {
		request     string
		wantName    string
		wantMatched bool
		wantOK      bool
	}{
		"empty name returns default":  {request: "", wantName: "prod", wantMatched: true, wantOK: true},
		"known name matches":          {request: "dev", wantName: "dev", wantMatched: true, wantOK: true},
		"unknown name falls back":     {request: "staging", wantName: "prod", wantMatched: false, wantOK: true},
		"default name is also a hit":  {request: "prod", wantName: "prod", wantMatched: true, wantOK: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res, ok := store.EffectiveProfile(tc.request)
			if ok != tc.wantOK {
				t.Fatalf("EffectiveProfile(%q) ok = %v, want %v", tc.request, ok, tc.wantOK)
			}
			if res.Profile.Name != tc.wantName {
				t.Errorf("EffectiveProfile(%q) = %q, want %q", tc.request, res.Profile.Name, tc.wantName)
			}
			if res.Matched != tc.wantMatched {
				t.Errorf("EffectiveProfile(%q) matched = %v, want %v", tc.request, res.Matched, tc.wantMatched)
			}
		})
	}
}

func TestStoreEffectiveProfileEmptyStore(t *testing.T) {
	t.Parallel()

	store := NewStore(Settings{})

	if _, ok := store.EffectiveProfile(""); ok {
		t.Error("EffectiveProfile(\"\") on empty store should report absent")
	}
	if _, ok := store.EffectiveProfile("anything"); ok {
		t.Error("EffectiveProfile(\"anything\") on empty store should report absent")
	}
}

func TestStoreReload(t *testing.T) {
	t.Parallel()

	store := NewStore(Settings{
		Profiles: map[string]Profile{
			"old": {Fragment: Fragment{Timeout: ptr(30 * time.Second)}},
		},
	})

	store.Reload(Settings{
		DefaultEnvironment: Fragment{BaseURL: ptr("https://new.crm.dynamics.com")},
		Profiles: map[string]Profile{
			"new": {},
		},
	})

	if _, ok := store.Profiles()["old"]; ok {
		t.Error("Reload should drop profiles absent from the new settings")
	}
	if _, ok := store.Profiles()["new"]; !ok {
		t.Error("Reload should expose the new profiles")
	}
	if store.DefaultEnvironment().BaseURL == nil {
		t.Error("Reload should replace the default environment")
	}
}
