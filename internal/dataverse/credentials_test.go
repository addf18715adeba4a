package dataverse

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/crmtools/dvenv/internal/core"
)

func TestRequestForDispatch(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg  core.EffectiveConfig
		want CredentialRequest
	}{
		"default mode": {
			cfg:  core.EffectiveConfig{AuthMode: core.AuthDefault},
			want: AmbientRequest{},
		},
		"client credentials": {
			cfg: core.EffectiveConfig{
				AuthMode:        core.AuthClientSecret,
				TenantID:        "tenant",
				ClientID:        "client",
				ClientSecretRef: "secrets/prod",
			},
			want: ClientSecretRequest{TenantID: "tenant", ClientID: "client", SecretRef: "secrets/prod"},
		},
		"interactive": {
			cfg:  core.EffectiveConfig{AuthMode: core.AuthInteractive, TenantID: "tenant", ClientID: "client"},
			want: InteractiveRequest{TenantID: "tenant", ClientID: "client"},
		},
		"certificate": {
			cfg: core.EffectiveConfig{
				AuthMode:        core.AuthCertificate,
				TenantID:        "tenant",
				ClientID:        "client",
				CertificatePath: "/etc/certs/client.pfx",
			},
			want: CertificateRequest{TenantID: "tenant", ClientID: "client", CertificatePath: "/etc/certs/client.pfx"},
		},
		"none": {
			cfg:  core.EffectiveConfig{AuthMode: core.AuthNone},
			want: AnonymousRequest{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := requestFor(tc.cfg)
			if err != nil {
				t.Fatalf("requestFor() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("requestFor() = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestRequestForUnknownMode(t *testing.T) {
	t.Parallel()

	if _, err := requestFor(core.EffectiveConfig{AuthMode: "oauth"}); err == nil {
		t.Fatal("requestFor() on unknown mode = nil, want error")
	}
}

func TestBearerCredentialApply(t *testing.T) {
	t.Parallel()

	req, err := http.NewRequest(http.MethodGet, "https://org.crm.dynamics.com", nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := (BearerCredential{Token: "tok123"}).Apply(req); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer tok123" {
		t.Errorf("Authorization header = %q, want bearer token", got)
	}
}

func TestAnonymousCredentialApply(t *testing.T) {
	t.Parallel()

	req, err := http.NewRequest(http.MethodGet, "https://org.crm.dynamics.com", nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := (AnonymousCredential{}).Apply(req); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("Authorization header = %q, want none", got)
	}
}

func TestStaticTokenResolver(t *testing.T) {
	t.Parallel()

	r := StaticTokenResolver{Token: "tok123"}

	cred, err := r.Resolve(context.Background(), AmbientRequest{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if bearer, ok := cred.(BearerCredential); !ok || bearer.Token != "tok123" {
		t.Errorf("Resolve() = %#v, want bearer with fixed token", cred)
	}

	cred, err = r.Resolve(context.Background(), AnonymousRequest{})
	if err != nil {
		t.Fatalf("Resolve(anonymous) error = %v", err)
	}
	if _, ok := cred.(AnonymousCredential); !ok {
		t.Errorf("Resolve(anonymous) = %#v, want anonymous credential", cred)
	}
}

func TestAnonymousOnlyResolver(t *testing.T) {
	t.Parallel()

	r := anonymousOnlyResolver{}

	if _, err := r.Resolve(context.Background(), AnonymousRequest{}); err != nil {
		t.Fatalf("Resolve(anonymous) error = %v", err)
	}

	for _, req := range []CredentialRequest{
		AmbientRequest{},
		ClientSecretRequest{},
		InteractiveRequest{},
		CertificateRequest{},
	} {
		if _, err := r.Resolve(context.Background(), req); !errors.Is(err, ErrNoResolver) {
			t.Errorf("Resolve(%T) error = %v, want ErrNoResolver", req, err)
		}
	}
}
