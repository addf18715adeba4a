package dataverse

import (
	"context"
	"fmt"
	"net/http"

	"github.com/crmtools/dvenv/internal/core"
	"github.com/crmtools/dvenv/internal/sentinel"
)

// ErrNoResolver is returned when client construction needs credential
// material but no resolver was configured.
const ErrNoResolver = sentinel.Error("no credential resolver configured")

// CredentialRequest is what the client hands to a CredentialResolver: a
// closed set of variants, one per auth mode, each carrying only the fields
// that mode needs. The unexported marker method seals the set.
type CredentialRequest interface {
	credentialRequest()
}

// AmbientRequest asks for credentials from the hosting process environment
// (auth mode "default").
type AmbientRequest struct{}

// ClientSecretRequest asks for an app-registration token using a client
// secret (auth mode "client-credentials"). SecretRef names the secret; the
// resolver is responsible for dereferencing it.
type ClientSecretRequest struct {
	TenantID  string
	ClientID  string
	SecretRef string
}

// InteractiveRequest asks for a token via an interactive sign-in flow
// (auth mode "interactive").
type InteractiveRequest struct {
	TenantID string
	ClientID string
}

// CertificateRequest asks for an app-registration token using a client
// certificate (auth mode "certificate").
type CertificateRequest struct {
	TenantID        string
	ClientID        string
	CertificatePath string
}

// AnonymousRequest asks for no credentials at all (auth mode "none").
type AnonymousRequest struct{}

func (AmbientRequest) credentialRequest()      {}
func (ClientSecretRequest) credentialRequest() {}
func (InteractiveRequest) credentialRequest()  {}
func (CertificateRequest) credentialRequest()  {}
func (AnonymousRequest) credentialRequest()    {}

// requestFor dispatches an effective configuration to the credential-request
// variant for its auth mode. The configuration has already been validated,
// so required fields are present; an unknown mode here is a programmer
// error upstream and reported as one.
func requestFor(cfg core.EffectiveConfig) (CredentialRequest, error) {
	switch cfg.AuthMode {
	case core.AuthDefault:
		return AmbientRequest{}, nil
	case core.AuthClientSecret:
		return ClientSecretRequest{
			TenantID:  cfg.TenantID,
			ClientID:  cfg.ClientID,
			SecretRef: cfg.ClientSecretRef,
		}, nil
	case core.AuthInteractive:
		return InteractiveRequest{TenantID: cfg.TenantID, ClientID: cfg.ClientID}, nil
	case core.AuthCertificate:
		return CertificateRequest{
			TenantID:        cfg.TenantID,
			ClientID:        cfg.ClientID,
			CertificatePath: cfg.CertificatePath,
		}, nil
	case core.AuthNone:
		return AnonymousRequest{}, nil
	default:
		return nil, fmt.Errorf("no credential request for auth mode %q", string(cfg.AuthMode))
	}
}

// Credential is opaque material a resolver produced for one environment.
// The client applies it to every outgoing request.
type Credential interface {
	// Apply attaches the credential to req.
	Apply(req *http.Request) error
}

// CredentialResolver turns a credential request into usable material. The
// actual protocols (OAuth flows, certificate exchange, managed identity)
// live behind implementations of this interface; this module only dispatches
// to it during client construction.
type CredentialResolver interface {
	Resolve(ctx context.Context, req CredentialRequest) (Credential, error)
}

// AnonymousCredential attaches nothing. Produced for auth mode "none".
type AnonymousCredential struct{}

// Apply implements Credential.
func (AnonymousCredential) Apply(*http.Request) error { return nil }

// BearerCredential attaches a bearer token.
type BearerCredential struct {
	Token string
}

// Apply implements Credential.
func (c BearerCredential) Apply(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+c.Token)
	return nil
}

// StaticTokenResolver resolves every request to one fixed bearer token,
// except anonymous requests which stay anonymous. Intended for tests and
// local emulators.
type StaticTokenResolver struct {
	Token string
}

// Resolve implements CredentialResolver.
func (r StaticTokenResolver) Resolve(_ context.Context, req CredentialRequest) (Credential, error) {
	if _, ok := req.(AnonymousRequest); ok {
		return AnonymousCredential{}, nil
	}
	return BearerCredential{Token: r.Token}, nil
}

// anonymousOnlyResolver is the fallback when no resolver is configured:
// anonymous environments work, everything else fails loudly at construction
// time rather than sending unauthenticated requests to a real backend.
type anonymousOnlyResolver struct{}

func (anonymousOnlyResolver) Resolve(_ context.Context, req CredentialRequest) (Credential, error) {
	if _, ok := req.(AnonymousRequest); ok {
		return AnonymousCredential{}, nil
	}
	return nil, fmt.Errorf("%w for credential request %T", ErrNoResolver, req)
}
