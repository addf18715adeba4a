package dataverse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crmtools/dvenv/internal/core"
)

// testConfig returns an anonymous effective configuration pointing at srv.
func testConfig(t *testing.T, srv *httptest.Server) core.EffectiveConfig {
	t.Helper()
	return core.EffectiveConfig{
		ProfileName: "test",
		BaseURL:     srv.URL,
		AuthMode:    core.AuthNone,
		Timeout:     5 * time.Second,
		VerifyTLS:   true,
		CacheDir:    t.TempDir(),
	}
}

func newTestClient(t *testing.T, cfg core.EffectiveConfig, resolver CredentialResolver) *Client {
	t.Helper()

	c, err := New(context.Background(), cfg, resolver)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return c
}

func TestClientWhoAmI(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPath+"/WhoAmI" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("OData-Version"); got != "4.0" {
			t.Errorf("OData-Version = %q, want 4.0", got)
		}
		w.Write([]byte(`{"UserId":"u1","BusinessUnitId":"b1","OrganizationId":"o1"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(t, srv), nil)

	who, err := c.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI() error = %v", err)
	}
	if who.UserID != "u1" || who.BusinessUnitID != "b1" || who.OrganizationID != "o1" {
		t.Errorf("WhoAmI() = %+v, want decoded identifiers", who)
	}
}

func TestClientVersion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPath+"/RetrieveVersion()" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"Version":"9.2.24094.190"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(t, srv), nil)

	v, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v != "9.2.24094.190" {
		t.Errorf("Version() = %q, want reported version", v)
	}
}

func TestClientPingFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(t, srv), nil)

	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("Ping() = nil against a 401 backend, want error")
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"UserId":"u1"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(t, srv), nil)

	who, err := c.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI() error = %v, want success after retries", err)
	}
	if who.UserID != "u1" {
		t.Errorf("WhoAmI() = %+v after retries", who)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("backend saw %d calls, want 3", got)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, testConfig(t, srv), nil)

	if _, err := c.WhoAmI(context.Background()); err == nil {
		t.Fatal("WhoAmI() = nil against a 404 backend, want error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("backend saw %d calls, want exactly 1 (no retries on 404)", got)
	}
}

func TestClientAppliesCredential(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("Authorization = %q, want resolved bearer token", got)
		}
		w.Write([]byte(`{"UserId":"u1"}`))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv)
	cfg.AuthMode = core.AuthDefault

	c := newTestClient(t, cfg, StaticTokenResolver{Token: "tok123"})

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestClientNilResolverRejectsAuthenticatedModes(t *testing.T) {
	t.Parallel()

	cfg := core.EffectiveConfig{
		ProfileName: "test",
		BaseURL:     "https://org.crm.dynamics.com",
		AuthMode:    core.AuthDefault,
		Timeout:     5 * time.Second,
	}

	if _, err := New(context.Background(), cfg, nil); !errors.Is(err, ErrNoResolver) {
		t.Fatalf("New() error = %v, want ErrNoResolver", err)
	}
}

func TestClientMetadataCacheWiring(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, srv)
		cfg.MetadataCache = true

		c := newTestClient(t, cfg, nil)
		if c.Metadata() == nil {
			t.Fatal("Metadata() = nil with metadata cache enabled")
		}
		if _, err := os.Stat(filepath.Join(cfg.CacheDir, "metadata.db")); err != nil {
			t.Errorf("metadata database missing in cache dir: %v", err)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, srv)
		cfg.MetadataCache = false

		c := newTestClient(t, cfg, nil)
		if c.Metadata() != nil {
			t.Error("Metadata() != nil with metadata cache disabled")
		}
	})
}

func TestClientCloseIdempotent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := testConfig(t, srv)
	cfg.MetadataCache = true

	c, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}
