package dataverse

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/crmtools/dvenv/internal/core"
	"github.com/crmtools/dvenv/internal/metastore"
)

// apiPath is the Web API root appended to the environment base URL.
const apiPath = "/api/data/v9.2"

// requestMaxTries bounds the retry loop around one logical request.
// Retries only fire for transport errors and retryable status codes
// (429 and 5xx); everything else fails on the first attempt.
const requestMaxTries = 3

// Compile-time check that Client satisfies the pool's capability surface.
var _ core.Client = (*Client)(nil)

// Client talks to one environment's Web API. It is built once per pooled
// profile identity and shared by all requests against that environment, so
// it must be safe for concurrent use — it is: the underlying http.Client is
// concurrency-safe and all other fields are immutable after construction.
type Client struct {
	cfg        core.EffectiveConfig
	httpClient *http.Client
	cred       Credential
	meta       *metastore.Store
}

// Option adjusts client construction.
type Option func(*clientOptions)

type clientOptions struct {
	transport http.RoundTripper
}

// WithTransport replaces the HTTP transport. Used by tests to point the
// client at an httptest server or to stub the wire entirely.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// New constructs a client from an effective configuration: resolves
// credential material for the configured auth mode, builds an HTTP client
// honoring the timeout and TLS policy, and opens the environment's metadata
// store when the profile enables it. New performs no network round trips;
// the first request (or a probe) is what touches the backend.
//
// A nil resolver allows only anonymous environments — any mode needing
// material fails with ErrNoResolver rather than silently going
// unauthenticated.
func New(ctx context.Context, cfg core.EffectiveConfig, resolver CredentialResolver, opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	if resolver == nil {
		resolver = anonymousOnlyResolver{}
	}

	req, err := requestFor(cfg)
	if err != nil {
		return nil, err
	}
	cred, err := resolver.Resolve(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resolving credentials: %w", err)
	}

	transport := o.transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if !cfg.VerifyTLS {
			if t.TLSClientConfig == nil {
				t.TLSClientConfig = &tls.Config{} //nolint:gosec // InsecureSkipVerify set below is an explicit profile opt-out
			}
			t.TLSClientConfig.InsecureSkipVerify = true
		}
		transport = t
	}

	c := &Client{
		cfg:  cfg,
		cred: cred,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}

	if cfg.MetadataCache {
		meta, err := metastore.Open(ctx, cfg.CacheDir, cfg.SearchIndex)
		if err != nil {
			return nil, fmt.Errorf("opening metadata cache in %s: %w", cfg.CacheDir, err)
		}
		c.meta = meta
	}

	return c, nil
}

// Config returns the effective configuration the client was built from.
func (c *Client) Config() core.EffectiveConfig {
	return c.cfg
}

// Metadata returns the environment's metadata store, or nil when the
// profile disabled the metadata cache.
func (c *Client) Metadata() *metastore.Store {
	return c.meta
}

// WhoAmI is the response of the WhoAmI function, the cheapest authenticated
// round trip the backend offers.
type WhoAmI struct {
	UserID         string `json:"UserId"`
	BusinessUnitID string `json:"BusinessUnitId"`
	OrganizationID string `json:"OrganizationId"`
}

// WhoAmI executes the WhoAmI function against the environment.
func (c *Client) WhoAmI(ctx context.Context) (WhoAmI, error) {
	var out WhoAmI
	if err := c.get(ctx, "/WhoAmI", &out); err != nil {
		return WhoAmI{}, err
	}
	return out, nil
}

// Version returns the backend's reported version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"Version"`
	}
	if err := c.get(ctx, "/RetrieveVersion()", &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

// Ping performs one minimal backend round trip. Implements the pool's
// liveness capability.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.WhoAmI(ctx)
	return err
}

// get executes an authenticated GET against the Web API and decodes the
// JSON response into out. Transport errors and retryable status codes are
// retried with exponential backoff up to requestMaxTries attempts.
func (c *Client) get(ctx context.Context, path string, out any) error {
	url := c.cfg.BaseURL + apiPath + path

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.roundTrip(ctx, url)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(requestMaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			core.Logger().Debug("retrying request", "url", url, "error", err, "backoff", next)
		}),
	)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", url, err)
	}
	return nil
}

// roundTrip performs a single GET attempt. Non-retryable status codes are
// wrapped with backoff.Permanent so the retry loop stops immediately.
func (c *Client) roundTrip(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request for %s: %w", url, err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OData-MaxVersion", "4.0")
	req.Header.Set("OData-Version", "4.0")
	if err := c.cred.Apply(req); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("apply credentials: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("request %s: status %d", url, resp.StatusCode)
	default:
		return nil, backoff.Permanent(fmt.Errorf("request %s: status %d", url, resp.StatusCode))
	}
}

// Close releases the client's resources: the metadata store handle and any
// idle network connections. Idempotent.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	if c.meta == nil {
		return nil
	}
	meta := c.meta
	c.meta = nil
	return meta.Close()
}
