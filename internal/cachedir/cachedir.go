package cachedir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/crmtools/dvenv/internal/sentinel"
)

// ErrNotAbsolute is returned when a base URL has no scheme or host.
const ErrNotAbsolute = sentinel.Error("base URL is not absolute")

// appDirName is the directory under the OS cache location that holds all
// per-environment cache directories.
const appDirName = "dvenv"

// segmentHashLen is the number of hex characters of the URL hash appended to
// the sanitized host segment. 12 characters (48 bits) is enough to rule out
// collisions between sanitized forms (e.g. "a_b.example" vs "a-b.example")
// while keeping directory names short.
const segmentHashLen = 12

// DefaultRoot returns the process-wide cache root following the host OS
// cache-directory convention (XDG_CACHE_HOME on Linux, ~/Library/Caches on
// macOS, %LocalAppData% on Windows).
func DefaultRoot() string {
	return filepath.Join(xdg.CacheHome, appDirName)
}

// Normalize canonicalizes a base URL: scheme and host are lower-cased, a
// default port (80 for http, 443 for https) is stripped, and any trailing
// slash is removed. Equivalent spellings of the same URL normalize to the
// same string, which is what keeps cache addressing deterministic.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrNotAbsolute, rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// SplitHostPort rather than a naive cut on ':' so bracketed IPv6 hosts
	// keep their brackets and still lose a default port. Hosts without a
	// port make it error, which simply leaves the host untouched.
	if host, port, err := net.SplitHostPort(u.Host); err == nil {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			if strings.Contains(host, ":") {
				host = "[" + host + "]"
			}
			u.Host = host
		}
	}

	u.Path = strings.TrimRight(u.Path, "/")

	return u.String(), nil
}

// Resolve maps a base URL to its cache directory under root. The segment name
// is the sanitized host joined with a short hash of the full normalized URL:
// the host keeps the directory recognizable, the hash makes the mapping
// injective (distinct schemes, ports or paths on the same host get distinct
// directories) and sidesteps filesystem-reserved names like "nul" or "com1".
//
// Resolve performs no I/O; callers create the directory on first use.
func Resolve(root, rawURL string) (string, error) {
	norm, err := Normalize(rawURL)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(norm)
	if err != nil {
		return "", fmt.Errorf("parse normalized URL %q: %w", norm, err)
	}

	sum := sha256.Sum256([]byte(norm))
	segment := sanitizeHost(u.Hostname()) + "-" + hex.EncodeToString(sum[:])[:segmentHashLen]

	return filepath.Join(root, segment), nil
}

// sanitizeHost maps a host name onto the filesystem-safe alphabet
// [a-z0-9.-], replacing everything else with '-'. The result is only a
// readability aid; uniqueness comes from the hash suffix in Resolve.
func sanitizeHost(host string) string {
	if host == "" {
		return "host"
	}

	var b strings.Builder
	b.Grow(len(host))
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
