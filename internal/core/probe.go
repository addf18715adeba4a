package core

import (
	"context"
	"fmt"
)

// ProbeResult reports the outcome of a connectivity probe. Probes are
// best-effort: every failure, configuration or transport alike, lands in
// Detail instead of an error.
type ProbeResult struct {
	// OK is true when the environment answered the round trip.
	OK bool

	// Detail is a human-readable failure description; empty on success.
	Detail string
}

// Probe acquires (or reuses) the named profile's client and performs one
// minimal backend round trip. It never returns an error: acquisition
// failures and transport failures are both captured as OK=false with a
// detail string, so low-level exceptions never leak to the caller.
func (p *Pool) Probe(ctx context.Context, name string) ProbeResult {
	entry, err := p.Acquire(ctx, name)
	if err != nil {
		return ProbeResult{Detail: err.Error()}
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	if err := entry.Client().Ping(probeCtx); err != nil {
		return ProbeResult{Detail: fmt.Sprintf("connection test for profile %s failed: %v",
			quoteName(entry.Config().ProfileName), err)}
	}
	return ProbeResult{OK: true}
}

// TestConnection is the boolean shorthand for Probe: true when the named
// profile's environment answered, false on any failure.
func (p *Pool) TestConnection(ctx context.Context, name string) bool {
	return p.Probe(ctx, name).OK
}
