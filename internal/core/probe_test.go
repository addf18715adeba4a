package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestProbeSuccess(t *testing.T) {
	t.Parallel()

	f := &countingFactory{}
	p := newTestPool(t, settingsWithDefault(), f)

	res := p.Probe(context.Background(), "dev")
	if !res.OK {
		t.Fatalf("Probe() = %+v, want OK", res)
	}
	if res.Detail != "" {
		t.Errorf("Probe() detail = %q, want empty on success", res.Detail)
	}
	if got := f.clients[0].pings.Load(); got != 1 {
		t.Errorf("client pinged %d times, want 1", got)
	}

	if !p.TestConnection(context.Background(), "dev") {
		t.Error("TestConnection() = false, want true")
	}
}

func TestProbeConfigurationFailure(t *testing.T) {
	t.Parallel()

	p := newTestPool(t, Settings{}, &countingFactory{})

	res := p.Probe(context.Background(), "missing")
	if res.OK {
		t.Fatal("Probe() OK on unresolvable profile")
	}
	if res.Detail == "" {
		t.Error("Probe() detail empty, want a failure description")
	}
	if p.TestConnection(context.Background(), "missing") {
		t.Error("TestConnection() = true on unresolvable profile")
	}
}

func TestProbeConstructionFailure(t *testing.T) {
	t.Parallel()

	f := &countingFactory{err: errors.New("dial refused")}
	p := newTestPool(t, settingsWithDefault(), f)

	res := p.Probe(context.Background(), "dev")
	if res.OK {
		t.Fatal("Probe() OK despite construction failure")
	}
	if !strings.Contains(res.Detail, "dial refused") {
		t.Errorf("Probe() detail %q should carry the construction cause", res.Detail)
	}
}

func TestProbePingFailure(t *testing.T) {
	t.Parallel()

	f := &countingFactory{}
	p := newTestPool(t, settingsWithDefault(), f)

	// Build the client first, then make its pings fail.
	if _, err := p.Acquire(context.Background(), "dev"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	f.clients[0].pingErr = errors.New("401 unauthorized")

	res := p.Probe(context.Background(), "dev")
	if res.OK {
		t.Fatal("Probe() OK despite ping failure")
	}
	if !strings.Contains(res.Detail, "connection test for profile") {
		t.Errorf("Probe() detail %q should describe the failed test", res.Detail)
	}
	if !strings.Contains(res.Detail, "401 unauthorized") {
		t.Errorf("Probe() detail %q should carry the transport cause", res.Detail)
	}
}
