package bot

import (
	"context"
	"testing"
	"time"

	"janitor/internal/locks"
)

func TestExpireReleasesUnclaimedReport(t *testing.T) {
	registry := locks.NewRegistry()
	guard, err := registry.Lock(context.Background(), "target")
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	b := &Bot{pending: make(map[string]*pendingReport)}
	pending := &pendingReport{guard: guard}
	b.pending["reporter"] = pending

	b.expirePendingReport("reporter", pending)

	if len(b.pending) != 0 {
		t.Fatalf("pending entry not removed")
	}
	relock, err := registry.Lock(context.Background(), "target")
	if err != nil {
		t.Fatalf("lock should be free after expiry: %v", err)
	}
	relock.Unlock()
}

func TestExpireKeepsGuardOfClaimedReport(t *testing.T) {
	registry := locks.NewRegistry()
	guard, err := registry.Lock(context.Background(), "target")
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	// The decision handler already claimed the entry: it is gone from the
	// map and the confirm flow still owns the guard.
	b := &Bot{pending: make(map[string]*pendingReport)}
	pending := &pendingReport{guard: guard}

	b.expirePendingReport("reporter", pending)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := registry.Lock(ctx, "target"); err == nil {
		t.Fatalf("per-user lock acquired while the confirm flow still owns the guard")
	}

	guard.Unlock()
	if registry.Len() != 0 {
		t.Fatalf("registry not empty after release")
	}
}
