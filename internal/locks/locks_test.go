package locks

import (
	"context"
	"testing"
	"time"
)

func TestLockMutualExclusion(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	guard, err := registry.Lock(ctx, "user1")
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		second, err := registry.Lock(ctx, "user1")
		if err != nil {
			t.Errorf("second lock failed: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		second.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatalf("second lock acquired while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	guard.Unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second lock never acquired after first release")
	}
}

func TestLockDifferentUsersIndependent(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	g1, err := registry.Lock(ctx, "user1")
	if err != nil {
		t.Fatalf("lock user1: %v", err)
	}
	done := make(chan struct{})
	go func() {
		g2, err := registry.Lock(ctx, "user2")
		if err != nil {
			t.Errorf("lock user2: %v", err)
		} else {
			g2.Unlock()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock for a different user blocked")
	}
	g1.Unlock()
}

func TestEntryRemovedAfterLastRelease(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	guard, err := registry.Lock(ctx, "user1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if !registry.Contains("user1") {
		t.Fatalf("expected an entry while the lock is held")
	}

	guard.Unlock()
	if registry.Contains("user1") {
		t.Fatalf("expected the entry to be removed after release")
	}
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", registry.Len())
	}
}

func TestUnlockIdempotent(t *testing.T) {
	registry := NewRegistry()
	ctx := context.Background()

	guard, err := registry.Lock(ctx, "user1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	guard.Unlock()
	guard.Unlock()

	again, err := registry.Lock(ctx, "user1")
	if err != nil {
		t.Fatalf("relock after double unlock: %v", err)
	}
	again.Unlock()
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", registry.Len())
	}
}

func TestTryLock(t *testing.T) {
	registry := NewRegistry()

	guard, ok := registry.TryLock("u1")
	if !ok {
		t.Fatalf("trylock on a free user must succeed")
	}

	if _, ok := registry.TryLock("u1"); ok {
		t.Fatalf("trylock must fail while the lock is held")
	}

	guard.Unlock()
	if registry.Len() != 0 {
		t.Fatalf("registry must be empty after the failed attempt released its ref")
	}

	guard, ok = registry.TryLock("u1")
	if !ok {
		t.Fatalf("trylock must succeed again after unlock")
	}
	guard.Unlock()
}

func TestLockContextCancelled(t *testing.T) {
	registry := NewRegistry()

	guard, err := registry.Lock(context.Background(), "user1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := registry.Lock(ctx, "user1"); err == nil {
		t.Fatalf("expected an error when the context expires while waiting")
	}

	guard.Unlock()
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry after cancelled waiter, got %d entries", registry.Len())
	}
}
