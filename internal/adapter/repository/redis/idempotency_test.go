package redis

import (
	"context"
	"testing"
	"time"

	"github.com/herdpool/herdpool/internal/usecase"
)

func TestIdempotencyStoreReturnsCachedResponse(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if err := client.Set(ctx, store.prefix+"key", "cached", time.Minute).Err(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	seen, resp, err := store.CheckAndSet(ctx, "key", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if !seen || string(resp) != "cached" {
		t.Fatalf("expected cached hit, got seen=%v resp=%q", seen, resp)
	}
}

func TestIdempotencyStoreClaimsNewKey(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	seen, resp, err := store.CheckAndSet(ctx, "fresh", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if seen || resp != nil {
		t.Fatalf("expected first-time claim, got seen=%v resp=%q", seen, resp)
	}

	val, err := client.Get(ctx, store.prefix+"fresh").Result()
	if err != nil || val != usecase.IdempotencyInFlight {
		t.Fatalf("expected in-flight marker, got val=%q err=%v", val, err)
	}

	// A duplicate arriving while the first is in flight sees the marker.
	seen, resp, err = store.CheckAndSet(ctx, "fresh", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if !seen || string(resp) != usecase.IdempotencyInFlight {
		t.Fatalf("expected duplicate to observe the claim, got seen=%v resp=%q", seen, resp)
	}
}

func TestIdempotencyStoreUpdateStoresFinalResponse(t *testing.T) {
	client, _ := newTestRedisClient(t)
	store := NewIdempotencyStore(client)
	ctx := context.Background()

	if _, _, err := store.CheckAndSet(ctx, "done", nil, time.Minute); err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if err := store.Update(ctx, "done", []byte(`{"ok":true}`), time.Minute); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	seen, resp, err := store.CheckAndSet(ctx, "done", nil, time.Minute)
	if err != nil {
		t.Fatalf("CheckAndSet failed: %v", err)
	}
	if !seen || string(resp) != `{"ok":true}` {
		t.Fatalf("expected final response replay, got seen=%v resp=%q", seen, resp)
	}
}
