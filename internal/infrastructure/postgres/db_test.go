package postgres

import (
	"context"
	"testing"
)

func TestNewPoolWithConfigRejectsBadURL(t *testing.T) {
	_, err := NewPoolWithConfig(context.Background(), PoolConfig{DatabaseURL: "not-a-url"})
	if err == nil {
		t.Fatalf("expected error for malformed URL")
	}
}

func TestNewPoolWithConfigUnreachableHost(t *testing.T) {
	cfg := PoolConfig{
		DatabaseURL: "postgres://nobody@127.0.0.1:1/herdpool",
		MaxConns:    1,
	}

	if _, err := NewPoolWithConfig(context.Background(), cfg); err == nil {
		t.Fatalf("expected error when the database is unreachable")
	}
}

func TestNewPoolWrapperRejectsBadURL(t *testing.T) {
	if _, err := NewPool(context.Background(), "not-a-url", 1, 0); err == nil {
		t.Fatalf("expected error for malformed URL")
	}
}
