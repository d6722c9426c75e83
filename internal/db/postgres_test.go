package db

import (
	"testing"
	"time"

	"github.com/hackgods/telemed-routing/internal/config"
)

func TestPoolConfig_AppliesLimits(t *testing.T) {
	pc, err := poolConfig(config.Config{
		PostgresDSN:    "postgres://app:pw@localhost:5432/telemed",
		PgMaxConns:     40,
		PgMinConns:     4,
		PgConnLifetime: 30 * time.Minute,
		PgConnIdleTime: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.MaxConns != 40 || pc.MinConns != 4 {
		t.Errorf("pool size %d/%d, want 4/40", pc.MinConns, pc.MaxConns)
	}
	if pc.MaxConnLifetime != 30*time.Minute || pc.MaxConnIdleTime != 5*time.Minute {
		t.Errorf("unexpected lifetimes %s/%s", pc.MaxConnLifetime, pc.MaxConnIdleTime)
	}
}

func TestPoolConfig_DSNPoolSizeWhenUnset(t *testing.T) {
	pc, err := poolConfig(config.Config{PostgresDSN: "postgres://localhost/telemed?pool_max_conns=7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pc.MaxConns != 7 {
		t.Errorf("expected DSN pool_max_conns to stand, got %d", pc.MaxConns)
	}
}

func TestPoolConfig_InvalidDSN(t *testing.T) {
	if _, err := poolConfig(config.Config{PostgresDSN: "postgres://%zz"}); err == nil {
		t.Fatal("expected parse error")
	}
}
