package utils

import "testing"

func TestPostgresPoolConfigDefaults(t *testing.T) {
	cfg := PostgresPoolConfig{}.withDefaults()
	if cfg.MaxOpenConns <= 0 || cfg.MaxIdleConns <= 0 {
		t.Fatalf("expected positive pool defaults, got %+v", cfg)
	}
	if cfg.PingTimeout <= 0 {
		t.Fatalf("expected ping timeout default, got %+v", cfg)
	}
}

func TestPostgresPoolConfigKeepsExplicitValues(t *testing.T) {
	cfg := PostgresPoolConfig{MaxOpenConns: 7, MaxIdleConns: 3}.withDefaults()
	if cfg.MaxOpenConns != 7 || cfg.MaxIdleConns != 3 {
		t.Fatalf("explicit values overridden: %+v", cfg)
	}
}
