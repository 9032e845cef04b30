package config

import (
	"testing"
	"time"
)

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 3001},
		Store: StoreConfig{Backend: BackendPostgres},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "signai_db", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret", JWTIssuer: "signai"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 3001},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "signai_db", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Store.Backend != BackendPostgres {
		t.Fatalf("expected postgres default backend, got %q", c.Store.Backend)
	}
}

func TestValidate_MemoryBackendSkipsDBChecks(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 3001},
		Store: StoreConfig{Backend: BackendMemory},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_MemoryBackendForbiddenInProduction(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 3001},
		Store: StoreConfig{Backend: BackendMemory},
		Auth:  AuthConfig{JWTSecret: "secret", JWTIssuer: "signai"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for memory backend in production")
	}
}

func TestLoad_ReadsSignalRateKnobs(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("APP_PORT", "3001")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SIGNAL_RATE_MAX", "7")
	t.Setenv("SIGNAL_RATE_WINDOW", "30s")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Rate.SocketMax != 7 || c.Rate.SocketWindow != 30*time.Second {
		t.Fatalf("signal rate knobs not honored: %+v", c.Rate)
	}
}

func TestValidate_RateAndTokenDefaults(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 3001},
		Store: StoreConfig{Backend: BackendMemory},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.Auth.TokenTTL != 7*24*time.Hour {
		t.Fatalf("expected 7d token ttl default, got %v", c.Auth.TokenTTL)
	}
	if c.Rate.SocketMax != 50 || c.Rate.SocketWindow != time.Minute {
		t.Fatalf("unexpected socket rate defaults: %+v", c.Rate)
	}
	if c.Rate.APIMax != 100 || c.Rate.APIWindow != time.Minute {
		t.Fatalf("unexpected api rate defaults: %+v", c.Rate)
	}
	if c.Upload.MaxBytes != 2<<20 {
		t.Fatalf("unexpected upload cap: %d", c.Upload.MaxBytes)
	}
}
