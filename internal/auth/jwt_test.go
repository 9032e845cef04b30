package auth

import (
	"testing"
	"time"

	"github.com/codewithme13/signai-server/internal/config"
)

func TestIssueAndVerifyToken(t *testing.T) {
	m, err := NewManager(config.AuthConfig{
		JWTSecret: "secret",
		JWTIssuer: "signai",
		TokenTTL:  7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "user-1", "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tok == "" {
		t.Fatalf("expected token string")
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyJudgesExpiryByInjectedClock(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Minute})

	// A token minted years ago must still verify when the caller's clock
	// sits inside its lifetime; the process clock is irrelevant.
	issued := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(issued, "u", "n")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, issued.Add(30*time.Second)); err != nil {
		t.Fatalf("verify within lifetime: %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m, _ := NewManager(config.AuthConfig{JWTSecret: "secret", TokenTTL: time.Minute})
	now := time.Unix(1700000000, 0).UTC()
	tok, err := m.Issue(now, "u", "n")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(time.Hour)); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	m1, _ := NewManager(config.AuthConfig{JWTSecret: "one", TokenTTL: time.Hour})
	m2, _ := NewManager(config.AuthConfig{JWTSecret: "two", TokenTTL: time.Hour})
	now := time.Now()
	tok, err := m1.Issue(now, "u", "n")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m2.Verify(tok, now); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	h, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword("hunter22", h) {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword("wrong", h) {
		t.Fatalf("expected mismatch to fail")
	}
}
