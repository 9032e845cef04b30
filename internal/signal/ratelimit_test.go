package signal

import (
	"testing"
	"time"
)

func TestRateLimiter_CapWithinWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := newRateLimiter(3, time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if !l.Allow("c1") {
			t.Fatalf("event %d should be allowed", i+1)
		}
	}
	if l.Allow("c1") {
		t.Fatalf("4th event should be rejected")
	}
}

func TestRateLimiter_WindowResetForgivesEntirely(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := newRateLimiter(2, time.Minute, func() time.Time { return now })

	l.Allow("c1")
	l.Allow("c1")
	if l.Allow("c1") {
		t.Fatalf("over cap should be rejected")
	}

	// The counter resets entirely at the window edge: the budget is fully
	// available again, not rolled over.
	now = now.Add(time.Minute + time.Second)
	if !l.Allow("c1") {
		t.Fatalf("first event of new window should be allowed")
	}
	if !l.Allow("c1") {
		t.Fatalf("second event of new window should be allowed")
	}
	if l.Allow("c1") {
		t.Fatalf("third event of new window should be rejected")
	}
}

func TestRateLimiter_ConnectionsAreIndependent(t *testing.T) {
	l := newRateLimiter(1, time.Minute, nil)
	if !l.Allow("c1") || !l.Allow("c2") {
		t.Fatalf("separate connections should have separate budgets")
	}
	if l.Allow("c1") {
		t.Fatalf("c1 over budget")
	}
}

func TestRateLimiter_ForgetClearsWindow(t *testing.T) {
	l := newRateLimiter(1, time.Minute, nil)
	l.Allow("c1")
	if l.Allow("c1") {
		t.Fatalf("expected rejection before forget")
	}
	l.Forget("c1")
	if !l.Allow("c1") {
		t.Fatalf("expected fresh budget after forget")
	}
}
