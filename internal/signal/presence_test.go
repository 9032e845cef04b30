package signal

import "testing"

func TestPresence_ForwardAndReverseAgree(t *testing.T) {
	p := newPresenceRegistry()
	p.Register("conn-1", Identity{UserID: "u1", Username: "alice"})

	connID, ok := p.ConnFor("u1")
	if !ok || connID != "conn-1" {
		t.Fatalf("forward lookup: got %q, %v", connID, ok)
	}
	id, ok := p.IdentityFor("conn-1")
	if !ok || id.UserID != "u1" || id.Username != "alice" {
		t.Fatalf("reverse lookup: got %+v, %v", id, ok)
	}
}

func TestPresence_RegisterIsIdempotent(t *testing.T) {
	p := newPresenceRegistry()
	p.Register("conn-1", Identity{UserID: "u1", Username: "alice"})
	p.Register("conn-1", Identity{UserID: "u1", Username: "alice"})

	if n := p.Users(); n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
	if connID, _ := p.ConnFor("u1"); connID != "conn-1" {
		t.Fatalf("unexpected conn: %q", connID)
	}
}

func TestPresence_LastRegisterWins(t *testing.T) {
	p := newPresenceRegistry()
	p.Register("conn-old", Identity{UserID: "u1", Username: "alice"})
	p.Register("conn-new", Identity{UserID: "u1", Username: "alice"})

	connID, _ := p.ConnFor("u1")
	if connID != "conn-new" {
		t.Fatalf("expected conn-new to own u1, got %q", connID)
	}
	// The superseded connection keeps its own reverse entry until it
	// disconnects.
	if _, ok := p.IdentityFor("conn-old"); !ok {
		t.Fatalf("expected stale reverse entry to survive")
	}
}

func TestPresence_RemoveGuardsCurrency(t *testing.T) {
	p := newPresenceRegistry()
	p.Register("conn-old", Identity{UserID: "u1", Username: "alice"})
	p.Register("conn-new", Identity{UserID: "u1", Username: "alice"})

	// The stale connection's disconnect must not clear the newer mapping.
	if _, ok := p.Remove("conn-old"); !ok {
		t.Fatalf("expected removal of stale entry")
	}
	connID, ok := p.ConnFor("u1")
	if !ok || connID != "conn-new" {
		t.Fatalf("newer mapping was clobbered: got %q, %v", connID, ok)
	}

	// Removing the current connection clears the forward mapping too.
	p.Remove("conn-new")
	if _, ok := p.ConnFor("u1"); ok {
		t.Fatalf("expected forward mapping gone")
	}
}

func TestPresence_OthersExcludesCaller(t *testing.T) {
	p := newPresenceRegistry()
	p.Register("conn-1", Identity{UserID: "u1", Username: "alice"})
	p.Register("conn-2", Identity{UserID: "u2", Username: "bob"})
	p.Register("conn-3", Identity{UserID: "u3", Username: "carol"})

	others := p.Others("conn-1")
	if len(others) != 2 {
		t.Fatalf("expected 2 others, got %d", len(others))
	}
	for _, o := range others {
		if o.UserID == "u1" {
			t.Fatalf("snapshot must not include the caller")
		}
	}
}
