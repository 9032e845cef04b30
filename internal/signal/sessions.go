package signal

import "sync"

// sessionTable tracks, per connection, the partner of an in-progress call and
// the correlation id tying both sides (and the ringing phase before them) to
// the durable call record.
//
// Correlation entries exist from invitation; partner links exist only once
// the call is answered.
type sessionTable struct {
	mu       sync.Mutex
	partners map[string]string // connID -> partner connID
	callIDs  map[string]string // connID -> correlation id
}

func newSessionTable() *sessionTable {
	return &sessionTable{
		partners: map[string]string{},
		callIDs:  map[string]string{},
	}
}

// BeginInvitation stamps the correlation id on both the caller and the
// target, so whichever side acts next can recover it.
func (t *sessionTable) BeginInvitation(callerConn, targetConn, callID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.callIDs[callerConn] = callID
	t.callIDs[targetConn] = callID
}

// Establish links both connections symmetrically. Called on answer.
func (t *sessionTable) Establish(a, b string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.partners[a] = b
	t.partners[b] = a
}

func (t *sessionTable) Partner(connID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.partners[connID]
	return p, ok
}

// CorrelationID resolves the call record id for a connection, checking its
// own entry first and then its partner's.
func (t *sessionTable) CorrelationID(connID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.callIDs[connID]; ok {
		return id, true
	}
	if p, ok := t.partners[connID]; ok {
		if id, ok := t.callIDs[p]; ok {
			return id, true
		}
	}
	return "", false
}

// Teardown atomically removes both sides' partner links and correlation
// entries. Safe to call when no session exists. Returns the partner (if a
// session existed) and the correlation id (if one was known).
func (t *sessionTable) Teardown(connID string) (partner string, callID string, hadSession bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	partner, hadSession = t.partners[connID]
	if id, ok := t.callIDs[connID]; ok {
		callID = id
	} else if hadSession {
		callID = t.callIDs[partner]
	}

	delete(t.partners, connID)
	delete(t.callIDs, connID)
	if hadSession {
		delete(t.partners, partner)
		delete(t.callIDs, partner)
	}
	return partner, callID, hadSession
}

// DetachPartner unlinks an established pairing from connID's side, clearing
// the partner's entries entirely. connID's own correlation entry is left
// alone: it may already reference a newer invitation. The old call's id is
// recovered from the partner, whose entry still points at it.
func (t *sessionTable) DetachPartner(connID string) (partner string, callID string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	partner, ok = t.partners[connID]
	if !ok {
		return "", "", false
	}
	callID = t.callIDs[partner]

	delete(t.partners, connID)
	delete(t.partners, partner)
	delete(t.callIDs, partner)
	return partner, callID, true
}

// Drop clears one connection's entries and, when a linked partner exists,
// the partner's entries too. Used for explicit end-call where the notified
// peer is resolved by identity rather than by the link.
func (t *sessionTable) Drop(a, b string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.partners, a)
	delete(t.callIDs, a)
	if b != "" {
		delete(t.partners, b)
		delete(t.callIDs, b)
	}
}

// ActiveSessions counts established pairings.
func (t *sessionTable) ActiveSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.partners) / 2
}
