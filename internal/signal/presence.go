package signal

import "sync"

// presenceRegistry is the bidirectional user↔connection mapping.
//
// Last register wins: a newer connection claiming a user id overwrites the
// forward mapping without evicting the superseded connection's own reverse
// entry. That stale entry is cleared only when its connection disconnects,
// and Remove's currency guard keeps it from clobbering the newer mapping.
type presenceRegistry struct {
	mu     sync.RWMutex
	byUser map[string]string   // userID -> connID
	byConn map[string]Identity // connID -> identity
}

func newPresenceRegistry() *presenceRegistry {
	return &presenceRegistry{
		byUser: map[string]string{},
		byConn: map[string]Identity{},
	}
}

// Register installs both directions of the mapping. Idempotent under
// identical arguments.
func (p *presenceRegistry) Register(connID string, id Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byUser[id.UserID] = connID
	p.byConn[connID] = id
}

func (p *presenceRegistry) ConnFor(userID string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.byUser[userID]
	return connID, ok
}

func (p *presenceRegistry) IdentityFor(connID string) (Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.byConn[connID]
	return id, ok
}

// Remove deletes the connection's entry, and the forward mapping only if
// this connection is still the current one for its user.
func (p *presenceRegistry) Remove(connID string) (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.byConn[connID]
	if !ok {
		return Identity{}, false
	}
	delete(p.byConn, connID)
	if p.byUser[id.UserID] == connID {
		delete(p.byUser, id.UserID)
	}
	return id, true
}

// Others snapshots every registered identity except the given connection's.
func (p *presenceRegistry) Others(exceptConnID string) []Identity {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Identity, 0, len(p.byConn))
	for connID, id := range p.byConn {
		if connID == exceptConnID {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Users reports how many user identities are currently registered.
func (p *presenceRegistry) Users() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byUser)
}
