package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is the in-memory backend, also used as a test fake. Usernames in
// history reads come from an optional resolver so the package does not depend
// on internal/users.
type MemoryRepo struct {
	mu      sync.Mutex
	records map[string]CallRecord
	clock   func() time.Time

	// UsernameFor resolves a user id to a display name for history reads.
	// Optional; history carries empty names when unset.
	UsernameFor func(userID string) string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{records: map[string]CallRecord{}, clock: time.Now}
}

func (r *MemoryRepo) Create(ctx context.Context, rec CallRecord) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Status = StatusInitiated
	rec.StartedAt = r.clock().UTC()
	r.records[rec.ID] = rec
	return rec, nil
}

func (r *MemoryRepo) MarkConnected(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.Status != StatusInitiated {
		return nil
	}
	rec.Status = StatusConnected
	rec.StartedAt = r.clock().UTC()
	r.records[id] = rec
	return nil
}

func (r *MemoryRepo) EndByID(ctx context.Context, id string, reason EndReason) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || !rec.Status.Open() {
		return CallRecord{}, ErrNotFound
	}
	return r.end(rec, reason), nil
}

func (r *MemoryRepo) EndByPeers(ctx context.Context, a, b string, reason EndReason) (CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last CallRecord
	found := false
	for _, rec := range r.records {
		if !rec.Status.Open() {
			continue
		}
		if (rec.CallerID == a && rec.CalleeID == b) || (rec.CallerID == b && rec.CalleeID == a) {
			last = r.end(rec, reason)
			found = true
		}
	}
	if !found {
		return CallRecord{}, ErrNotFound
	}
	return last, nil
}

func (r *MemoryRepo) HistoryForUser(ctx context.Context, userID string, limit int) ([]CallRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CallRecord, 0)
	for _, rec := range r.records {
		if rec.CallerID != userID && rec.CalleeID != userID {
			continue
		}
		if r.UsernameFor != nil {
			rec.CallerName = r.UsernameFor(rec.CallerID)
			rec.CalleeName = r.UsernameFor(rec.CalleeID)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns a record by id. Test helper, not part of Repository.
func (r *MemoryRepo) Get(id string) (CallRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	return rec, ok
}

func (r *MemoryRepo) end(rec CallRecord, reason EndReason) CallRecord {
	now := r.clock().UTC()
	rec.Status = StatusEnded
	rec.EndReason = reason
	rec.EndedAt = &now
	rec.DurationSeconds = int(now.Sub(rec.StartedAt) / time.Second)
	r.records[rec.ID] = rec
	return rec
}
