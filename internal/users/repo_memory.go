package users

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is the in-memory backend, also used as a test fake.
type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]User
	clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]User{}, clock: time.Now}
}

func (r *MemoryRepo) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Username == u.Username {
			return User{}, ErrDuplicateUsername
		}
	}
	now := r.clock().UTC()
	u.CreatedAt = now
	u.LastSeen = now
	u.IsOnline = false
	r.byID[u.ID] = u
	return u, nil
}

func (r *MemoryRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) MarkOnline(ctx context.Context, id, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		u = User{ID: id, CreatedAt: r.clock().UTC()}
	}
	u.Username = username
	u.IsOnline = true
	u.LastSeen = r.clock().UTC()
	r.byID[id] = u
	return nil
}

func (r *MemoryRepo) SetOffline(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil
	}
	u.IsOnline = false
	u.LastSeen = r.clock().UTC()
	r.byID[id] = u
	return nil
}

func (r *MemoryRepo) ListOnline(ctx context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, 0)
	for _, u := range r.byID {
		if u.IsOnline {
			u.PasswordHash = ""
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastSeen.After(out[j].LastSeen) })
	return out, nil
}

func (r *MemoryRepo) ResetPresence(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.byID {
		u.IsOnline = false
		r.byID[id] = u
	}
	return nil
}
