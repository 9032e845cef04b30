package users

import (
	"strings"
	"time"
)

// User is a durable participant identity. The ID is a UUID minted at account
// registration and never changes; presence (IsOnline) is a soft flag mirrored
// from the in-memory registry for REST consumers.
type User struct {
	ID       string `json:"userId" db:"id"`
	Username string `json:"username" db:"username"`

	// PasswordHash is only populated on credential lookups.
	PasswordHash string `json:"-" db:"password_hash"`

	IsOnline  bool      `json:"isOnline" db:"is_online"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	LastSeen  time.Time `json:"lastSeen" db:"last_seen"`
}

// NormalizeUsername trims and bounds a display name.
// Valid usernames are 2-50 characters after trimming.
func NormalizeUsername(v string) (string, bool) {
	t := strings.TrimSpace(v)
	if len(t) < 2 || len(t) > 50 {
		return "", false
	}
	return t, true
}

// ValidPassword bounds raw passwords before hashing.
func ValidPassword(v string) bool {
	return len(v) >= 6 && len(v) <= 100
}
