package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("users: not found")

	// ErrDuplicateUsername is returned by Create when the username is
	// already claimed by another account.
	ErrDuplicateUsername = errors.New("users: duplicate username")
)

// Repository is the persistence contract for user accounts and their
// durable presence flag.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)

	// MarkOnline upserts the user row and flips is_online.
	// Invoked on login and on every socket register.
	MarkOnline(ctx context.Context, id, username string) error
	SetOffline(ctx context.Context, id string) error

	ListOnline(ctx context.Context) ([]User, error)

	// ResetPresence clears is_online everywhere. Run at boot: rows left
	// online by a previous process are stale.
	ResetPresence(ctx context.Context) error
}
