package calls

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("calls: not found")

// Repository is the persistence contract for call records.
//
// The signaling core treats every write here as best-effort: a failure is
// logged by the caller and never surfaced to either peer.
type Repository interface {
	// Create inserts a new record in status "initiated". The ID is supplied
	// by the caller (the router mints it as the correlation id).
	Create(ctx context.Context, rec CallRecord) (CallRecord, error)

	// MarkConnected transitions an open record to "connected" and restamps
	// started_at, so duration measures connected time.
	MarkConnected(ctx context.Context, id string) error

	// EndByID closes an open record. Returns ErrNotFound when no open record
	// has that id.
	EndByID(ctx context.Context, id string, reason EndReason) (CallRecord, error)

	// EndByPeers closes every open record between the two identities, in
	// either direction. Fallback for teardowns where the correlation id is
	// not resolvable. Returns ErrNotFound when nothing was open.
	EndByPeers(ctx context.Context, a, b string, reason EndReason) (CallRecord, error)

	// HistoryForUser lists the most recent records involving the user,
	// newest first, with counterpart usernames resolved.
	HistoryForUser(ctx context.Context, userID string, limit int) ([]CallRecord, error)
}
