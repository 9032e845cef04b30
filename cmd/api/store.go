package main

import (
	"context"
	"errors"

	"github.com/codewithme13/signai-server/internal/calls"
	"github.com/codewithme13/signai-server/internal/users"
)

// signalStore adapts the durable repositories to the narrow surface the
// signaling router consumes. ErrNotFound from the pair-closure fallback is
// swallowed here: a teardown with no open record is not a failure.
type signalStore struct {
	users users.Repository
	calls calls.Repository
}

func (s signalStore) CreateCallRecord(ctx context.Context, callID, callerID, calleeID string) error {
	_, err := s.calls.Create(ctx, calls.CallRecord{
		ID:       callID,
		CallerID: callerID,
		CalleeID: calleeID,
	})
	return err
}

func (s signalStore) MarkCallConnected(ctx context.Context, callID string) error {
	return s.calls.MarkConnected(ctx, callID)
}

func (s signalStore) EndCallByID(ctx context.Context, callID, reason string) error {
	_, err := s.calls.EndByID(ctx, callID, calls.EndReason(reason))
	return ignoreNotFound(err)
}

func (s signalStore) EndCallByPeers(ctx context.Context, userA, userB, reason string) error {
	_, err := s.calls.EndByPeers(ctx, userA, userB, calls.EndReason(reason))
	return ignoreNotFound(err)
}

func (s signalStore) MarkUserOnline(ctx context.Context, userID, username string) error {
	return s.users.MarkOnline(ctx, userID, username)
}

func (s signalStore) SetUserOffline(ctx context.Context, userID string) error {
	return s.users.SetOffline(ctx, userID)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, calls.ErrNotFound) {
		return nil
	}
	return err
}
