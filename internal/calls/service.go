package calls

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidArgument = errors.New("calls: invalid argument")

const defaultHistoryLimit = 20

// Service exposes call history to the REST layer. Record mutation goes
// through the signaling router, not here.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) History(ctx context.Context, userID string) ([]CallRecord, error) {
	if err := uuid.Validate(userID); err != nil {
		return nil, ErrInvalidArgument
	}
	return s.repo.HistoryForUser(ctx, userID, defaultHistoryLimit)
}
