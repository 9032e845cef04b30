package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/codewithme13/signai-server/internal/auth"

	"github.com/google/uuid"
)

var (
	ErrInvalidArgument = errors.New("users: invalid argument")
	ErrUsernameTaken   = errors.New("users: username already taken")
	ErrBadCredentials  = errors.New("users: bad credentials")
)

// Service covers account lifecycle: registration, login, lookups.
// Socket presence is not handled here; that belongs to internal/signal.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	name, ok := NormalizeUsername(username)
	if !ok {
		return User{}, ErrInvalidArgument
	}
	if !ValidPassword(password) {
		return User{}, ErrInvalidArgument
	}

	if _, err := s.repo.GetByUsername(ctx, name); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("username lookup: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Username:     name,
		PasswordHash: hash,
	})
	if errors.Is(err, ErrDuplicateUsername) {
		// Lost a race with a concurrent registration of the same name.
		return User{}, ErrUsernameTaken
	}
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	u.PasswordHash = ""
	return u, nil
}

// Login verifies credentials and marks the account online.
func (s *Service) Login(ctx context.Context, username, password string) (User, error) {
	name, ok := NormalizeUsername(username)
	if !ok || password == "" {
		return User{}, ErrInvalidArgument
	}

	u, err := s.repo.GetByUsername(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("username lookup: %w", err)
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		return User{}, ErrBadCredentials
	}

	if err := s.repo.MarkOnline(ctx, u.ID, u.Username); err != nil {
		return User{}, fmt.Errorf("mark online: %w", err)
	}
	u.PasswordHash = ""
	u.IsOnline = true
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if err := uuid.Validate(id); err != nil {
		return User{}, ErrInvalidArgument
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *Service) Online(ctx context.Context) ([]User, error) {
	return s.repo.ListOnline(ctx)
}
