package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Service errors
var (
	ErrUserNotFound   = fmt.Errorf("user not found")
	ErrMissingProfile = fmt.Errorf("name, email and wallet address are required")
)

// LoginCommand carries the profile supplied at login. The wallet address is
// an opaque identifier resolved upstream; this service does not verify
// ownership of the wallet.
type LoginCommand struct {
	Name          string
	Email         string
	WalletAddress string
}

// Service implements user onboarding and lookups
type Service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Login finds the user matching the supplied email or wallet address,
// creating one on first contact. Returns the user and whether it was created.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (*User, bool, error) {
	if cmd.Name == "" || cmd.Email == "" || cmd.WalletAddress == "" {
		return nil, false, ErrMissingProfile
	}

	existing, err := s.repo.GetUserByEmailOrWallet(ctx, cmd.Email, cmd.WalletAddress)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:            uuid.New(),
		Name:          cmd.Name,
		Email:         cmd.Email,
		WalletAddress: cmd.WalletAddress,
		RewardsEarned: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if createErr := s.repo.CreateUser(ctx, user); createErr != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", createErr)
	}

	return user, true, nil
}

// GetUser retrieves a user by id
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
