package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for user persistence
type Repository interface {
	// CreateUser creates a new user
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID retrieves a user by id
	GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error)

	// GetUserByEmailOrWallet retrieves a user matching either identifier
	GetUserByEmailOrWallet(ctx context.Context, email, walletAddress string) (*User, error)

	// GetUserByIDForUpdate retrieves a user and locks the row. Must be
	// called within a transaction.
	GetUserByIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*User, error)

	// AddRewardPoints atomically increments a user's reward balance
	AddRewardPoints(ctx context.Context, userID uuid.UUID, points int64) error

	// ResetRewardPoints zeroes a user's reward balance within a transaction
	ResetRewardPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}
