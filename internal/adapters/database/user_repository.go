package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greencycle/ewaste-exchange/internal/domain/users"
)

// PostgresUserRepository implements users.Repository using pgx
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgreSQL user repository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// CreateUser creates a new user
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (id, name, email, wallet_address, rewards_earned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.WalletAddress,
		user.RewardsEarned,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by id
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*users.User, error) {
	query := `
		SELECT id, name, email, wallet_address, rewards_earned, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return scanUser(r.pool.QueryRow(ctx, query, userID))
}

// GetUserByEmailOrWallet retrieves a user matching either identifier
func (r *PostgresUserRepository) GetUserByEmailOrWallet(ctx context.Context, email, walletAddress string) (*users.User, error) {
	query := `
		SELECT id, name, email, wallet_address, rewards_earned, created_at, updated_at
		FROM users
		WHERE email = $1 OR wallet_address = $2
	`
	return scanUser(r.pool.QueryRow(ctx, query, email, walletAddress))
}

// GetUserByIDForUpdate retrieves a user and locks the row.
// Must be called within a transaction.
func (r *PostgresUserRepository) GetUserByIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*users.User, error) {
	query := `
		SELECT id, name, email, wallet_address, rewards_earned, created_at, updated_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	return scanUser(tx.QueryRow(ctx, query, userID))
}

func scanUser(row pgx.Row) (*users.User, error) {
	var user users.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.WalletAddress,
		&user.RewardsEarned,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// AddRewardPoints atomically increments a user's reward balance
func (r *PostgresUserRepository) AddRewardPoints(ctx context.Context, userID uuid.UUID, points int64) error {
	query := `
		UPDATE users
		SET rewards_earned = rewards_earned + $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.pool.Exec(ctx, query, points, userID)
	if err != nil {
		return fmt.Errorf("failed to add reward points: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// ResetRewardPoints zeroes a user's reward balance within a transaction
func (r *PostgresUserRepository) ResetRewardPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	query := `
		UPDATE users
		SET rewards_earned = 0, updated_at = NOW()
		WHERE id = $1
	`
	result, err := tx.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to reset reward points: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
