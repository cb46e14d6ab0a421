package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greencycle/ewaste-exchange/internal/domain/rewards"
)

// PostgresPayoutRepository implements rewards.PayoutRepository using pgx
type PostgresPayoutRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPayoutRepository creates a new PostgreSQL payout repository
func NewPostgresPayoutRepository(pool *pgxpool.Pool) *PostgresPayoutRepository {
	return &PostgresPayoutRepository{pool: pool}
}

// SavePayout saves a payout record within a transaction
func (r *PostgresPayoutRepository) SavePayout(ctx context.Context, tx pgx.Tx, payout *rewards.Payout) error {
	query := `
		INSERT INTO payouts (id, user_id, wallet_address, points, amount, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		payout.ID,
		payout.UserID,
		payout.WalletAddress,
		payout.Points,
		payout.Amount,
		payout.TransactionID,
		payout.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payout: %w", err)
	}
	return nil
}
