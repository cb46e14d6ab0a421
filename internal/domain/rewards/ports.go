package rewards

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// PayoutRepository defines the interface for payout persistence
type PayoutRepository interface {
	// SavePayout saves a payout record within a transaction
	SavePayout(ctx context.Context, tx pgx.Tx, payout *Payout) error
}

// Leaderboard maintains the reward-point ranking of wallets
type Leaderboard interface {
	// AddPoints adjusts a wallet's score by the given delta
	AddPoints(ctx context.Context, walletAddress string, delta int64) error

	// Top returns the highest-scoring wallets, best first
	Top(ctx context.Context, n int64) ([]LeaderboardEntry, error)
}
