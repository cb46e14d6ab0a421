package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/greencycle/ewaste-exchange/internal/domain/rewards"
)

const leaderboardKey = "rewards:leaderboard"

// RedisLeaderboard implements rewards.Leaderboard on a Redis sorted set
// keyed by wallet address.
type RedisLeaderboard struct {
	client *redis.Client
}

// NewRedisLeaderboard creates a new Redis-backed leaderboard
func NewRedisLeaderboard(client *redis.Client) *RedisLeaderboard {
	return &RedisLeaderboard{client: client}
}

// AddPoints adjusts a wallet's score by the given delta
func (l *RedisLeaderboard) AddPoints(ctx context.Context, walletAddress string, delta int64) error {
	if err := l.client.ZIncrBy(ctx, leaderboardKey, float64(delta), walletAddress).Err(); err != nil {
		return fmt.Errorf("failed to update leaderboard: %w", err)
	}
	return nil
}

// Top returns the highest-scoring wallets, best first
func (l *RedisLeaderboard) Top(ctx context.Context, n int64) ([]rewards.LeaderboardEntry, error) {
	if n <= 0 {
		n = 10
	}

	scores, err := l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]rewards.LeaderboardEntry, 0, len(scores))
	for _, z := range scores {
		wallet, ok := z.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, rewards.LeaderboardEntry{
			WalletAddress: wallet,
			Points:        int64(z.Score),
		})
	}
	return entries, nil
}
