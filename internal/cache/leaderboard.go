// Package cache keeps the public leaderboard in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/config"
	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	leaderboardKey = "leaderboard:points"
	entriesKey     = "leaderboard:entries"
	warmKey        = "leaderboard:warm"
	generationKey  = "leaderboard:generation"
)

// ErrMiss means the cached leaderboard is absent or stale.
var ErrMiss = errors.New("leaderboard cache miss")

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	logger.Info("redis connection established", slog.String("addr", cfg.Addr))
	return client, nil
}

// Leaderboard stores the top players as a sorted set of user ids scored by
// position, plus a hash of their display rows. The whole board is replaced at
// once and expires after ttl.
//
// Every Invalidate bumps a generation counter. A board built from a database
// read is only stored if no invalidation happened since the reader took its
// generation, so a slow reader cannot put back rows a submission made stale.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboard(client *redis.Client, ttl time.Duration) *Leaderboard {
	return &Leaderboard{client: client, ttl: ttl}
}

// Top returns up to limit cached entries in board order.
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	warm, err := l.client.Exists(ctx, warmKey).Result()
	if err != nil {
		return nil, err
	}
	if warm == 0 {
		return nil, ErrMiss
	}

	ids, err := l.client.ZRange(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	raw, err := l.client.HMGet(ctx, entriesKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			// set and hash disagree; rebuild from the database
			return nil, ErrMiss
		}
		var e models.LeaderboardEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			return nil, fmt.Errorf("decode leaderboard entry: %w", err)
		}
		e.UserID = ids[i]
		e.Rank = i + 1
		entries = append(entries, e)
	}
	return entries, nil
}

// Generation returns the current invalidation generation. Read it before
// loading the rows passed to Store.
func (l *Leaderboard) Generation(ctx context.Context) (int64, error) {
	gen, err := l.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Store replaces the cached board with entries built at generation gen. The
// write is skipped when the board was invalidated after gen was read.
func (l *Leaderboard) Store(ctx context.Context, gen int64, entries []models.LeaderboardEntry) error {
	encoded := make([]string, len(entries))
	for i, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode leaderboard entry: %w", err)
		}
		encoded[i] = string(b)
	}

	err := l.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return redis.TxFailedErr
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, leaderboardKey, entriesKey)
			for i, e := range entries {
				pipe.ZAdd(ctx, leaderboardKey, redis.Z{Score: float64(i), Member: e.UserID})
				pipe.HSet(ctx, entriesKey, e.UserID, encoded[i])
			}
			pipe.Set(ctx, warmKey, "1", l.ttl)
			return nil
		})
		return err
	}, generationKey)

	if errors.Is(err, redis.TxFailedErr) {
		// invalidated while the rows were loaded; the next read rebuilds
		return nil
	}
	return err
}

// Invalidate marks the board stale and advances the generation so that
// in-flight rebuilds are discarded.
func (l *Leaderboard) Invalidate(ctx context.Context) error {
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, warmKey)
		return nil
	})
	return err
}

func (l *Leaderboard) HealthCheck(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
