package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/nbatrivia/internal/models"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 50
	recentGamesLimit        = 10
)

// StatsReader defines the read side of player statistics
type StatsReader interface {
	GetGlobal(ctx context.Context, userID string) (*models.GlobalStats, error)
	ListModes(ctx context.Context, userID string) ([]models.ModeStats, error)
	Rank(ctx context.Context, userID string) (int, error)
	TopByPoints(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	RecentSessions(ctx context.Context, userID string, limit int) ([]models.GameSession, error)
}

// StatsService serves player profiles and the leaderboard.
type StatsService struct {
	users  UserRepository
	stats  StatsReader
	cache  LeaderboardCache
	logger *slog.Logger
}

// NewStatsService creates a StatsService. cache may be nil.
func NewStatsService(users UserRepository, stats StatsReader, cache LeaderboardCache, logger *slog.Logger) *StatsService {
	return &StatsService{
		users:  users,
		stats:  stats,
		cache:  cache,
		logger: logger,
	}
}

// GetUserStats assembles the profile, totals, per-mode records and rank of one user.
func (s *StatsService) GetUserStats(ctx context.Context, userID string) (*models.UserStatsSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	summary := &models.UserStatsSummary{
		Profile: models.Profile{Username: user.Username, Email: user.Email, JoinDate: user.CreatedAt},
	}

	global, err := s.stats.GetGlobal(ctx, userID)
	switch {
	case err == nil:
		summary.Global = *global
	case errors.Is(err, models.ErrNotFound):
		// No games played yet.
	default:
		s.logger.Error("failed to get global stats", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if summary.Modes, err = s.stats.ListModes(ctx, userID); err != nil {
		s.logger.Error("failed to list mode stats", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if summary.Rank, err = s.stats.Rank(ctx, userID); err != nil {
		s.logger.Error("failed to compute rank", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if summary.Recent, err = s.stats.RecentSessions(ctx, userID, recentGamesLimit); err != nil {
		s.logger.Error("failed to list recent games", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return summary, nil
}

// Leaderboard returns the top players by total points. The cache holds the
// full MaxLeaderboardLimit entries and is refilled from the database on a miss.
func (s *StatsService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = clampLimit(limit, DefaultLeaderboardLimit, MaxLeaderboardLimit)

	cacheable := false
	var gen int64
	if s.cache != nil {
		entries, err := s.cache.Top(ctx, limit)
		if err == nil {
			return entries, nil
		}
		s.logger.Debug("leaderboard cache miss", slog.Any("reason", err))

		// The generation must be read before the database so that a
		// submission committed in between discards this rebuild.
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.logger.Warn("failed to read leaderboard generation", slog.Any("error", err))
		} else {
			cacheable = true
		}
	}

	entries, err := s.stats.TopByPoints(ctx, MaxLeaderboardLimit)
	if err != nil {
		s.logger.Error("failed to load leaderboard", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if cacheable {
		if err := s.cache.Store(ctx, gen, entries); err != nil {
			s.logger.Warn("failed to cache leaderboard", slog.Any("error", err))
		}
	}

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
