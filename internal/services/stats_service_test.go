package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaderboardRows(n int) []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, n)
	for i := range out {
		out[i] = models.LeaderboardEntry{Rank: i + 1, Username: "player", TotalPoints: 1000 - i}
	}
	return out
}

func TestStatsService_GetUserStats(t *testing.T) {
	joined := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Username: "bird33", Email: "larry@celtics.com", CreatedAt: joined}, nil
		},
	}
	reader := &MockStatsReader{
		GetGlobalFunc: func(ctx context.Context, userID string) (*models.GlobalStats, error) {
			return &models.GlobalStats{UserID: userID, TotalPoints: 120, DailyStreak: 2}, nil
		},
		ListModesFunc: func(ctx context.Context, userID string) ([]models.ModeStats, error) {
			return []models.ModeStats{{GameMode: "trivia", GamesPlayed: 4, BestScore: 40}}, nil
		},
		RankFunc: func(ctx context.Context, userID string) (int, error) { return 3, nil },
		RecentSessionsFunc: func(ctx context.Context, userID string, limit int) ([]models.GameSession, error) {
			assert.Equal(t, 10, limit)
			return []models.GameSession{{ID: 8, GameMode: "trivia", Score: 40}}, nil
		},
	}

	summary, err := NewStatsService(users, reader, nil, testLogger()).GetUserStats(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, models.Profile{Username: "bird33", Email: "larry@celtics.com", JoinDate: joined}, summary.Profile)
	assert.Equal(t, 120, summary.Global.TotalPoints)
	assert.Equal(t, 3, summary.Rank)
	assert.Len(t, summary.Modes, 1)
	assert.Len(t, summary.Recent, 1)
}

func TestStatsService_GetUserStats_NoGamesYet(t *testing.T) {
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Username: "rookie"}, nil
		},
	}

	summary, err := NewStatsService(users, &MockStatsReader{}, nil, testLogger()).GetUserStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.GlobalStats{}, summary.Global)
	assert.Empty(t, summary.Modes)
}

func TestStatsService_GetUserStats_UnknownUser(t *testing.T) {
	_, err := NewStatsService(&MockUserRepository{}, &MockStatsReader{}, nil, testLogger()).GetUserStats(context.Background(), "gone")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStatsService_Leaderboard_CacheHit(t *testing.T) {
	cache := &MockLeaderboardCache{
		TopFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			return leaderboardRows(limit), nil
		},
	}
	reader := &MockStatsReader{
		TopByPointsFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			t.Fatal("database must not be queried on a cache hit")
			return nil, nil
		},
	}

	entries, err := NewStatsService(&MockUserRepository{}, reader, cache, testLogger()).Leaderboard(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestStatsService_Leaderboard_MissRefillsCache(t *testing.T) {
	var stored []models.LeaderboardEntry
	cache := &MockLeaderboardCache{
		TopFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			return nil, errors.New("miss")
		},
		StoreFunc: func(ctx context.Context, gen int64, entries []models.LeaderboardEntry) error {
			stored = entries
			return nil
		},
	}
	reader := &MockStatsReader{
		TopByPointsFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			assert.Equal(t, MaxLeaderboardLimit, limit)
			return leaderboardRows(30), nil
		},
	}

	entries, err := NewStatsService(&MockUserRepository{}, reader, cache, testLogger()).Leaderboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLeaderboardLimit)
	assert.Len(t, stored, 30)
}

func TestStatsService_Leaderboard_StoresUnderGenerationReadBeforeQuery(t *testing.T) {
	var calls []string
	var storedGen int64
	cache := &MockLeaderboardCache{
		TopFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			return nil, errors.New("miss")
		},
		GenerationFunc: func(ctx context.Context) (int64, error) {
			calls = append(calls, "generation")
			return 7, nil
		},
		StoreFunc: func(ctx context.Context, gen int64, entries []models.LeaderboardEntry) error {
			calls = append(calls, "store")
			storedGen = gen
			return nil
		},
	}
	reader := &MockStatsReader{
		TopByPointsFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			calls = append(calls, "query")
			return leaderboardRows(3), nil
		},
	}

	_, err := NewStatsService(&MockUserRepository{}, reader, cache, testLogger()).Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"generation", "query", "store"}, calls)
	assert.Equal(t, int64(7), storedGen)
}

func TestStatsService_Leaderboard_GenerationFailureSkipsStore(t *testing.T) {
	cache := &MockLeaderboardCache{
		TopFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			return nil, errors.New("miss")
		},
		GenerationFunc: func(ctx context.Context) (int64, error) {
			return 0, errors.New("connection refused")
		},
		StoreFunc: func(ctx context.Context, gen int64, entries []models.LeaderboardEntry) error {
			t.Fatal("a board without a generation must not be cached")
			return nil
		},
	}
	reader := &MockStatsReader{
		TopByPointsFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			return leaderboardRows(3), nil
		},
	}

	entries, err := NewStatsService(&MockUserRepository{}, reader, cache, testLogger()).Leaderboard(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestStatsService_Leaderboard_WithoutCache(t *testing.T) {
	reader := &MockStatsReader{
		TopByPointsFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			return leaderboardRows(3), nil
		},
	}

	entries, err := NewStatsService(&MockUserRepository{}, reader, nil, testLogger()).Leaderboard(context.Background(), 200)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestStatsService_Leaderboard_DatabaseFailure(t *testing.T) {
	reader := &MockStatsReader{
		TopByPointsFunc: func(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
			return nil, errors.New("connection reset")
		},
	}

	_, err := NewStatsService(&MockUserRepository{}, reader, nil, testLogger()).Leaderboard(context.Background(), 10)
	assert.ErrorIs(t, err, models.ErrInternalServer)
}
