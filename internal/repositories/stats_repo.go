package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/nbatrivia/internal/database"
	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/BradenHooton/nbatrivia/internal/stats"
	"github.com/jackc/pgx/v5"
)

type StatsRepository struct {
	db *database.DB
}

func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func scanGlobalStats(row rowScanner) (*models.GlobalStats, error) {
	var g models.GlobalStats
	err := row.Scan(&g.UserID, &g.TotalQuestions, &g.TotalPoints, &g.AvgScore, &g.DailyStreak, &g.LastPlayed)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &g, nil
}

func (r *StatsRepository) GetGlobal(ctx context.Context, userID string) (*models.GlobalStats, error) {
	return scanGlobalStats(r.db.Pool.QueryRow(ctx, `
		SELECT user_id, total_questions, total_points, avg_score, daily_streak, last_played
		FROM user_global_stats WHERE user_id = $1
	`, userID))
}

func (r *StatsRepository) ListModes(ctx context.Context, userID string) ([]models.ModeStats, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT user_id, game_mode, games_played, best_score
		FROM user_game_mode_stats WHERE user_id = $1
		ORDER BY game_mode
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mode stats: %w", err)
	}
	defer rows.Close()

	out := make([]models.ModeStats, 0)
	for rows.Next() {
		var m models.ModeStats
		if err := rows.Scan(&m.UserID, &m.GameMode, &m.GamesPlayed, &m.BestScore); err != nil {
			return nil, fmt.Errorf("failed to scan mode stats: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Rank is one more than the number of players with strictly more points.
func (r *StatsRepository) Rank(ctx context.Context, userID string) (int, error) {
	var ahead int
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM user_global_stats
		WHERE total_points > COALESCE((SELECT total_points FROM user_global_stats WHERE user_id = $1), 0)
	`, userID).Scan(&ahead)
	if err != nil {
		return 0, fmt.Errorf("failed to compute rank: %w", err)
	}
	return ahead + 1, nil
}

// TopByPoints returns the leaderboard ordered by total points.
func (r *StatsRepository) TopByPoints(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query, args, err := psql.
		Select("s.user_id", "u.username", "s.total_points", "s.avg_score", "u.last_active").
		From("user_global_stats s").
		Join("users u ON u.id = s.user_id").
		OrderBy("s.total_points DESC", "u.username ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.TotalPoints, &e.AvgScore, &e.LastActive); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SubmitGame locks the user's stats rows, applies fn and writes the mode upsert,
// the global upsert and the session insert in one transaction.
func (r *StatsRepository) SubmitGame(ctx context.Context, userID, mode string, fn stats.ApplyFunc) (stats.Update, error) {
	var result stats.Update

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		// Seed empty rows so that a first game is serialized by the row lock too.
		if _, err := tx.Exec(ctx, `INSERT INTO user_global_stats (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID); err != nil {
			return database.MapPostgresError(err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO user_game_mode_stats (user_id, game_mode) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, mode); err != nil {
			return database.MapPostgresError(err)
		}

		global, err := scanGlobalStats(tx.QueryRow(ctx, `
			SELECT user_id, total_questions, total_points, avg_score, daily_streak, last_played
			FROM user_global_stats WHERE user_id = $1 FOR UPDATE
		`, userID))
		if err != nil {
			return fmt.Errorf("failed to lock global stats: %w", err)
		}

		var modeStats models.ModeStats
		err = tx.QueryRow(ctx, `
			SELECT user_id, game_mode, games_played, best_score
			FROM user_game_mode_stats WHERE user_id = $1 AND game_mode = $2 FOR UPDATE
		`, userID, mode).Scan(&modeStats.UserID, &modeStats.GameMode, &modeStats.GamesPlayed, &modeStats.BestScore)
		if err != nil {
			return fmt.Errorf("failed to lock mode stats: %w", database.MapPostgresError(err))
		}

		result = fn(global, &modeStats)

		_, err = tx.Exec(ctx, `
			INSERT INTO user_game_mode_stats (user_id, game_mode, games_played, best_score)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, game_mode)
			DO UPDATE SET games_played = EXCLUDED.games_played, best_score = EXCLUDED.best_score
		`, userID, mode, result.Mode.GamesPlayed, result.Mode.BestScore)
		if err != nil {
			return fmt.Errorf("failed to upsert mode stats: %w", database.MapPostgresError(err))
		}

		g := result.Global
		_, err = tx.Exec(ctx, `
			INSERT INTO user_global_stats (user_id, total_questions, total_points, avg_score, daily_streak, last_played)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id)
			DO UPDATE SET total_questions = EXCLUDED.total_questions, total_points = EXCLUDED.total_points,
				avg_score = EXCLUDED.avg_score, daily_streak = EXCLUDED.daily_streak, last_played = EXCLUDED.last_played
		`, userID, g.TotalQuestions, g.TotalPoints, g.AvgScore, g.DailyStreak, g.LastPlayed)
		if err != nil {
			return fmt.Errorf("failed to upsert global stats: %w", database.MapPostgresError(err))
		}

		s := result.Session
		err = tx.QueryRow(ctx, `
			INSERT INTO game_sessions (user_id, game_mode, score, correct_count, played_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, userID, mode, s.Score, s.CorrectCount, s.PlayedAt).Scan(&result.Session.ID)
		if err != nil {
			return fmt.Errorf("failed to record game session: %w", database.MapPostgresError(err))
		}
		return nil
	})
	if err != nil {
		return stats.Update{}, err
	}
	return result, nil
}

// RecentSessions returns the user's latest sessions, newest first.
func (r *StatsRepository) RecentSessions(ctx context.Context, userID string, limit int) ([]models.GameSession, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, game_mode, score, correct_count, played_at
		FROM game_sessions WHERE user_id = $1
		ORDER BY played_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	out := make([]models.GameSession, 0, limit)
	for rows.Next() {
		var s models.GameSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.GameMode, &s.Score, &s.CorrectCount, &s.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
