package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/BradenHooton/nbatrivia/internal/stats"
	pkglogger "github.com/BradenHooton/nbatrivia/pkg/logger"
)

// QuestionLookup loads the authoritative questions a game was played with.
type QuestionLookup interface {
	GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Question, error)
}

// GameRecorder persists a completed game atomically.
type GameRecorder interface {
	SubmitGame(ctx context.Context, userID, mode string, fn stats.ApplyFunc) (stats.Update, error)
}

// LeaderboardCache is an optional read-through cache of the leaderboard.
// Store only succeeds if nothing called Invalidate after gen was read from Generation.
type LeaderboardCache interface {
	Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	Generation(ctx context.Context) (int64, error)
	Store(ctx context.Context, gen int64, entries []models.LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

// GameService scores submitted games and folds them into the player's stats.
type GameService struct {
	questions   QuestionLookup
	recorder    GameRecorder
	cache       LeaderboardCache
	loc         *time.Location
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewGameService creates a GameService. cache may be nil.
func NewGameService(
	questions QuestionLookup,
	recorder GameRecorder,
	cache LeaderboardCache,
	loc *time.Location,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *GameService {
	if loc == nil {
		loc = time.Local
	}
	return &GameService{
		questions:   questions,
		recorder:    recorder,
		cache:       cache,
		loc:         loc,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// SubmitGame scores sub for userID and records it.
//
// Multiple-choice answers are judged against stored questions; a question
// answered more than once counts only its first answer. Arcade results are
// client-reported and bounded by stats.ScoreArcade.
func (s *GameService) SubmitGame(ctx context.Context, userID string, sub models.GameSubmission) (*models.GameResult, error) {
	mode, err := stats.LookupMode(sub.GameMode)
	if err != nil {
		return nil, err
	}

	var res stats.Result
	switch mode.Kind {
	case stats.MultipleChoice:
		answers := dedupeAnswers(sub.Answers)
		if len(answers) == 0 {
			return nil, models.ErrNoAnswers
		}
		if len(answers) > stats.MaxSessionUnits {
			return nil, models.ErrBadRequest
		}

		ids := make([]int64, len(answers))
		for i, a := range answers {
			ids[i] = a.QuestionID
		}
		questions, err := s.questions.GetByIDs(ctx, ids)
		if err != nil {
			s.logger.Error("failed to load questions", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		res = stats.ScoreMultipleChoice(answers, questions)

	default:
		res, err = stats.ScoreArcade(mode, sub)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	update, err := s.recorder.SubmitGame(ctx, userID, mode.Name, func(g *models.GlobalStats, m *models.ModeStats) stats.Update {
		return stats.Apply(userID, mode, res, g, m, now, s.loc)
	})
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			// The user row is gone; the token outlived the account.
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to record game", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate leaderboard cache", slog.Any("error", err))
		}
	}

	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: pkglogger.EventGameSubmitted,
		UserID:    userID,
		Success:   true,
		Metadata: map[string]string{
			"game_mode": mode.Name,
			"correct":   strconv.Itoa(res.Correct),
			"points":    strconv.Itoa(res.Points),
		},
	})

	return &models.GameResult{
		Message:     "Game submitted successfully",
		Score:       res.Correct,
		TotalPoints: res.Points,
		Streak:      update.Global.DailyStreak,
		NewAvg:      update.Global.AvgScore,
	}, nil
}

func dedupeAnswers(answers []models.SubmittedAnswer) []models.SubmittedAnswer {
	seen := make(map[int64]struct{}, len(answers))
	out := make([]models.SubmittedAnswer, 0, len(answers))
	for _, a := range answers {
		if _, ok := seen[a.QuestionID]; ok {
			continue
		}
		seen[a.QuestionID] = struct{}{}
		out = append(out, a)
	}
	return out
}
