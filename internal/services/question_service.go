package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BradenHooton/nbatrivia/internal/models"
	pkglogger "github.com/BradenHooton/nbatrivia/pkg/logger"
	"github.com/BradenHooton/nbatrivia/pkg/sanitize"
)

const (
	DefaultQuestionLimit = 50
	MaxQuestionLimit     = 100
	DefaultPlayLimit     = 10
	MaxPlayLimit         = 50
	DefaultCategory      = "Trivia"
	minOptions           = 2
)

// QuestionRepository defines question persistence
type QuestionRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Question, error)
	List(ctx context.Context, limit, offset int) ([]models.Question, int, error)
	RandomByCategory(ctx context.Context, category string, limit int) ([]models.Question, error)
	Create(ctx context.Context, q *models.Question) (*models.Question, error)
	Update(ctx context.Context, id int64, changes map[string]any) (*models.Question, error)
	Delete(ctx context.Context, id int64) error
}

// QuestionService manages the question bank.
type QuestionService struct {
	repo        QuestionRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewQuestionService(repo QuestionRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *QuestionService {
	return &QuestionService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// List returns one page of questions ordered by id.
func (s *QuestionService) List(ctx context.Context, limit, offset int) (*models.QuestionPage, error) {
	limit = clampLimit(limit, DefaultQuestionLimit, MaxQuestionLimit)
	if offset < 0 {
		offset = 0
	}

	questions, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list questions", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &models.QuestionPage{
		Data:       questions,
		Pagination: models.Pagination{Total: total, Limit: limit, Offset: offset},
	}, nil
}

func (s *QuestionService) Get(ctx context.Context, id int64) (*models.Question, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapErr("get", err)
	}
	return q, nil
}

// Create validates in and stores a new question.
func (s *QuestionService) Create(ctx context.Context, in models.QuestionInput, actorID string) (*models.Question, error) {
	if in.Question == nil || strings.TrimSpace(*in.Question) == "" || in.Options == nil || in.Answer == nil {
		return nil, models.ErrMissingFields
	}
	if err := checkQuestionText(in); err != nil {
		return nil, err
	}
	if err := validateOptions(*in.Options, *in.Answer); err != nil {
		return nil, err
	}

	q := &models.Question{
		Question:   strings.TrimSpace(*in.Question),
		Options:    *in.Options,
		Correct:    *in.Answer,
		Difficulty: 1,
		Points:     1,
		Category:   DefaultCategory,
		Fact:       in.Fact,
	}
	if in.Difficulty != nil {
		q.Difficulty = *in.Difficulty
	}
	if in.Points != nil {
		q.Points = *in.Points
	}
	if in.Category != nil && strings.TrimSpace(*in.Category) != "" {
		q.Category = strings.TrimSpace(*in.Category)
	}

	created, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, s.mapErr("create", err)
	}

	s.audit(ctx, pkglogger.EventQuestionCreated, actorID, created.ID)
	return created, nil
}

// Update applies the non-nil fields of in. The answer index is checked
// against the options the question will have afterwards.
func (s *QuestionService) Update(ctx context.Context, id int64, in models.QuestionInput, actorID string) (*models.Question, error) {
	if err := checkQuestionText(in); err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	if in.Question != nil {
		text := strings.TrimSpace(*in.Question)
		if text == "" {
			return nil, models.ErrInvalidQuestion
		}
		changes["question"] = text
	}
	if in.Difficulty != nil {
		changes["difficulty"] = *in.Difficulty
	}
	if in.Points != nil {
		changes["points"] = *in.Points
	}
	if in.Category != nil {
		changes["category"] = strings.TrimSpace(*in.Category)
	}
	if in.Fact != nil {
		changes["fact"] = *in.Fact
	}

	if in.Options != nil || in.Answer != nil {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, s.mapErr("get", err)
		}
		options, answer := current.Options, current.Correct
		if in.Options != nil {
			options = *in.Options
			changes["options"] = options
		}
		if in.Answer != nil {
			answer = *in.Answer
			changes["correct"] = answer
		}
		if err := validateOptions(options, answer); err != nil {
			return nil, err
		}
	}

	if len(changes) == 0 {
		return nil, models.ErrBadRequest
	}

	updated, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		return nil, s.mapErr("update", err)
	}

	s.audit(ctx, pkglogger.EventQuestionUpdated, actorID, id)
	return updated, nil
}

func (s *QuestionService) Delete(ctx context.Context, id int64, actorID string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapErr("delete", err)
	}

	s.audit(ctx, pkglogger.EventQuestionDeleted, actorID, id)
	return nil
}

// Playable samples questions of a category with the answers stripped.
func (s *QuestionService) Playable(ctx context.Context, category string, limit int) ([]models.PlayableQuestion, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}
	if err := sanitize.Check(category); err != nil {
		return nil, models.ErrUnsafeInput
	}
	limit = clampLimit(limit, DefaultPlayLimit, MaxPlayLimit)

	questions, err := s.repo.RandomByCategory(ctx, category, limit)
	if err != nil {
		s.logger.Error("failed to sample questions", slog.String("category", category), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	out := make([]models.PlayableQuestion, len(questions))
	for i := range questions {
		out[i] = questions[i].Playable()
	}
	return out, nil
}

func (s *QuestionService) mapErr(op string, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrBadRequest):
		return models.ErrInvalidQuestion
	}
	s.logger.Error("question "+op+" failed", slog.Any("error", err))
	return models.ErrInternalServer
}

func (s *QuestionService) audit(ctx context.Context, eventType, actorID string, id int64) {
	s.auditLogger.Log(ctx, pkglogger.AuditEvent{
		EventType: eventType,
		UserID:    actorID,
		Success:   true,
		Metadata:  map[string]string{"question_id": strconv.FormatInt(id, 10)},
	})
}

func checkQuestionText(in models.QuestionInput) error {
	values := make([]string, 0, 8)
	if in.Question != nil {
		values = append(values, *in.Question)
	}
	if in.Options != nil {
		values = append(values, *in.Options...)
	}
	if in.Category != nil {
		values = append(values, *in.Category)
	}
	if in.Fact != nil {
		values = append(values, *in.Fact)
	}
	if err := sanitize.Check(values...); err != nil {
		return models.ErrUnsafeInput
	}
	return nil
}

func validateOptions(options []string, answer int) error {
	if len(options) < minOptions {
		return models.ErrInvalidQuestion
	}
	for _, o := range options {
		if strings.TrimSpace(o) == "" {
			return models.ErrInvalidQuestion
		}
	}
	if answer < 0 || answer >= len(options) {
		return models.ErrInvalidQuestion
	}
	return nil
}
