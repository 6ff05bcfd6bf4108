package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BradenHooton/nbatrivia/internal/database"
	"github.com/BradenHooton/nbatrivia/internal/models"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// psql builds Postgres statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var questionColumns = []string{
	"id", "question", "options", "correct", "difficulty", "points", "category", "fact", "created_at", "updated_at",
}

type QuestionRepository struct {
	pool *pgxpool.Pool
}

func NewQuestionRepository(db *database.DB) *QuestionRepository {
	return &QuestionRepository{pool: db.Pool}
}

func scanQuestionRow(scanner rowScanner) (*models.Question, error) {
	var q models.Question
	var options []byte

	err := scanner.Scan(
		&q.ID, &q.Question, &options, &q.Correct, &q.Difficulty, &q.Points,
		&q.Category, &q.Fact, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options of question %d: %w", q.ID, err)
	}
	return &q, nil
}

func scanQuestionRows(rows pgx.Rows) ([]models.Question, error) {
	defer rows.Close()

	questions := make([]models.Question, 0)
	for rows.Next() {
		q, err := scanQuestionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}
	return questions, nil
}

func (r *QuestionRepository) queryRow(ctx context.Context, b sq.Sqlizer) (*models.Question, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build question query: %w", err)
	}
	return scanQuestionRow(r.pool.QueryRow(ctx, query, args...))
}

func (r *QuestionRepository) queryRows(ctx context.Context, b sq.Sqlizer) ([]models.Question, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build question query: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	return scanQuestionRows(rows)
}

func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	return r.queryRow(ctx, psql.Select(questionColumns...).From("questions").Where(sq.Eq{"id": id}))
}

// GetByIDs returns the questions that exist among ids, keyed by id.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]models.Question, error) {
	out := make(map[int64]models.Question, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	questions, err := r.queryRows(ctx, psql.Select(questionColumns...).From("questions").Where(sq.Eq{"id": ids}))
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		out[q.ID] = q
	}
	return out, nil
}

// List returns one page ordered by id and the total number of questions.
func (r *QuestionRepository) List(ctx context.Context, limit, offset int) ([]models.Question, int, error) {
	countQuery, countArgs, err := psql.Select("COUNT(*)").From("questions").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count questions: %w", err)
	}
	if offset >= total {
		return []models.Question{}, total, nil
	}

	questions, err := r.queryRows(ctx, psql.Select(questionColumns...).
		From("questions").
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)))
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

// RandomByCategory samples up to limit questions of a category.
func (r *QuestionRepository) RandomByCategory(ctx context.Context, category string, limit int) ([]models.Question, error) {
	return r.queryRows(ctx, psql.Select(questionColumns...).
		From("questions").
		Where(sq.Eq{"category": category}).
		OrderBy("random()").
		Limit(uint64(limit)))
}

func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	return r.queryRow(ctx, psql.Insert("questions").
		SetMap(map[string]any{
			"question":   q.Question,
			"options":    string(options),
			"correct":    q.Correct,
			"difficulty": q.Difficulty,
			"points":     q.Points,
			"category":   q.Category,
			"fact":       q.Fact,
		}).
		Suffix("RETURNING "+joinColumns()))
}

// Update writes only the given columns. Options must already be a []string.
func (r *QuestionRepository) Update(ctx context.Context, id int64, changes map[string]any) (*models.Question, error) {
	if opts, ok := changes["options"].([]string); ok {
		encoded, err := json.Marshal(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		changes["options"] = string(encoded)
	}
	changes["updated_at"] = sq.Expr("NOW()")

	return r.queryRow(ctx, psql.Update("questions").
		SetMap(changes).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING "+joinColumns()))
}

func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("questions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func joinColumns() string {
	return strings.Join(questionColumns, ", ")
}
