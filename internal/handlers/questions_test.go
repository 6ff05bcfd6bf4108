package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/nbatrivia/internal/handlers"
	"github.com/BradenHooton/nbatrivia/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionGet_Single(t *testing.T) {
	svc := &handlers.MockQuestionService{
		GetFunc: func(ctx context.Context, id int64) (*models.Question, error) {
			assert.Equal(t, int64(42), id)
			return &models.Question{ID: 42, Question: "Who won the 1986 title?", Options: []string{"Celtics", "Rockets"}, Correct: 0}, nil
		},
	}

	w := httptest.NewRecorder()
	handlers.NewQuestionHandler(svc).Get(w, handlers.NewTestRequest(t, http.MethodGet, "/api/questions?id=42", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var q models.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, int64(42), q.ID)
	assert.Equal(t, 0, q.Correct)
}

func TestQuestionGet_NotFound(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.NewQuestionHandler(&handlers.MockQuestionService{}).Get(w, handlers.NewTestRequest(t, http.MethodGet, "/api/questions?id=9", nil))

	handlers.AssertMessage(t, w, http.StatusNotFound, "Question not found")
}

func TestQuestionGet_Page(t *testing.T) {
	svc := &handlers.MockQuestionService{
		ListFunc: func(ctx context.Context, limit, offset int) (*models.QuestionPage, error) {
			assert.Equal(t, 20, limit)
			assert.Equal(t, 40, offset)
			return &models.QuestionPage{
				Data:       []models.Question{{ID: 1}},
				Pagination: models.Pagination{Total: 41, Limit: 20, Offset: 40},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	handlers.NewQuestionHandler(svc).Get(w, handlers.NewTestRequest(t, http.MethodGet, "/api/questions?limit=20&offset=40", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var page models.QuestionPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 41, page.Pagination.Total)
}

func TestQuestionGet_BadParams(t *testing.T) {
	handler := handlers.NewQuestionHandler(&handlers.MockQuestionService{})

	w := httptest.NewRecorder()
	handler.Get(w, handlers.NewTestRequest(t, http.MethodGet, "/api/questions?id=abc", nil))
	handlers.AssertMessage(t, w, http.StatusBadRequest, "Invalid question ID")

	w = httptest.NewRecorder()
	handler.Get(w, handlers.NewTestRequest(t, http.MethodGet, "/api/questions?limit=ten", nil))
	handlers.AssertMessage(t, w, http.StatusBadRequest, "limit and offset must be integers")
}

func TestQuestionCreate(t *testing.T) {
	var gotActor string
	svc := &handlers.MockQuestionService{
		CreateFunc: func(ctx context.Context, in models.QuestionInput, actorID string) (*models.Question, error) {
			gotActor = actorID
			require.NotNil(t, in.Question)
			assert.Equal(t, "Most career points?", *in.Question)
			return &models.Question{ID: 7, Question: *in.Question}, nil
		},
	}

	text := "Most career points?"
	options := []string{"LeBron James", "Kareem Abdul-Jabbar"}
	answer := 0
	req := handlers.NewTestRequest(t, http.MethodPost, "/api/questions", models.QuestionInput{
		Question: &text,
		Options:  &options,
		Answer:   &answer,
	})
	req = handlers.WithAuthContext(req, "admin-1", "admin")

	w := httptest.NewRecorder()
	handlers.NewQuestionHandler(svc).Create(w, req)

	handlers.AssertMessage(t, w, http.StatusCreated, "Question created")
	assert.Equal(t, "admin-1", gotActor)
}

func TestQuestionCreate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing fields", models.ErrMissingFields, http.StatusBadRequest, "Missing required fields: question, options, answer"},
		{"unsafe", models.ErrUnsafeInput, http.StatusBadRequest, "Invalid input detected (XSS protection)"},
		{
			"bad options",
			models.ErrInvalidQuestion,
			http.StatusBadRequest,
			"Invalid question: at least two options are required and answer must be the index of one of them",
		},
		{"internal", models.ErrInternalServer, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &handlers.MockQuestionService{
				CreateFunc: func(ctx context.Context, in models.QuestionInput, actorID string) (*models.Question, error) {
					return nil, tt.err
				},
			}

			w := httptest.NewRecorder()
			handlers.NewQuestionHandler(svc).Create(w, handlers.NewTestRequest(t, http.MethodPost, "/api/questions", models.QuestionInput{}))

			handlers.AssertMessage(t, w, tt.wantStatus, tt.wantMsg)
		})
	}
}

func TestQuestionCreate_RejectsOutOfRangeDifficulty(t *testing.T) {
	difficulty := 9
	w := httptest.NewRecorder()
	handlers.NewQuestionHandler(&handlers.MockQuestionService{}).Create(w,
		handlers.NewTestRequest(t, http.MethodPost, "/api/questions", models.QuestionInput{Difficulty: &difficulty}))

	handlers.AssertMessage(t, w, http.StatusBadRequest, "Difficulty must be at most 3")
}

func TestQuestionUpdate(t *testing.T) {
	svc := &handlers.MockQuestionService{
		UpdateFunc: func(ctx context.Context, id int64, in models.QuestionInput, actorID string) (*models.Question, error) {
			assert.Equal(t, int64(3), id)
			require.NotNil(t, in.Points)
			return &models.Question{ID: id, Points: *in.Points}, nil
		},
	}
	handler := handlers.NewQuestionHandler(svc)
	points := 5

	w := httptest.NewRecorder()
	handler.Update(w, handlers.NewTestRequest(t, http.MethodPut, "/api/questions?id=3", models.QuestionInput{Points: &points}))
	handlers.AssertMessage(t, w, http.StatusOK, "Question updated")

	w = httptest.NewRecorder()
	handler.Update(w, handlers.NewTestRequest(t, http.MethodPut, "/api/questions", models.QuestionInput{Points: &points}))
	handlers.AssertMessage(t, w, http.StatusBadRequest, "Question ID is required")
}

func TestQuestionUpdate_NoChanges(t *testing.T) {
	svc := &handlers.MockQuestionService{
		UpdateFunc: func(ctx context.Context, id int64, in models.QuestionInput, actorID string) (*models.Question, error) {
			return nil, models.ErrBadRequest
		},
	}

	w := httptest.NewRecorder()
	handlers.NewQuestionHandler(svc).Update(w, handlers.NewTestRequest(t, http.MethodPut, "/api/questions?id=3", models.QuestionInput{}))

	handlers.AssertMessage(t, w, http.StatusBadRequest, "No fields to update")
}

func TestQuestionDelete(t *testing.T) {
	var deleted int64
	svc := &handlers.MockQuestionService{
		DeleteFunc: func(ctx context.Context, id int64, actorID string) error {
			if id == 404 {
				return models.ErrNotFound
			}
			deleted = id
			return nil
		},
	}
	handler := handlers.NewQuestionHandler(svc)

	w := httptest.NewRecorder()
	handler.Delete(w, handlers.NewTestRequest(t, http.MethodDelete, "/api/questions?id=12", nil))
	handlers.AssertMessage(t, w, http.StatusOK, "Question deleted")
	assert.Equal(t, int64(12), deleted)

	w = httptest.NewRecorder()
	handler.Delete(w, handlers.NewTestRequest(t, http.MethodDelete, "/api/questions?id=404", nil))
	handlers.AssertMessage(t, w, http.StatusNotFound, "Question not found")

	w = httptest.NewRecorder()
	handler.Delete(w, handlers.NewTestRequest(t, http.MethodDelete, "/api/questions", nil))
	handlers.AssertMessage(t, w, http.StatusBadRequest, "Question ID is required")

	w = httptest.NewRecorder()
	handler.Delete(w, handlers.NewTestRequest(t, http.MethodDelete, "/api/questions?id=-1", nil))
	handlers.AssertMessage(t, w, http.StatusBadRequest, "Invalid question ID")
}

func TestPlay(t *testing.T) {
	svc := &handlers.MockQuestionService{
		PlayableFunc: func(ctx context.Context, category string, limit int) ([]models.PlayableQuestion, error) {
			assert.Equal(t, "History", category)
			assert.Equal(t, 5, limit)
			return []models.PlayableQuestion{{ID: 1, Question: "q", Options: []string{"a", "b"}}}, nil
		},
	}

	w := httptest.NewRecorder()
	handlers.NewQuestionHandler(svc).Play(w, handlers.NewTestRequest(t, http.MethodGet, "/api/play/questions?category=History&limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"answer"`)
	data, ok := handlers.DecodeBody(t, w)["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 1)
}
