package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/BradenHooton/nbatrivia/internal/auth"
	"github.com/BradenHooton/nbatrivia/internal/models"
	pkghttp "github.com/BradenHooton/nbatrivia/pkg/http"
)

const (
	msgQuestionNotFound  = "Question not found"
	msgQuestionIDMissing = "Question ID is required"
	msgInvalidQuestion   = "Invalid question: at least two options are required and answer must be the index of one of them"
)

// QuestionServiceInterface defines question bank operations
type QuestionServiceInterface interface {
	List(ctx context.Context, limit, offset int) (*models.QuestionPage, error)
	Get(ctx context.Context, id int64) (*models.Question, error)
	Create(ctx context.Context, in models.QuestionInput, actorID string) (*models.Question, error)
	Update(ctx context.Context, id int64, in models.QuestionInput, actorID string) (*models.Question, error)
	Delete(ctx context.Context, id int64, actorID string) error
	Playable(ctx context.Context, category string, limit int) ([]models.PlayableQuestion, error)
}

// QuestionHandler serves the admin question endpoints and the public play feed.
type QuestionHandler struct {
	service QuestionServiceInterface
}

func NewQuestionHandler(service QuestionServiceInterface) *QuestionHandler {
	return &QuestionHandler{service: service}
}

type questionMutationResponse struct {
	Message string           `json:"message"`
	Data    *models.Question `json:"data"`
}

// queryInt parses an optional integer query parameter. ok is false when the
// parameter is present but malformed.
func queryInt(r *http.Request, name string) (value int, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// questionID reads ?id=. present is false when the parameter is absent.
func questionID(r *http.Request) (id int64, present bool, err error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, true, errors.New("invalid id")
	}
	return id, true, nil
}

func actorID(r *http.Request) string {
	if claims := auth.GetUserFromContext(r); claims != nil {
		return claims.UserID
	}
	return ""
}

// Get handles GET /api/questions. With ?id= it returns one question, otherwise a page.
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, present, err := questionID(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid question ID")
		return
	}

	if present {
		q, err := h.service.Get(r.Context(), id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, q)
		return
	}

	limit, okLimit := queryInt(r, "limit")
	offset, okOffset := queryInt(r, "offset")
	if !okLimit || !okOffset {
		pkghttp.WriteBadRequest(w, "limit and offset must be integers")
		return
	}

	page, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, page)
}

// Create handles POST /api/questions
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.QuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		pkghttp.WriteBadRequest(w, msgInvalidBody)
		return
	}
	if err := ValidateRequest(in); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	q, err := h.service.Create(r.Context(), in, actorID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, questionMutationResponse{Message: "Question created", Data: q})
}

// Update handles PUT /api/questions?id=
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, present, err := questionID(r)
	if !present {
		pkghttp.WriteBadRequest(w, msgQuestionIDMissing)
		return
	}
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid question ID")
		return
	}

	var in models.QuestionInput
	if err := decodeJSON(w, r, &in); err != nil {
		pkghttp.WriteBadRequest(w, msgInvalidBody)
		return
	}
	if err := ValidateRequest(in); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	q, err := h.service.Update(r.Context(), id, in, actorID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, questionMutationResponse{Message: "Question updated", Data: q})
}

// Delete handles DELETE /api/questions?id=
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, present, err := questionID(r)
	if !present {
		pkghttp.WriteBadRequest(w, msgQuestionIDMissing)
		return
	}
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid question ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, actorID(r)); err != nil {
		h.writeError(w, err)
		return
	}
	pkghttp.WriteMessage(w, http.StatusOK, "Question deleted")
}

// Play handles GET /api/play/questions?category=&limit=
func (h *QuestionHandler) Play(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		pkghttp.WriteBadRequest(w, "limit must be an integer")
		return
	}

	questions, err := h.service.Playable(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"data": questions})
}

func (h *QuestionHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, msgQuestionNotFound)
	case errors.Is(err, models.ErrMissingFields):
		pkghttp.WriteBadRequest(w, "Missing required fields: question, options, answer")
	case errors.Is(err, models.ErrUnsafeInput):
		pkghttp.WriteBadRequest(w, msgUnsafeInput)
	case errors.Is(err, models.ErrInvalidQuestion):
		pkghttp.WriteBadRequest(w, msgInvalidQuestion)
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "No fields to update")
	default:
		pkghttp.WriteInternalError(w, msgInternalError)
	}
}
