package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/nbatrivia/internal/models"
	pkghttp "github.com/BradenHooton/nbatrivia/pkg/http"
)

// GameServiceInterface defines game submission
type GameServiceInterface interface {
	SubmitGame(ctx context.Context, userID string, sub models.GameSubmission) (*models.GameResult, error)
}

// TokenValidator validates session tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.TokenClaims, error)
}

type GameHandler struct {
	service GameServiceInterface
	tokens  TokenValidator
}

func NewGameHandler(service GameServiceInterface, tokens TokenValidator) *GameHandler {
	return &GameHandler{service: service, tokens: tokens}
}

// SubmitGame handles POST /api/submit-game. The session token may be sent in
// the body or as a bearer token; the body wins when both are present.
func (h *GameHandler) SubmitGame(w http.ResponseWriter, r *http.Request) {
	var sub models.GameSubmission
	if err := decodeJSON(w, r, &sub); err != nil {
		pkghttp.WriteBadRequest(w, msgInvalidBody)
		return
	}

	token := sub.Token
	if token == "" {
		token = pkghttp.BearerToken(r)
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		pkghttp.WriteUnauthorized(w, msgUnauthorized)
		return
	}

	result, err := h.service.SubmitGame(r.Context(), claims.UserID, sub)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNoAnswers):
			pkghttp.WriteBadRequest(w, "No answers provided")
		case errors.Is(err, models.ErrInvalidGameMode):
			pkghttp.WriteBadRequest(w, "Invalid game mode")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid game submission")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, msgUnauthorized)
		default:
			pkghttp.WriteInternalError(w, msgInternalError)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}
