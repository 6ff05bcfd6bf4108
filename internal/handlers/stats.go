package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/nbatrivia/internal/auth"
	"github.com/BradenHooton/nbatrivia/internal/models"
	pkghttp "github.com/BradenHooton/nbatrivia/pkg/http"
)

// StatsServiceInterface defines player stats reads
type StatsServiceInterface interface {
	GetUserStats(ctx context.Context, userID string) (*models.UserStatsSummary, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type StatsHandler struct {
	service StatsServiceInterface
}

func NewStatsHandler(service StatsServiceInterface) *StatsHandler {
	return &StatsHandler{service: service}
}

// Me handles GET /api/stats/me
func (h *StatsHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, msgUnauthorized)
		return
	}

	summary, err := h.service.GetUserStats(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, msgInternalError)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, summary)
}

// Leaderboard handles GET /api/leaderboard?limit=
func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(r, "limit")
	if !ok {
		pkghttp.WriteBadRequest(w, "limit must be an integer")
		return
	}

	entries, err := h.service.Leaderboard(r.Context(), limit)
	if err != nil {
		pkghttp.WriteInternalError(w, msgInternalError)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"data": entries})
}
