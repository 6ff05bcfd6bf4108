//go:build integration

package integration

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/nbatrivia/internal/cache"
	"github.com/BradenHooton/nbatrivia/internal/models"
)

func sessionToken(t *testing.T, ts *TestServer, u *models.User) string {
	t.Helper()
	token, err := ts.Tokens.GenerateSessionToken(u)
	require.NoError(t, err)
	return token
}

func submitTrivia(ts *TestServer, token string, answers ...models.SubmittedAnswer) (*http.Response, error) {
	return ts.Request(http.MethodPost, "/api/submit-game", models.GameSubmission{
		Token:    token,
		GameMode: models.GameModeTrivia,
		Answers:  answers,
	}, nil)
}

func TestSubmitGame_RecordsStats(t *testing.T) {
	ts := newServer(t, nil)
	ctx := context.Background()

	user, err := SeedUser(ctx, ts.DB, "kobe24", strongPassword, models.RoleUser)
	require.NoError(t, err)
	q1, err := SeedQuestion(ctx, ts.DB, "Who won the 2010 Finals MVP?", 3)
	require.NoError(t, err)
	q2, err := SeedQuestion(ctx, ts.DB, "How many rings did Kobe win?", 2)
	require.NoError(t, err)

	resp, err := submitTrivia(ts, sessionToken(t, ts, user),
		models.SubmittedAnswer{QuestionID: q1.ID, SelectedAnswer: 0},
		models.SubmittedAnswer{QuestionID: q2.ID, SelectedAnswer: 1},
	)
	require.NoError(t, err)

	var result models.GameResult
	require.NoError(t, ParseJSONResponse(resp, &result))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 3, result.TotalPoints)
	assert.Equal(t, 1, result.Streak)

	resp, err = ts.RequestWithAuth(http.MethodGet, "/api/stats/me", sessionToken(t, ts, user), nil)
	require.NoError(t, err)
	var summary models.UserStatsSummary
	require.NoError(t, ParseJSONResponse(resp, &summary))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, 2, summary.Global.TotalQuestions)
	assert.Equal(t, 3, summary.Global.TotalPoints)
	assert.Equal(t, 1, summary.Rank)
	require.Len(t, summary.Modes, 1)
	assert.Equal(t, models.GameModeTrivia, summary.Modes[0].GameMode)
	assert.Equal(t, 1, summary.Modes[0].GamesPlayed)
	require.Len(t, summary.Recent, 1)
	assert.Equal(t, 3, summary.Recent[0].Score)
}

func TestSubmitGame_ConcurrentSubmissionsAreNotLost(t *testing.T) {
	ts := newServer(t, nil)
	ctx := context.Background()

	user, err := SeedUser(ctx, ts.DB, "stock12", strongPassword, models.RoleUser)
	require.NoError(t, err)
	q, err := SeedQuestion(ctx, ts.DB, "Career assists leader?", 3)
	require.NoError(t, err)
	token := sessionToken(t, ts, user)

	const games = 12
	var wg sync.WaitGroup
	statuses := make([]int, games)
	for i := 0; i < games; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := submitTrivia(ts, token, models.SubmittedAnswer{QuestionID: q.ID, SelectedAnswer: 0})
			if err != nil {
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i, status := range statuses {
		assert.Equal(t, http.StatusOK, status, "game %d", i)
	}

	var totalPoints, totalQuestions, gamesPlayed, sessions int
	require.NoError(t, ts.DB.Pool.QueryRow(ctx,
		`SELECT total_points, total_questions FROM user_global_stats WHERE user_id = $1`, user.ID).
		Scan(&totalPoints, &totalQuestions))
	require.NoError(t, ts.DB.Pool.QueryRow(ctx,
		`SELECT games_played FROM user_game_mode_stats WHERE user_id = $1 AND game_mode = 'trivia'`, user.ID).
		Scan(&gamesPlayed))
	require.NoError(t, ts.DB.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM game_sessions WHERE user_id = $1`, user.ID).
		Scan(&sessions))

	assert.Equal(t, 3*games, totalPoints)
	assert.Equal(t, games, totalQuestions)
	assert.Equal(t, games, gamesPlayed)
	assert.Equal(t, games, sessions)
}

func TestSubmitGame_RejectsBadInput(t *testing.T) {
	ts := newServer(t, nil)
	ctx := context.Background()

	user, err := SeedUser(ctx, ts.DB, "dirk41", strongPassword, models.RoleUser)
	require.NoError(t, err)
	token := sessionToken(t, ts, user)

	resp, err := submitTrivia(ts, token)
	require.NoError(t, err)
	msg, _ := GetErrorMessage(resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No answers provided", msg)

	resp, err = ts.Request(http.MethodPost, "/api/submit-game", models.GameSubmission{Token: token, GameMode: "dunk_contest"}, nil)
	require.NoError(t, err)
	msg, _ = GetErrorMessage(resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid game mode", msg)

	resp, err = submitTrivia(ts, "not-a-token", models.SubmittedAnswer{QuestionID: 1})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var rows int
	require.NoError(t, ts.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM game_sessions`).Scan(&rows))
	assert.Zero(t, rows)
}

func TestLeaderboard_CacheIsInvalidatedBySubmissions(t *testing.T) {
	ts := newServer(t, testRedis.Client)
	ctx := context.Background()

	alice, err := SeedUser(ctx, ts.DB, "alice", strongPassword, models.RoleUser)
	require.NoError(t, err)
	bob, err := SeedUser(ctx, ts.DB, "bob", strongPassword, models.RoleUser)
	require.NoError(t, err)
	small, err := SeedQuestion(ctx, ts.DB, "Small", 1)
	require.NoError(t, err)
	big, err := SeedQuestion(ctx, ts.DB, "Big", 10)
	require.NoError(t, err)

	resp, err := submitTrivia(ts, sessionToken(t, ts, alice), models.SubmittedAnswer{QuestionID: big.ID, SelectedAnswer: 0})
	require.NoError(t, err)
	resp.Body.Close()
	resp, err = submitTrivia(ts, sessionToken(t, ts, bob), models.SubmittedAnswer{QuestionID: small.ID, SelectedAnswer: 0})
	require.NoError(t, err)
	resp.Body.Close()

	leaders := func() []models.LeaderboardEntry {
		resp, err := ts.Request(http.MethodGet, "/api/leaderboard", nil, nil)
		require.NoError(t, err)
		var body struct {
			Data []models.LeaderboardEntry `json:"data"`
		}
		require.NoError(t, ParseJSONResponse(resp, &body))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return body.Data
	}

	first := leaders()
	require.Len(t, first, 2)
	assert.Equal(t, "alice", first[0].Username)

	warm, err := testRedis.Client.Exists(ctx, "leaderboard:warm").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), warm)

	// Bob overtakes alice; the submission must drop the cached board
	resp, err = submitTrivia(ts, sessionToken(t, ts, bob),
		models.SubmittedAnswer{QuestionID: big.ID, SelectedAnswer: 0},
		models.SubmittedAnswer{QuestionID: small.ID, SelectedAnswer: 0},
	)
	require.NoError(t, err)
	resp.Body.Close()

	second := leaders()
	require.Len(t, second, 2)
	assert.Equal(t, "bob", second[0].Username)
	assert.Equal(t, 12, second[0].TotalPoints)
	assert.Equal(t, 1, second[0].Rank)
}

func TestAdminQuestionLifecycle(t *testing.T) {
	ts := newServer(t, nil)
	ctx := context.Background()

	admin, err := SeedUser(ctx, ts.DB, "commish", strongPassword, models.RoleAdmin)
	require.NoError(t, err)
	player, err := SeedUser(ctx, ts.DB, "rookie", strongPassword, models.RoleUser)
	require.NoError(t, err)
	adminToken := sessionToken(t, ts, admin)

	text := "Who has the most career blocks?"
	options := []string{"Hakeem Olajuwon", "Dikembe Mutombo"}
	answer := 0
	resp, err := ts.RequestWithAuth(http.MethodPost, "/api/questions", adminToken, models.QuestionInput{
		Question: &text,
		Options:  &options,
		Answer:   &answer,
	})
	require.NoError(t, err)
	var created struct {
		Message string          `json:"message"`
		Data    models.Question `json:"data"`
	}
	require.NoError(t, ParseJSONResponse(resp, &created))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Trivia", created.Data.Category)
	assert.Equal(t, 1, created.Data.Points)

	resp, err = ts.RequestWithAuth(http.MethodGet, "/api/questions", sessionToken(t, ts, player), nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	points := 5
	resp, err = ts.RequestWithAuth(http.MethodPut, "/api/questions?id="+itoa(created.Data.ID), adminToken, models.QuestionInput{Points: &points})
	require.NoError(t, err)
	var updated struct {
		Data models.Question `json:"data"`
	}
	require.NoError(t, ParseJSONResponse(resp, &updated))
	assert.Equal(t, 5, updated.Data.Points)
	assert.Equal(t, text, updated.Data.Question)

	bad := 7
	resp, err = ts.RequestWithAuth(http.MethodPut, "/api/questions?id="+itoa(created.Data.ID), adminToken, models.QuestionInput{Answer: &bad})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = ts.RequestWithAuth(http.MethodDelete, "/api/questions?id="+itoa(created.Data.ID), adminToken, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.RequestWithAuth(http.MethodGet, "/api/questions?id="+itoa(created.Data.ID), adminToken, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLeaderboardCache_DiscardsRebuildAfterInvalidate(t *testing.T) {
	newServer(t, testRedis.Client)
	ctx := context.Background()
	board := cache.NewLeaderboard(testRedis.Client, time.Minute)

	stale := []models.LeaderboardEntry{{UserID: "u1", Username: "alice", TotalPoints: 10}}
	fresh := []models.LeaderboardEntry{{UserID: "u2", Username: "bob", TotalPoints: 12}, stale[0]}

	// A reader takes its generation, then a submission lands before it stores.
	gen, err := board.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, board.Invalidate(ctx))
	require.NoError(t, board.Store(ctx, gen, stale))

	_, err = board.Top(ctx, 10)
	assert.ErrorIs(t, err, cache.ErrMiss)

	gen, err = board.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, board.Store(ctx, gen, fresh))

	got, err := board.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].Username)
	assert.Equal(t, 1, got[0].Rank)
}
