package models

import "time"

const (
	GameModeTrivia      = "trivia"
	GameModeHistory     = "history"
	GameModeMVPSpeed    = "mvp_speed"
	GameModeGuessPlayer = "guess_player"
)

type GlobalStats struct {
	UserID         string     `json:"-"`
	TotalQuestions int        `json:"totalQuestions"`
	TotalPoints    int        `json:"totalPoints"`
	AvgScore       int        `json:"avgScore"`
	DailyStreak    int        `json:"dailyStreak"`
	LastPlayed     *time.Time `json:"lastPlayed,omitempty"`
}

type ModeStats struct {
	UserID      string `json:"-"`
	GameMode    string `json:"gameMode"`
	GamesPlayed int    `json:"gamesPlayed"`
	BestScore   int    `json:"bestScore"`
}

type GameSession struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"-"`
	GameMode     string    `json:"gameMode"`
	Score        int       `json:"score"`
	CorrectCount int       `json:"correctCount"`
	PlayedAt     time.Time `json:"playedAt"`
}

type SubmittedAnswer struct {
	QuestionID     int64 `json:"questionId"`
	SelectedAnswer int   `json:"selectedAnswer"`
}

// GameSubmission is the body of a submit-game request. Which fields apply depends on GameMode.
type GameSubmission struct {
	Token          string            `json:"token"`
	GameMode       string            `json:"gameMode"`
	Answers        []SubmittedAnswer `json:"answers"`
	Score          *int              `json:"score"`
	CorrectGuesses *int              `json:"correctGuesses"`
	TotalPlayers   *int              `json:"totalPlayers"`
	TotalMVPs      *int              `json:"totalMVPs"`
}

type GameResult struct {
	Message     string `json:"message"`
	Score       int    `json:"score"`
	TotalPoints int    `json:"totalPoints"`
	Streak      int    `json:"streak"`
	NewAvg      int    `json:"newAvg"`
}

type LeaderboardEntry struct {
	Rank        int        `json:"rank"`
	UserID      string     `json:"-"`
	Username    string     `json:"username"`
	TotalPoints int        `json:"points"`
	AvgScore    int        `json:"avgScore"`
	LastActive  *time.Time `json:"lastActive,omitempty"`
}

type Profile struct {
	Username string    `json:"username"`
	Email    string    `json:"email"`
	JoinDate time.Time `json:"joinDate"`
}

type UserStatsSummary struct {
	Profile Profile       `json:"profile"`
	Global  GlobalStats   `json:"global"`
	Modes   []ModeStats   `json:"modes"`
	Rank    int           `json:"rank"`
	Recent  []GameSession `json:"recentGames"`
}
