package stats

import (
	"time"

	"github.com/BradenHooton/nbatrivia/internal/models"
)

// NextStreak compares calendar dates in loc. Playing again the same day keeps
// the streak, the following day extends it, and any other gap restarts at 1.
func NextStreak(lastPlayed *time.Time, prevStreak int, now time.Time, loc *time.Location) int {
	if lastPlayed == nil {
		return 1
	}
	if loc == nil {
		loc = time.Local
	}

	switch daysBetween(lastPlayed.In(loc), now.In(loc)) {
	case 0:
		if prevStreak < 1 {
			return 1
		}
		return prevStreak
	case 1:
		return prevStreak + 1
	default:
		return 1
	}
}

func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// Update is the full set of rows one game produces.
type Update struct {
	Global  models.GlobalStats
	Mode    models.ModeStats
	Session models.GameSession
	Percent int
}

// ApplyFunc computes the new stats rows from the current rows.
type ApplyFunc func(prevGlobal *models.GlobalStats, prevMode *models.ModeStats) Update

// Apply computes the stats rows after a game. prevGlobal and prevMode are nil
// when the user has no row yet.
func Apply(userID string, mode Mode, res Result, prevGlobal *models.GlobalStats, prevMode *models.ModeStats, now time.Time, loc *time.Location) Update {
	g := models.GlobalStats{UserID: userID}
	if prevGlobal != nil {
		g = *prevGlobal
		g.UserID = userID
	}
	m := models.ModeStats{UserID: userID, GameMode: mode.Name}
	if prevMode != nil {
		m = *prevMode
		m.UserID = userID
		m.GameMode = mode.Name
	}

	pct := SessionPercentage(res.Correct, res.Units)
	avg := RunningAverage(g.AvgScore, g.TotalQuestions, pct, mode.SessionUnits)
	streak := NextStreak(g.LastPlayed, g.DailyStreak, now, loc)

	played := now
	g.TotalQuestions += res.Units
	g.TotalPoints += res.Points
	g.AvgScore = avg
	g.DailyStreak = streak
	g.LastPlayed = &played

	m.GamesPlayed++
	if res.Points > m.BestScore {
		m.BestScore = res.Points
	}

	return Update{
		Global: g,
		Mode:   m,
		Session: models.GameSession{
			UserID:       userID,
			GameMode:     mode.Name,
			Score:        res.Points,
			CorrectCount: res.Correct,
			PlayedAt:     now,
		},
		Percent: pct,
	}
}
