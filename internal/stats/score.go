package stats

import (
	"fmt"
	"math"

	"github.com/BradenHooton/nbatrivia/internal/models"
)

var (
	ErrMissingScore  = fmt.Errorf("%w: score is required", models.ErrBadRequest)
	ErrMissingTotal  = fmt.Errorf("%w: a positive total is required", models.ErrBadRequest)
	ErrTotalTooLarge = fmt.Errorf("%w: total exceeds %d", models.ErrBadRequest, MaxSessionUnits)
)

// Result is the outcome of one completed game.
type Result struct {
	Correct int // answers judged correct
	Points  int // points awarded this session
	Units   int // questions (or players, MVPs) this session covered
}

// ScoreMultipleChoice judges answers against the stored questions. Answers to
// unknown question ids earn nothing but still count as answered.
func ScoreMultipleChoice(answers []models.SubmittedAnswer, questions map[int64]models.Question) Result {
	res := Result{Units: len(answers)}
	for _, a := range answers {
		q, ok := questions[a.QuestionID]
		if !ok || a.SelectedAnswer != q.Correct {
			continue
		}
		res.Correct++
		if q.Points > 0 {
			res.Points += q.Points
		} else {
			res.Points++
		}
	}
	return res
}

// ScoreArcade turns a client-reported arcade result into a Result.
// Totals must lie in [1, MaxSessionUnits]. Counts are clamped into [0, total]
// and points are bounded by what the mode can award.
func ScoreArcade(mode Mode, sub models.GameSubmission) (Result, error) {
	switch mode.Name {
	case models.GameModeMVPSpeed:
		if sub.Score == nil {
			return Result{}, ErrMissingScore
		}
		total, err := arcadeTotal(sub.TotalMVPs)
		if err != nil {
			return Result{}, err
		}
		named := clamp(*sub.Score, 0, total)
		return Result{Correct: named, Points: named, Units: total}, nil

	case models.GameModeGuessPlayer:
		total, err := arcadeTotal(sub.TotalPlayers)
		if err != nil {
			return Result{}, err
		}
		if sub.Score == nil && sub.CorrectGuesses == nil {
			return Result{}, ErrMissingScore
		}
		guessed := clamp(deref(sub.CorrectGuesses), 0, total)
		points := clamp(deref(sub.Score), 0, guessed*MaxCluePoints)
		return Result{Correct: guessed, Points: points, Units: total}, nil
	}
	return Result{}, fmt.Errorf("%w: %q is not an arcade mode", models.ErrInvalidGameMode, mode.Name)
}

func arcadeTotal(p *int) (int, error) {
	total := deref(p)
	switch {
	case total <= 0:
		return 0, ErrMissingTotal
	case total > MaxSessionUnits:
		return 0, ErrTotalTooLarge
	}
	return total, nil
}

// SessionPercentage is round(100 * correct / units), or 0 when nothing was answered.
func SessionPercentage(correct, units int) int {
	if units <= 0 {
		return 0
	}
	return roundHalfUp(100 * float64(correct) / float64(units))
}

// RunningAverage folds a session percentage into the stored average. The number
// of prior games is estimated from total questions answered, n per session.
func RunningAverage(prevAvg, prevTotalQuestions, sessionPct, n int) int {
	if n <= 0 {
		n = DefaultSessionUnits
	}
	est := prevTotalQuestions/n + 1
	return roundHalfUp(float64(prevAvg*(est-1)+sessionPct) / float64(est))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
