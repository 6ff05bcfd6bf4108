package models

import "time"

type Question struct {
	ID         int64     `json:"id"`
	Question   string    `json:"question"`
	Options    []string  `json:"options"`
	Correct    int       `json:"answer"`
	Difficulty int       `json:"difficulty"`
	Points     int       `json:"points"`
	Category   string    `json:"category"`
	Fact       *string   `json:"fact,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PlayableQuestion is a Question with the answer and fact stripped.
type PlayableQuestion struct {
	ID         int64    `json:"id"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Difficulty int      `json:"difficulty"`
	Points     int      `json:"points"`
	Category   string   `json:"category"`
}

func (q *Question) Playable() PlayableQuestion {
	return PlayableQuestion{
		ID:         q.ID,
		Question:   q.Question,
		Options:    q.Options,
		Difficulty: q.Difficulty,
		Points:     q.Points,
		Category:   q.Category,
	}
}

// QuestionInput carries create and partial-update payloads. Nil fields are absent.
type QuestionInput struct {
	Question   *string   `json:"question"`
	Options    *[]string `json:"options"`
	Answer     *int      `json:"answer"`
	Difficulty *int      `json:"difficulty" validate:"omitempty,min=1,max=3"`
	Points     *int      `json:"points" validate:"omitempty,min=1,max=1000"`
	Category   *string   `json:"category" validate:"omitempty,max=50"`
	Fact       *string   `json:"fact" validate:"omitempty,max=2000"`
}

type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type QuestionPage struct {
	Data       []Question `json:"data"`
	Pagination Pagination `json:"pagination"`
}
