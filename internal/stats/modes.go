package stats

import (
	"fmt"
	"strings"

	"github.com/BradenHooton/nbatrivia/internal/models"
)

// Kind separates modes the server can score itself from modes whose results the client reports.
type Kind int

const (
	MultipleChoice Kind = iota
	Arcade
)

// DefaultSessionUnits is the per-session unit count used by the running average.
const DefaultSessionUnits = 10

// MaxCluePoints is the most a single guess_player round can award.
const MaxCluePoints = 500

// MaxSessionUnits bounds the questions, MVPs or players one submission may cover.
const MaxSessionUnits = 100

type Mode struct {
	Name         string
	Kind         Kind
	SessionUnits int
}

var modes = map[string]Mode{
	models.GameModeTrivia:      {Name: models.GameModeTrivia, Kind: MultipleChoice, SessionUnits: DefaultSessionUnits},
	models.GameModeHistory:     {Name: models.GameModeHistory, Kind: MultipleChoice, SessionUnits: DefaultSessionUnits},
	models.GameModeMVPSpeed:    {Name: models.GameModeMVPSpeed, Kind: Arcade, SessionUnits: DefaultSessionUnits},
	models.GameModeGuessPlayer: {Name: models.GameModeGuessPlayer, Kind: Arcade, SessionUnits: DefaultSessionUnits},
}

// LookupMode resolves a mode tag. An empty tag means trivia.
func LookupMode(name string) (Mode, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = models.GameModeTrivia
	}
	m, ok := modes[name]
	if !ok {
		return Mode{}, fmt.Errorf("%w: %q", models.ErrInvalidGameMode, name)
	}
	return m, nil
}
