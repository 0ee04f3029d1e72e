package match

import (
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wordrace/internal/game/player"
)

// TeamRaceType is the game-type tag of the team race variant.
const TeamRaceType = "teamrace"

// ResultView is the data a result formatter sees for one player.
type ResultView struct {
	Locale      string
	TypeName    string
	PlayerName  string
	Guesses     []player.Guess
	GuessString string
	Won         bool
	WinnerName  string
	Answer      string
}

// ResultFormatter renders a ResultView. An empty string or an error makes
// TeamRace fall back to its built-in summary.
type ResultFormatter interface {
	FormatResult(v ResultView) (string, error)
}

// TeamRace is the race variant: the first correct full-word guess wins outright.
type TeamRace struct {
	BaseVariant
	formatter ResultFormatter
	logger    *zap.Logger
}

// NewTeamRace creates a TeamRace. formatter may be nil.
//
// Precondition: logger must be non-nil.
func NewTeamRace(formatter ResultFormatter, logger *zap.Logger) *TeamRace {
	return &TeamRace{formatter: formatter, logger: logger}
}

// Name returns TeamRaceType.
func (t *TeamRace) Name() string { return TeamRaceType }

// OnInput claims the win for an exact match of the answer.
func (t *TeamRace) OnInput(_ string, g player.Guess, answer string) bool {
	return g.Word == answer
}

// RequiresWinner is true: a race only ends through a correct guess.
func (t *TeamRace) RequiresWinner() bool { return true }

// BuildResult renders the player's summary, referencing the winner and the
// localized variant name.
func (t *TeamRace) BuildResult(p *player.Player, o Outcome, texts Localizer) string {
	v := ResultView{
		Locale:      p.Locale,
		TypeName:    texts.Text(p.Locale, KeyGameTypePrefix+TeamRaceType),
		PlayerName:  p.Name,
		Guesses:     p.Guesses(),
		GuessString: p.GuessString(),
		Answer:      o.Answer,
	}
	if o.Winner != nil {
		v.WinnerName = o.Winner.Name
		v.Won = o.Winner.ID == p.ID
	}

	if t.formatter != nil {
		out, err := t.formatter.FormatResult(v)
		if err != nil {
			t.logger.Warn("result formatter failed, using built-in summary",
				zap.String("user", p.ID),
				zap.Error(err),
			)
		} else if out != "" {
			return out
		}
	}
	return emojiResult(v, texts)
}

func emojiResult(v ResultView, texts Localizer) string {
	var b strings.Builder
	b.WriteString("**")
	b.WriteString(texts.Text(v.Locale, "ResultTitle", v.TypeName))
	b.WriteString("**\n")
	switch {
	case v.Won:
		b.WriteString(texts.Text(v.Locale, "ResultYouWon"))
	case v.WinnerName != "":
		b.WriteString(texts.Text(v.Locale, "ResultWinner", v.WinnerName))
	default:
		b.WriteString(texts.Text(v.Locale, "ResultNoWinner"))
	}
	b.WriteByte('\n')
	b.WriteString(texts.Text(v.Locale, "ResultAnswer", strings.ToUpper(v.Answer)))
	b.WriteByte('\n')
	b.WriteString(texts.Text(v.Locale, "ResultGuesses", len(v.Guesses)))
	if v.GuessString != "" {
		b.WriteByte('\n')
		b.WriteString(v.GuessString)
	}
	return b.String()
}
