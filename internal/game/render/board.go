// Package render turns a player's guess history into the board attachment
// shown in their channel.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/wordrace/internal/game/match"
	"github.com/cory-johannsen/wordrace/internal/game/player"
)

// ContentType of every board attachment.
const ContentType = "text/markdown"

// Theme maps each mark to how a letter tile is drawn.
type Theme struct {
	Name string
	// Tiles holds one emoji per mark; unused when ANSI is set.
	Tiles map[player.Mark]string
	// ANSI holds one background color per mark for ansi code blocks.
	ANSI map[player.Mark]string
}

var themes = map[string]Theme{
	"dark": {
		Name:  "dark",
		Tiles: map[player.Mark]string{player.Absent: "⬛", player.Present: "🟨", player.Correct: "🟩"},
	},
	"light": {
		Name:  "light",
		Tiles: map[player.Mark]string{player.Absent: "⬜", player.Present: "🟨", player.Correct: "🟩"},
	},
	"contrast": {
		Name:  "contrast",
		Tiles: map[player.Mark]string{player.Absent: "⬛", player.Present: "🟦", player.Correct: "🟧"},
	},
	"ansi": {
		Name: "ansi",
		ANSI: map[player.Mark]string{player.Absent: BgBlack + White, player.Present: BgYellow + Black, player.Correct: BgGreen + Black},
	},
}

// Themes returns the known theme names in sorted order.
func Themes() []string {
	out := make([]string, 0, len(themes))
	for name := range themes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Renderer draws guess histories as markdown boards. It is stateless and
// safe for concurrent use.
type Renderer struct {
	fallback string
}

// NewRenderer creates a Renderer that uses fallback for unknown theme names.
//
// Precondition: fallback should name a known theme; "dark" is used otherwise.
func NewRenderer(fallback string) *Renderer {
	if _, ok := themes[fallback]; !ok {
		fallback = "dark"
	}
	return &Renderer{fallback: fallback}
}

// Render draws one row per guess.
//
// Postcondition: Returns a markdown attachment, or an error if a guess's
// feedback does not cover its word. An empty history renders an empty board.
func (r *Renderer) Render(guesses []player.Guess, theme string) (match.Attachment, error) {
	for _, g := range guesses {
		if len([]rune(g.Word)) != len(g.Feedback) {
			return match.Attachment{}, fmt.Errorf("guess %q has %d marks", g.Word, len(g.Feedback))
		}
	}

	t, ok := themes[theme]
	if !ok {
		t = themes[r.fallback]
	}

	var b strings.Builder
	if t.ANSI != nil {
		b.WriteString("```ansi\n")
		for _, g := range guesses {
			b.WriteString(ansiRow(t, g))
			b.WriteByte('\n')
		}
		b.WriteString("```")
	} else {
		for i, g := range guesses {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(emojiRow(t, g))
		}
	}

	return match.Attachment{
		Name:        fmt.Sprintf("board-%d.md", len(guesses)),
		ContentType: ContentType,
		Data:        []byte(b.String()),
	}, nil
}

func emojiRow(t Theme, g player.Guess) string {
	var b strings.Builder
	for _, m := range g.Feedback {
		b.WriteString(t.Tiles[m])
	}
	b.WriteString("  `")
	b.WriteString(strings.ToUpper(g.Word))
	b.WriteString("`")
	return b.String()
}

func ansiRow(t Theme, g player.Guess) string {
	var b strings.Builder
	for i, r := range []rune(strings.ToUpper(g.Word)) {
		mark := player.Absent
		if i < len(g.Feedback) {
			mark = g.Feedback[i]
		}
		b.WriteString(Colorf(Bold+t.ANSI[mark], " %c ", r))
	}
	return b.String()
}
