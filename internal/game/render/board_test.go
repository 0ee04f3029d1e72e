package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/wordrace/internal/game/player"
)

func guess(word, answer string) player.Guess {
	return player.Guess{Word: word, Feedback: player.Score(word, answer)}
}

func TestRender_DarkTheme(t *testing.T) {
	r := NewRenderer("dark")
	att, err := r.Render([]player.Guess{guess("racks", "crane"), guess("crane", "crane")}, "dark")
	require.NoError(t, err)
	assert.Equal(t, ContentType, att.ContentType)
	assert.Equal(t, "board-2.md", att.Name)
	assert.Equal(t, "🟨🟨🟨⬛⬛  `RACKS`\n🟩🟩🟩🟩🟩  `CRANE`", string(att.Data))
}

func TestRender_ContrastTheme(t *testing.T) {
	att, err := NewRenderer("dark").Render([]player.Guess{guess("crate", "crane")}, "contrast")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(att.Data), "🟧🟧🟧⬛🟧"))
}

func TestRender_UnknownThemeUsesFallback(t *testing.T) {
	r := NewRenderer("light")
	att, err := r.Render([]player.Guess{guess("outre", "crane")}, "neon")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(att.Data), "⬜⬜⬜🟨🟩"))
}

func TestRender_ANSIThemeUsesCodeBlock(t *testing.T) {
	att, err := NewRenderer("dark").Render([]player.Guess{guess("crane", "crane")}, "ansi")
	require.NoError(t, err)
	out := string(att.Data)
	assert.True(t, strings.HasPrefix(out, "```ansi\n"))
	assert.True(t, strings.HasSuffix(out, "```"))
	assert.Equal(t, "```ansi\n C  R  A  N  E \n```", StripANSI(out))
}

func TestRender_EmptyHistory(t *testing.T) {
	att, err := NewRenderer("dark").Render(nil, "dark")
	require.NoError(t, err)
	assert.Empty(t, att.Data)
}

func TestRender_MismatchedFeedback(t *testing.T) {
	_, err := NewRenderer("dark").Render([]player.Guess{{Word: "crane", Feedback: nil}}, "dark")
	assert.Error(t, err)
}

func TestThemes(t *testing.T) {
	assert.Equal(t, []string{"ansi", "contrast", "dark", "light"}, Themes())
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "\033[42mok\033[0m", Colorize(BgGreen, "ok"))
	assert.Equal(t, "\033[1m 7 \033[0m", Colorf(Bold, " %d ", 7))
}

// Property: one board line per guess for every emoji theme.
func TestPropertyOneLinePerGuess(t *testing.T) {
	words := []string{"crane", "racks", "outre", "slate", "crate"}
	rapid.Check(t, func(t *rapid.T) {
		picks := rapid.SliceOfN(rapid.SampledFrom(words), 1, 6).Draw(t, "picks")
		theme := rapid.SampledFrom([]string{"dark", "light", "contrast"}).Draw(t, "theme")
		gs := make([]player.Guess, 0, len(picks))
		for _, w := range picks {
			gs = append(gs, guess(w, "crane"))
		}
		att, err := NewRenderer("dark").Render(gs, theme)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if n := len(strings.Split(string(att.Data), "\n")); n != len(gs) {
			t.Fatalf("got %d lines for %d guesses", n, len(gs))
		}
	})
}

// Property: StripANSI(Colorize(color, text)) == text for any ASCII text.
func TestPropertyStripANSIInversesColorize(t *testing.T) {
	colors := []string{BgBlack, BgGreen, BgYellow, Bold, White}
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 ]{0,50}`).Draw(t, "text")
		color := rapid.SampledFrom(colors).Draw(t, "color")
		if got := StripANSI(Colorize(color, text)); got != text {
			t.Fatalf("StripANSI(Colorize(%q)) = %q", text, got)
		}
	})
}
