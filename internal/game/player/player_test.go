package player

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestScore_AllCorrect(t *testing.T) {
	assert.Equal(t, []Mark{Correct, Correct, Correct, Correct, Correct}, Score("crane", "crane"))
}

func TestScore_PresentAndAbsent(t *testing.T) {
	// r and e appear in "crane" at other positions.
	assert.Equal(t, []Mark{Absent, Absent, Absent, Present, Correct}, Score("outre", "crane"))
	assert.Equal(t, []Mark{Present, Present, Present, Absent, Absent}, Score("racks", "crane"))
}

func TestScore_RepeatedGuessLetterNotOverCredited(t *testing.T) {
	// answer has a single e, the exact match consumes it.
	assert.Equal(t, []Mark{Absent, Absent, Absent, Absent, Correct}, Score("geese", "crane"))
	assert.Equal(t, []Mark{Present, Absent, Absent, Absent, Absent}, Score("eerie", "abeam"))
}

func TestScore_UnicodeLetters(t *testing.T) {
	assert.Equal(t, []Mark{Correct, Correct, Correct, Correct, Correct}, Score("çiçek", "çiçek"))
}

func TestPlayer_AddGuessCachesRows(t *testing.T) {
	p := New("u1", "Alice", "en-US", "dark")
	p.AddGuess("slate", "crane")
	g := p.AddGuess("crane", "crane")

	assert.True(t, g.Solved())
	assert.Equal(t, 2, p.GuessCount())
	assert.Equal(t, "⬛⬛🟩⬛🟩\n🟩🟩🟩🟩🟩", p.GuessString())
}

func TestPlayer_HasGuessed(t *testing.T) {
	p := New("u1", "Alice", "en-US", "dark")
	assert.False(t, p.HasGuessed("crane"))
	p.AddGuess("crane", "slate")
	assert.True(t, p.HasGuessed("crane"))
}

func TestPlayer_GuessesIsCopy(t *testing.T) {
	p := New("u1", "Alice", "en-US", "dark")
	p.AddGuess("crane", "slate")
	gs := p.Guesses()
	gs[0].Word = "mutated"
	assert.Equal(t, "crane", p.Guesses()[0].Word)
}

func TestPlayer_RestoreRebuildsCache(t *testing.T) {
	src := New("u1", "Alice", "en-US", "dark")
	src.AddGuess("slate", "crane")
	src.AddGuess("crane", "crane")

	dst := New("u1", "Alice", "en-US", "dark")
	dst.Restore(src.Guesses())
	assert.Equal(t, src.GuessString(), dst.GuessString())
	assert.True(t, dst.HasGuessed("slate"))
}

func TestMark_String(t *testing.T) {
	assert.Equal(t, "correct", Correct.String())
	assert.Equal(t, "present", Present.String())
	assert.Equal(t, "absent", Absent.String())
}

// Property-based tests

func TestPropertyScoreSelfIsAllCorrect(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.StringMatching(`[a-z]{1,8}`).Draw(t, "word")
		for i, m := range Score(w, w) {
			if m != Correct {
				t.Fatalf("position %d of %q scored %v against itself", i, w, m)
			}
		}
	})
}

func TestPropertyScoreNeverOverCredits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		guess := rapid.StringMatching(`[a-c]{` + strconv.Itoa(n) + `}`).Draw(t, "guess")
		answer := rapid.StringMatching(`[a-c]{` + strconv.Itoa(n) + `}`).Draw(t, "answer")

		marks := Score(guess, answer)
		require.Len(t, marks, n)

		credited := map[rune]int{}
		for i, r := range guess {
			if marks[i] != Absent {
				credited[r]++
			}
		}
		inAnswer := map[rune]int{}
		for _, r := range answer {
			inAnswer[r]++
		}
		for r, c := range credited {
			if c > inAnswer[r] {
				t.Fatalf("letter %q credited %d times, answer has %d", r, c, inAnswer[r])
			}
		}
	})
}

func TestPropertyDuplicateAlwaysDetected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{5}`), 1, 10, rapid.ID[string]).Draw(t, "words")
		p := New("u", "U", "en-US", "dark")
		for _, w := range words {
			p.AddGuess(w, "crane")
		}
		pick := rapid.SampledFrom(words).Draw(t, "pick")
		if !p.HasGuessed(pick) {
			t.Fatalf("previously guessed %q not detected", pick)
		}
	})
}

func TestClone_IsIndependent(t *testing.T) {
	p := New("u1", "Ada", "en-US", "dark")
	p.AddGuess("racks", "crane")
	c := p.Clone()
	p.AddGuess("crane", "crane")

	assert.Equal(t, 1, c.GuessCount())
	assert.Equal(t, 2, p.GuessCount())
	assert.Equal(t, "Ada", c.Name)
	assert.NotEqual(t, p.GuessString(), c.GuessString())
}
