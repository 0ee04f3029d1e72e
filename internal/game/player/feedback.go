package player

import "strings"

// Mark is the per-letter verdict for one guessed letter.
type Mark int

const (
	// Absent marks a letter that does not occur in the remaining answer letters.
	Absent Mark = iota
	// Present marks a letter that occurs elsewhere in the answer.
	Present
	// Correct marks a letter in its answer position.
	Correct
)

// String returns the lower-case name of the mark.
func (m Mark) String() string {
	switch m {
	case Correct:
		return "correct"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Symbol returns the emoji tile used for m in text renderings.
func (m Mark) Symbol() string {
	switch m {
	case Correct:
		return "🟩"
	case Present:
		return "🟨"
	default:
		return "⬛"
	}
}

// Score compares guess to answer letter by letter.
//
// Exact matches are assigned first; the remaining answer letters are then
// consumed left to right by Present marks, so a repeated guess letter is
// never credited more often than it occurs in the answer.
//
// Precondition: guess and answer have the same rune length.
// Postcondition: len(result) == rune length of guess.
func Score(guess, answer string) []Mark {
	g := []rune(guess)
	a := []rune(answer)
	marks := make([]Mark, len(g))
	remaining := make(map[rune]int, len(a))

	for i := range g {
		if i < len(a) && g[i] == a[i] {
			marks[i] = Correct
			continue
		}
		if i < len(a) {
			remaining[a[i]]++
		}
	}
	for i := range g {
		if marks[i] == Correct {
			continue
		}
		if remaining[g[i]] > 0 {
			marks[i] = Present
			remaining[g[i]]--
		}
	}
	return marks
}

// Row renders marks as a single line of emoji tiles.
func Row(marks []Mark) string {
	var b strings.Builder
	for _, m := range marks {
		b.WriteString(m.Symbol())
	}
	return b.String()
}
