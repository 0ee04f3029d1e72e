// Package player holds per-user state for a word race match.
package player

import (
	"strings"
)

// Guess is one submitted word together with its feedback.
type Guess struct {
	Word     string `json:"word"`
	Feedback []Mark `json:"feedback"`
}

// Solved reports whether every letter of the guess is Correct.
func (g Guess) Solved() bool {
	if len(g.Feedback) == 0 {
		return false
	}
	for _, m := range g.Feedback {
		if m != Correct {
			return false
		}
	}
	return true
}

// Player is one participant of a session.
//
// A Player is mutated only by its own guess submissions; callers serialize
// access per player.
type Player struct {
	// ID is the opaque user identifier from the transport.
	ID string
	// Name is the display name used in broadcasts.
	Name string
	// Locale is the message catalog tag, e.g. "en-US".
	Locale string
	// Theme selects the renderer palette.
	Theme string

	guesses     []Guess
	guessString string
}

// New creates a Player with an empty guess history.
//
// Precondition: id must be non-empty.
func New(id, name, locale, theme string) *Player {
	return &Player{ID: id, Name: name, Locale: locale, Theme: theme}
}

// AddGuess scores word against answer, appends it to the history and
// refreshes the cached rendering.
//
// Precondition: word and answer are normalised and of equal rune length.
// Postcondition: the returned Guess is the last element of Guesses().
func (p *Player) AddGuess(word, answer string) Guess {
	g := Guess{Word: word, Feedback: Score(word, answer)}
	p.guesses = append(p.guesses, g)

	var b strings.Builder
	b.WriteString(p.guessString)
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(Row(g.Feedback))
	p.guessString = b.String()
	return g
}

// HasGuessed reports whether word was already submitted by this player.
func (p *Player) HasGuessed(word string) bool {
	for _, g := range p.guesses {
		if g.Word == word {
			return true
		}
	}
	return false
}

// Guesses returns a copy of the guess history in submission order.
func (p *Player) Guesses() []Guess {
	out := make([]Guess, len(p.guesses))
	copy(out, p.guesses)
	return out
}

// GuessCount returns the number of accepted guesses.
func (p *Player) GuessCount() int {
	return len(p.guesses)
}

// GuessString returns the cached emoji rendering, one row per guess.
func (p *Player) GuessString() string {
	return p.guessString
}

// Restore replaces the history with guesses, rebuilding the cached rendering.
// Used when rehydrating a stored session.
func (p *Player) Restore(guesses []Guess) {
	p.guesses = nil
	p.guessString = ""
	rows := make([]string, 0, len(guesses))
	for _, g := range guesses {
		p.guesses = append(p.guesses, g)
		rows = append(rows, Row(g.Feedback))
	}
	p.guessString = strings.Join(rows, "\n")
}

// Clone returns an independent copy of p.
func (p *Player) Clone() *Player {
	c := *p
	c.guesses = p.Guesses()
	return &c
}
