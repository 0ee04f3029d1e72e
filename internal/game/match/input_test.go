package match_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/wordrace/internal/game/match"
	"github.com/cory-johannsen/wordrace/internal/game/match/matchtest"
	"github.com/cory-johannsen/wordrace/internal/game/player"
)

func TestInput_RecordsGuessAndReplacesBoard(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)
	ch := f.opener.Channel("p1")

	require.NoError(t, f.guess(s, "p1", "racks"))
	first := ch.Sent()[len(ch.Sent())-1]
	require.NotNil(t, first.Message.Attachment)
	assert.Contains(t, string(first.Message.Attachment.Data), "racks")

	require.NoError(t, f.guess(s, "p1", "Slate "))
	last := ch.Sent()[len(ch.Sent())-1]
	assert.Contains(t, ch.Deleted(), first.Ref)
	assert.NotContains(t, ch.Deleted(), last.Ref)

	guesses := s.Guesses("p1")
	require.Len(t, guesses, 2)
	assert.Equal(t, "racks", guesses[0].Word)
	assert.Equal(t, "slate", guesses[1].Word)
	assert.Equal(t, last.Ref, s.Info().ResponseMessages["p1"])
	assert.Empty(t, s.Winner())

	stored, ok := f.store.Get(s.ID())
	require.True(t, ok)
	assert.Len(t, stored.Players[0].Guesses, 2)
}

func TestInput_SilentRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	forming := f.create(t, 3)

	f2 := newFixture(t)
	s := f2.started(t)

	tests := []struct {
		name    string
		session *match.Session
		channel string
		user    string
		word    string
		want    error
	}{
		{"not started", forming, "dm-p1", "p1", "racks", match.ErrNotStarted},
		{"not in session", s, "dm-p3", "p3", "racks", match.ErrNotInSession},
		{"cross channel", s, "dm-p2", "p1", "racks", match.ErrCrossChannel},
		{"too short", s, "dm-p1", "p1", "rack", match.ErrInvalidGuessLength},
		{"too long", s, "dm-p1", "p1", "racket", match.ErrInvalidGuessLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(f2.opener.Channel("p1").Sent())
			err := tt.session.Input(ctx, tt.channel, tt.user, tt.word)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, match.IsSilent(err))
			assert.Equal(t, before, len(f2.opener.Channel("p1").Sent()))
		})
	}
	assert.Empty(t, s.Guesses("p1"))
}

func TestInput_UnknownWordShowsTransientNotice(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)
	ch := f.opener.Channel("p1")

	err := f.guess(s, "p1", "zzzzz")
	assert.ErrorIs(t, err, match.ErrWordNotInDictionary)
	assert.Empty(t, s.Guesses("p1"))

	notice := ch.Sent()[len(ch.Sent())-1]
	assert.Equal(t, "GameInvalidWord", notice.Message.Text)
	assert.Equal(t, match.LevelError, notice.Message.Level)
	assert.Eventually(t, func() bool {
		for _, ref := range ch.Deleted() {
			if ref == notice.Ref {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

// A repeated word is rejected and its notice expires.
func TestInput_DuplicateRejectedIgnoringCase(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)
	ch := f.opener.Channel("p1")

	require.NoError(t, f.guess(s, "p1", "racks"))
	err := f.guess(s, "p1", "RACKS")
	assert.ErrorIs(t, err, match.ErrDuplicateGuess)
	assert.Len(t, s.Guesses("p1"), 1)

	notice := ch.Sent()[len(ch.Sent())-1]
	assert.Equal(t, "GameAlreadyUsed", notice.Message.Text)
	assert.Eventually(t, func() bool {
		return len(ch.Deleted()) == 1 && ch.Deleted()[0] == notice.Ref
	}, time.Second, 5*time.Millisecond)
}

func TestInput_SlowNoticeDeletionDoesNotBlockGuesses(t *testing.T) {
	f := newFixture(t, func(d *match.Deps) { d.TransientTTL = time.Hour })
	s := f.started(t)

	require.ErrorIs(t, f.guess(s, "p1", "zzzzz"), match.ErrWordNotInDictionary)
	require.NoError(t, f.guess(s, "p1", "racks"))
	assert.Len(t, s.Guesses("p1"), 1)
	assert.Empty(t, f.opener.Channel("p1").Deleted())

	f.engine.Shutdown(context.Background())
	assert.Len(t, f.opener.Channel("p1").Deleted(), 1)
}

// The correct word wins and ends the session.
func TestInput_CorrectGuessWins(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)

	require.NoError(t, f.guess(s, "p2", "racks"))
	require.NoError(t, f.guess(s, "p1", "CRANE"))

	assert.Equal(t, "p1", s.Winner())
	assert.Equal(t, match.StateCleaned, s.State())
	assert.Equal(t, 0, f.engine.Count())
	_, ok := f.store.Get(s.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, f.store.Removals(s.ID()))

	p1 := f.opener.Channel("p1")
	p2 := f.opener.Channel("p2")
	assert.Equal(t, 1, p1.Count("GameWin"))
	assert.Equal(t, 0, p2.Count("GameWin"))
	for _, ch := range []interface{ Count(string) int }{p1, p2} {
		assert.Equal(t, 1, ch.Count("GameMultiplayerWinner name-p1"))
		assert.Equal(t, 1, ch.Count("**ResultTitle"))
	}

	results := p2.Texts()
	result := results[len(results)-1]
	assert.Contains(t, result, "ResultWinner name-p1")
	assert.Contains(t, result, "ResultAnswer CRANE")
	assert.Contains(t, result, "ResultGuesses 1")
	assert.Contains(t, p1.Texts()[len(p1.Texts())-1], "ResultYouWon")

	assert.ErrorIs(t, f.guess(s, "p2", "crane"), match.ErrSessionEnded)
}

// abortingRenderer calls Abort on the session while rendering a solved
// board, between the winner claim and End.
type abortingRenderer struct {
	matchtest.Renderer
	session *match.Session
	err     error
}

func (r *abortingRenderer) Render(guesses []player.Guess, theme string) (match.Attachment, error) {
	if n := len(guesses); n > 0 && guesses[n-1].Solved() && r.session != nil {
		r.err = r.session.Abort(context.Background())
	}
	return r.Renderer.Render(guesses, theme)
}

func TestInput_AbortAfterClaimKeepsWinner(t *testing.T) {
	renderer := &abortingRenderer{}
	f := newFixture(t, func(d *match.Deps) { d.Renderer = renderer })
	s := f.started(t)
	renderer.session = s

	require.NoError(t, f.guess(s, "p1", "crane"))
	require.NoError(t, renderer.err)

	assert.Equal(t, "p1", s.Winner())
	assert.Equal(t, match.StateCleaned, s.State())
	assert.Equal(t, 1, f.opener.Channel("p1").Count("GameWin"))
	for _, id := range []string{"p1", "p2"} {
		ch := f.opener.Channel(id)
		assert.Equal(t, 1, ch.Count("GameMultiplayerWinner name-p1"), "winner shown to %s", id)
		assert.Equal(t, 0, ch.Count("GameAborted"), "no abort shown to %s", id)
		assert.Equal(t, 1, ch.Count("**ResultTitle"), "one result for %s", id)
	}
	assert.Equal(t, 1, f.store.Removals(s.ID()))
}

// Two correct guesses race; exactly one wins and both are recorded.
func TestInput_ConcurrentCorrectGuessesClaimOnce(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)

	f.dict.Gate = make(chan struct{})
	f.dict.Arrived = make(chan struct{}, 2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"p1", "p2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.guess(s, id, "crane")
		}()
	}
	<-f.dict.Arrived
	<-f.dict.Arrived
	close(f.dict.Gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	winner := s.Winner()
	assert.Contains(t, []string{"p1", "p2"}, winner)
	for _, id := range []string{"p1", "p2"} {
		guesses := s.Guesses(id)
		require.Len(t, guesses, 1, "guess of %s recorded", id)
		assert.True(t, guesses[0].Solved())
	}

	wins := f.opener.Channel("p1").Count("GameWin") + f.opener.Channel("p2").Count("GameWin")
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, f.opener.Channel("p1").Count("GameMultiplayerWinner"))
	assert.Equal(t, 1, f.opener.Channel("p2").Count("GameMultiplayerWinner"))
	assert.Equal(t, 1, f.store.Removals(s.ID()))
	_, ok := f.store.Get(s.ID())
	assert.False(t, ok)
}

func TestEngine_InputRoutesByUser(t *testing.T) {
	f := newFixture(t)
	s := f.started(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Input(ctx, "dm-p2", "p2", "racks"))
	assert.Len(t, s.Guesses("p2"), 1)
	assert.ErrorIs(t, f.engine.Input(ctx, "dm-p9", "p9", "racks"), match.ErrNotInSession)
}

// Property-based tests

func TestPropertyDuplicateAlwaysRejected(t *testing.T) {
	words := []string{"racks", "outre", "slate", "crate"}
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(t)
		s := f.started(t)
		seen := map[string]bool{}

		picks := rapid.SliceOfN(rapid.SampledFrom(words), 1, 12).Draw(rt, "picks")
		for i, w := range picks {
			if rapid.Bool().Draw(rt, "upper") {
				w = strings.ToUpper(w)
			}
			err := f.guess(s, "p1", w)
			key := strings.ToLower(w)
			if seen[key] {
				if err != match.ErrDuplicateGuess {
					rt.Fatalf("pick %d: repeated %q returned %v", i, w, err)
				}
			} else if err != nil {
				rt.Fatalf("pick %d: fresh %q returned %v", i, w, err)
			}
			seen[key] = true
		}
		if len(s.Guesses("p1")) != len(seen) {
			rt.Fatalf("history %d, distinct words %d", len(s.Guesses("p1")), len(seen))
		}
	})
}
