package match_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/wordrace/internal/game/match"
	"github.com/cory-johannsen/wordrace/internal/game/match/matchtest"
)

const testTTL = 20 * time.Millisecond

type fixture struct {
	engine *match.Engine
	opener *matchtest.Opener
	dict   *matchtest.Dictionary
	store  *match.MemoryStore
	lobby  *matchtest.Channel
}

func newFixture(t *testing.T, tweak ...func(*match.Deps)) *fixture {
	t.Helper()
	f := &fixture{
		opener: matchtest.NewOpener(),
		dict:   matchtest.NewDictionary("crane", "racks", "outre", "slate", "crate"),
		store:  match.NewMemoryStore(),
		lobby:  matchtest.NewChannel("lobby"),
	}
	deps := match.Deps{
		Dictionary:   f.dict,
		Opener:       f.opener,
		Resolver:     f.opener,
		Renderer:     matchtest.Renderer{},
		Store:        f.store,
		Localizer:    matchtest.Localizer{},
		Retry:        match.RetryPolicy{MaxAttempts: 1},
		TransientTTL: testTTL,
		DefaultTheme: "dark",
		Limits:       match.Limits{MinLength: 4, MaxLength: 8, MaxUserLimit: 8},
		Logger:       zaptest.NewLogger(t),
	}
	for _, fn := range tweak {
		fn(&deps)
	}
	f.engine = match.NewEngine(deps)
	f.engine.Register(match.TeamRaceType, func() match.Variant {
		return match.NewTeamRace(nil, deps.Logger)
	})
	t.Cleanup(func() { f.engine.Shutdown(context.Background()) })
	return f
}

func user(id string) match.User {
	return match.User{ID: id, Name: "name-" + id, Locale: "en-US"}
}

// create opens a team race for p1 with the given limit.
func (f *fixture) create(t *testing.T, limit int) *match.Session {
	t.Helper()
	s, err := f.engine.Create(context.Background(), match.CreateRequest{
		GameType:  match.TeamRaceType,
		Language:  "en",
		Length:    5,
		UserLimit: limit,
		Creator:   user("p1"),
		Caller:    f.lobby,
	})
	require.NoError(t, err)
	return s
}

// started returns a playing two-player session of p1 and p2.
func (f *fixture) started(t *testing.T) *match.Session {
	t.Helper()
	s := f.create(t, 2)
	require.NoError(t, f.engine.Join(context.Background(), s.ID(), f.lobby, user("p2")))
	require.True(t, s.Playing())
	return s
}

func (f *fixture) guess(s *match.Session, userID, word string) error {
	return s.Input(context.Background(), "dm-"+userID, userID, word)
}
