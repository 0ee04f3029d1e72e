package match

import (
	"context"

	"github.com/cory-johannsen/wordrace/internal/game/player"
)

// Outcome describes how a session finished, for building per-player results.
type Outcome struct {
	SessionID string
	GameType  string
	Answer    string
	// Winner is nil when the session ended without one.
	Winner *player.Player
}

// Variant supplies the game-mode specific hooks plugged into a Session.
// Hooks other than OnInput run without the session lock held and may call
// Session accessors.
type Variant interface {
	// Name is the game-type tag the variant is registered under.
	Name() string

	OnCreate(ctx context.Context, s *Session) error
	OnJoined(ctx context.Context, s *Session, userID string)
	OnLeft(ctx context.Context, s *Session, userID string)
	OnStart(ctx context.Context, s *Session)

	// OnInput reports whether the accepted guess qualifies for the winner
	// claim. It runs with the session state locked and must not call back
	// into the Session.
	OnInput(userID string, g player.Guess, answer string) bool

	OnEnd(ctx context.Context, s *Session)
	OnCleanup(ctx context.Context, s *Session)

	// RequiresWinner reports whether End without a winner is an invariant violation.
	RequiresWinner() bool

	// BuildResult renders p's personal final summary.
	BuildResult(p *player.Player, o Outcome, texts Localizer) string
}

// BaseVariant provides no-op lifecycle hooks for embedding.
type BaseVariant struct{}

func (BaseVariant) OnCreate(context.Context, *Session) error { return nil }
func (BaseVariant) OnJoined(context.Context, *Session, string) {}
func (BaseVariant) OnLeft(context.Context, *Session, string)   {}
func (BaseVariant) OnStart(context.Context, *Session)          {}
func (BaseVariant) OnEnd(context.Context, *Session)            {}
func (BaseVariant) OnCleanup(context.Context, *Session)        {}

// VariantFactory builds a fresh Variant for one session.
type VariantFactory func() Variant
