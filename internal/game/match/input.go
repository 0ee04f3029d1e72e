package match

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cory-johannsen/wordrace/internal/game/dictionary"
)

// Input runs the guess pipeline for one submitted word.
//
// Guesses from different players proceed concurrently; one player's
// guesses are applied one at a time. A guess admitted before the session
// ended is allowed to finish and is recorded even if another player has
// already claimed the win.
//
// Postcondition: Returns nil when the guess was recorded, or one of
// ErrSessionEnded, ErrNotInSession, ErrCrossChannel, ErrNotStarted,
// ErrInvalidGuessLength, ErrWordNotInDictionary, ErrDuplicateGuess. The last
// two are shown to the player as notices that expire after the configured TTL.
func (s *Session) Input(ctx context.Context, channelID, userID, word string) error {
	word = dictionary.Normalize(word)

	s.mu.Lock()
	m, err := s.admitLocked(channelID, userID, word)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	m.inputMu.Lock()
	defer m.inputMu.Unlock()

	known, err := s.deps.Dictionary.Exists(ctx, s.language, word)
	if err != nil {
		return fmt.Errorf("checking %q in %s dictionary: %w", word, s.language, err)
	}
	if !known {
		s.transient(ctx, m, KeyInvalidWord)
		return ErrWordNotInDictionary
	}

	s.mu.Lock()
	if m.player.HasGuessed(word) {
		s.mu.Unlock()
		s.transient(ctx, m, KeyAlreadyUsed)
		return ErrDuplicateGuess
	}
	prev := m.last
	m.last = nil
	guess := m.player.AddGuess(word, s.answer)
	history := m.player.Guesses()
	theme := m.player.Theme
	won := false
	if s.variant.OnInput(userID, guess, s.answer) && s.winner == "" && s.playing && !s.ended {
		// Claiming also closes admission; guesses already past it still land.
		s.winner = userID
		s.ended = true
		won = true
	}
	s.mu.Unlock()

	if prev != nil {
		s.remove(ctx, m.channel, *prev)
	}

	board, err := s.deps.Renderer.Render(history, theme)
	if err != nil {
		s.logger.Warn("rendering guesses", zap.String("user", userID), zap.Error(err))
	} else if ref, ok := s.send(ctx, m.channel, Message{Level: LevelInfo, Attachment: &board}); ok {
		s.mu.Lock()
		m.last = &ref
		s.mu.Unlock()
	}

	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.save(ctx, snap)

	s.logger.Debug("guess recorded",
		zap.String("user", userID),
		zap.Int("guesses", len(history)),
		zap.Bool("won", won),
	)

	if !won {
		return nil
	}
	s.send(ctx, m.channel, Message{Level: LevelSuccess, Text: s.deps.Localizer.Text(m.player.Locale, KeyWin)})
	return s.End(ctx)
}

// admitLocked applies the cheap, silent checks of the pipeline.
func (s *Session) admitLocked(channelID, userID, word string) (*member, error) {
	if s.ended || s.cleaned {
		return nil, ErrSessionEnded
	}
	m, ok := s.members[userID]
	if !ok {
		return nil, ErrNotInSession
	}
	if m.channel.ID() != channelID {
		return nil, ErrCrossChannel
	}
	if !s.playing {
		return nil, ErrNotStarted
	}
	if utf8.RuneCountInString(word) != s.length {
		return nil, ErrInvalidGuessLength
	}
	return m, nil
}

// transient shows a notice in the player's channel and schedules its
// deletion; the caller does not wait for the deletion.
func (s *Session) transient(ctx context.Context, m *member, key string) {
	ref, ok := s.send(ctx, m.channel, Message{Level: LevelError, Text: s.deps.Localizer.Text(m.player.Locale, key)})
	if !ok {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.expirer.After(s.deps.TransientTTL, func() {
		s.remove(detached, m.channel, ref)
	})
}
