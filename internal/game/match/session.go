// Package match implements the multiplayer word race session engine: the
// per-session state machine, the guess pipeline, game variants and the
// engine-owned table of live sessions.
package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/wordrace/internal/game/dictionary"
	"github.com/cory-johannsen/wordrace/internal/game/player"
	"github.com/cory-johannsen/wordrace/internal/observability"
)

// State is the lifecycle phase of a session.
type State int

const (
	StateForming State = iota
	StatePlaying
	StateEnded
	StateCleaned
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateEnded:
		return "ended"
	case StateCleaned:
		return "cleaned"
	default:
		return "forming"
	}
}

type member struct {
	player  *player.Player
	channel Channel
	last    *MessageRef
	// inputMu serializes one player's guess pipeline.
	inputMu sync.Mutex
}

// Participant is a read-only view of one roster entry.
type Participant struct {
	UserID  string
	Name    string
	Locale  string
	Channel Channel
}

// Session is one running match.
//
// All state mutation happens under mu; collaborator I/O never does. The
// winner slot is claimed by check-and-set under mu, so at most one guess can
// win even when several correct guesses race.
type Session struct {
	id        string
	gameType  string
	language  string
	length    int
	userLimit int

	variant   Variant
	deps      *Deps
	expirer   *Expirer
	persist   *persister
	logger    *zap.Logger
	onCleanup func(id string)

	mu      sync.Mutex
	order   []string
	members map[string]*member
	playing bool
	ended   bool
	ending  bool
	cleaned bool
	answer  string
	winner  string
	version uint64
}

func newSession(id string, cfg sessionConfig, variant Variant, deps *Deps, expirer *Expirer, onCleanup func(string)) *Session {
	return &Session{
		id:        id,
		gameType:  variant.Name(),
		language:  cfg.language,
		length:    cfg.length,
		userLimit: cfg.userLimit,
		variant:   variant,
		deps:      deps,
		expirer:   expirer,
		persist:   &persister{store: deps.Store, retry: deps.Retry},
		logger:    observability.SessionLogger(deps.Logger, id, variant.Name()),
		onCleanup: onCleanup,
		members:   make(map[string]*member),
	}
}

type sessionConfig struct {
	language  string
	length    int
	userLimit int
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// GameType returns the variant tag.
func (s *Session) GameType() string { return s.gameType }

// Language returns the dictionary language.
func (s *Session) Language() string { return s.language }

// Length returns the word length.
func (s *Session) Length() int { return s.length }

// UserLimit returns the roster capacity.
func (s *Session) UserLimit() int { return s.userLimit }

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.cleaned:
		return StateCleaned
	case s.ended:
		return StateEnded
	case s.playing:
		return StatePlaying
	default:
		return StateForming
	}
}

// Playing reports whether the session has started.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Ended reports whether the end sequence has begun.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Winner returns the winning user id, or "" if unclaimed.
func (s *Session) Winner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner
}

// Size returns the current roster size.
func (s *Session) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// HasPlayer reports whether userID is on the roster.
func (s *Session) HasPlayer(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[userID]
	return ok
}

// Guesses returns a copy of userID's guess history.
func (s *Session) Guesses(userID string) []player.Guess {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[userID]
	if !ok {
		return nil
	}
	return m.player.Guesses()
}

// Participants returns the roster in join order.
func (s *Session) Participants() []Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Participant, 0, len(s.order))
	for _, id := range s.order {
		m := s.members[id]
		out = append(out, Participant{
			UserID:  id,
			Name:    m.player.Name,
			Locale:  m.player.Locale,
			Channel: m.channel,
		})
	}
	return out
}

// Info returns the current snapshot.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	info := Info{
		ID:               s.id,
		GameType:         s.gameType,
		Language:         s.language,
		Length:           s.length,
		UserLimit:        s.userLimit,
		Channels:         make(map[string]string, len(s.order)),
		ResponseMessages: make(map[string]MessageRef, len(s.order)),
		Playing:          s.playing,
		Ended:            s.ended,
		Answer:           s.answer,
		Winner:           s.winner,
		Players:          make([]PlayerInfo, 0, len(s.order)),
		Version:          s.version,
	}
	for _, id := range s.order {
		m := s.members[id]
		info.Channels[id] = m.channel.ID()
		if m.last != nil {
			info.ResponseMessages[id] = *m.last
		}
		info.Players = append(info.Players, PlayerInfo{
			ID:      id,
			Name:    m.player.Name,
			Locale:  m.player.Locale,
			Theme:   m.player.Theme,
			Guesses: m.player.Guesses(),
		})
	}
	return info
}

// snapshotLocked bumps the version and returns the new snapshot.
func (s *Session) snapshotLocked() Info {
	s.version++
	return s.infoLocked()
}

func (s *Session) joinableLocked(userID string) error {
	switch {
	case s.cleaned || s.ended:
		return ErrSessionEnded
	case len(s.order) >= s.userLimit:
		return ErrSessionFull
	case s.playing:
		return ErrAlreadyStarted
	}
	if _, ok := s.members[userID]; ok {
		return ErrAlreadyJoined
	}
	return nil
}

// Join adds user to the roster, opening their dedicated channel. The session
// starts automatically when the roster reaches the user limit.
//
// Precondition: user.ID must be non-empty; caller may be nil.
// Postcondition: On success the roster holds user and never exceeds the
// limit. Returns ErrSessionFull, ErrAlreadyStarted, ErrAlreadyJoined or
// ErrSessionEnded on rejection; rejections are also shown in caller.
func (s *Session) Join(ctx context.Context, caller Channel, user User) error {
	s.mu.Lock()
	err := s.joinableLocked(user.ID)
	s.mu.Unlock()
	if err != nil {
		s.reject(ctx, caller, user.Locale, err)
		return err
	}

	ch, err := s.deps.Opener.Open(ctx, caller, user)
	if err != nil {
		return fmt.Errorf("opening channel for %s: %w", user.ID, err)
	}

	s.mu.Lock()
	// Re-check: the roster may have filled while the channel was opening.
	if err := s.joinableLocked(user.ID); err != nil {
		s.mu.Unlock()
		s.reject(ctx, caller, user.Locale, err)
		return err
	}
	p := player.New(user.ID, user.Name, user.Locale, s.deps.DefaultTheme)
	s.members[user.ID] = &member{player: p, channel: ch}
	s.order = append(s.order, user.ID)
	count := len(s.order)
	full := count == s.userLimit
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("player joined",
		zap.String("user", user.ID),
		zap.Int("players", count),
		zap.Int("limit", s.userLimit),
	)

	s.send(ctx, ch, Message{Level: LevelInfo, Text: s.deps.Localizer.Text(user.Locale, KeyInfo, s.userLimit)})
	s.save(ctx, snap)
	s.broadcast(ctx, LevelSuccess, KeyJoined, user.Name, count, s.userLimit)
	s.variant.OnJoined(ctx, s, user.ID)

	if full {
		return s.Start(ctx)
	}
	return nil
}

// Leave removes userID from the roster. An empty roster cleans the session up.
//
// Postcondition: Returns ErrCannotLeaveWhilePlaying once started,
// ErrNotInSession for unknown users, ErrSessionEnded after cleanup.
func (s *Session) Leave(ctx context.Context, caller Channel, userID string) error {
	s.mu.Lock()
	var err error
	m, ok := s.members[userID]
	switch {
	case s.cleaned:
		err = ErrSessionEnded
	case s.playing:
		err = ErrCannotLeaveWhilePlaying
	case !ok:
		err = ErrNotInSession
	}
	if err != nil {
		s.mu.Unlock()
		locale := ""
		if ok {
			locale = m.player.Locale
		}
		s.reject(ctx, caller, locale, err)
		return err
	}

	delete(s.members, userID)
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	count := len(s.order)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("player left",
		zap.String("user", userID),
		zap.Int("players", count),
	)

	s.save(ctx, snap)
	s.broadcast(ctx, LevelError, KeyLeft, m.player.Name, count, s.userLimit)
	s.variant.OnLeft(ctx, s, userID)

	if count == 0 {
		return s.Cleanup(ctx)
	}
	return nil
}

// Start draws the answer and opens play. It is a no-op once playing.
//
// Postcondition: playing is true and the answer is set, or an error from the
// dictionary is returned and the session stays forming.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	skip := s.playing || s.cleaned || s.ended
	s.mu.Unlock()
	if skip {
		return nil
	}

	answer, err := s.deps.Dictionary.SelectAnswer(ctx, s.language, s.length)
	if err != nil {
		return fmt.Errorf("selecting answer for %s/%d: %w", s.language, s.length, err)
	}
	answer = dictionary.Normalize(answer)

	s.mu.Lock()
	if s.playing || s.cleaned || s.ended {
		s.mu.Unlock()
		return nil
	}
	s.playing = true
	s.answer = answer
	snap := s.snapshotLocked()
	count := len(s.order)
	s.mu.Unlock()

	s.logger.Info("game started",
		zap.Int("players", count),
		zap.String("language", s.language),
		zap.Int("length", s.length),
	)

	s.save(ctx, snap)
	s.broadcast(ctx, LevelSuccess, KeyStart)
	s.variant.OnStart(ctx, s)
	return nil
}

// End finishes the session: it announces the winner, sends each player a
// personal result, then cleans up. A second End is a no-op.
//
// Postcondition: ended is true. Returns ErrNoWinnerAtEnd when the variant
// requires a winner and none was claimed; the session is torn down anyway.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	if s.ending || s.cleaned {
		s.mu.Unlock()
		return nil
	}
	s.ended = true
	s.ending = true
	if s.winner == "" && s.variant.RequiresWinner() {
		s.mu.Unlock()
		s.logger.Error("end reached without a winner", zap.Error(ErrNoWinnerAtEnd))
		if err := s.Cleanup(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrNoWinnerAtEnd, err)
		}
		return ErrNoWinnerAtEnd
	}
	outcome, recipients := s.outcomeLocked()
	s.mu.Unlock()

	if outcome.Winner != nil {
		s.logger.Info("game won", zap.String("user", outcome.Winner.ID))
		s.broadcast(ctx, LevelSuccess, KeyWinner, outcome.Winner.Name)
	}
	s.deliverResults(ctx, outcome, recipients)
	s.variant.OnEnd(ctx, s)
	return s.Cleanup(ctx)
}

// Abort ends the session without a winner. It is the manual end path for
// sessions that cannot finish on their own. Once a winner is claimed the
// session belongs to End and Abort is a no-op.
func (s *Session) Abort(ctx context.Context) error {
	s.mu.Lock()
	if s.ending || s.cleaned || s.winner != "" {
		s.mu.Unlock()
		return nil
	}
	s.ended = true
	s.ending = true
	outcome, recipients := s.outcomeLocked()
	s.mu.Unlock()

	s.logger.Info("game aborted")
	s.broadcast(ctx, LevelError, KeyAborted)
	s.deliverResults(ctx, outcome, recipients)
	s.variant.OnEnd(ctx, s)
	return s.Cleanup(ctx)
}

// recipient pairs a player snapshot with the channel its result goes to.
type recipient struct {
	player  *player.Player
	channel Channel
}

// outcomeLocked snapshots the players so results can be built without mu
// while late guesses are still being recorded.
func (s *Session) outcomeLocked() (Outcome, []recipient) {
	o := Outcome{SessionID: s.id, GameType: s.gameType, Answer: s.answer}
	out := make([]recipient, 0, len(s.order))
	for _, id := range s.order {
		m := s.members[id]
		p := m.player.Clone()
		if id == s.winner {
			o.Winner = p
		}
		out = append(out, recipient{player: p, channel: m.channel})
	}
	return o, out
}

// deliverResults sends every recipient their personal result in parallel.
func (s *Session) deliverResults(ctx context.Context, o Outcome, recipients []recipient) {
	var g errgroup.Group
	g.SetLimit(maxBroadcastFanout)
	for _, r := range recipients {
		g.Go(func() error {
			text := s.variant.BuildResult(r.player, o, s.deps.Localizer)
			s.send(ctx, r.channel, Message{Level: LevelInfo, Text: text})
			return nil
		})
	}
	_ = g.Wait()
}

// Cleanup removes the session from the store and the engine table. It runs
// at most once; later calls return nil.
func (s *Session) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	if s.cleaned {
		s.mu.Unlock()
		return nil
	}
	s.cleaned = true
	s.mu.Unlock()

	start := time.Now()
	err := s.persist.remove(ctx, s.id)
	if err != nil {
		s.logger.Error("removing session snapshot", zap.Error(err))
	}
	s.variant.OnCleanup(ctx, s)
	if s.onCleanup != nil {
		s.onCleanup(s.id)
	}
	s.logger.Info("session cleaned up", zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		return fmt.Errorf("removing session %s: %w", s.id, err)
	}
	return nil
}

// reject shows a join/leave rejection in the caller's channel.
func (s *Session) reject(ctx context.Context, caller Channel, locale string, err error) {
	if caller == nil {
		return
	}
	key, ok := rejectionKey(err)
	if !ok {
		return
	}
	s.send(ctx, caller, Message{Level: LevelError, Text: s.deps.Localizer.Text(locale, key)})
}

// send delivers msg with retries. Failures are logged, never returned: a
// failed send does not undo committed state.
func (s *Session) send(ctx context.Context, ch Channel, msg Message) (MessageRef, bool) {
	var ref MessageRef
	err := s.deps.Retry.Do(ctx, func() error {
		var err error
		ref, err = ch.Send(ctx, msg)
		return err
	})
	if err != nil {
		s.logger.Warn("sending message",
			zap.String("channel", ch.ID()),
			zap.Error(err),
		)
		return MessageRef{}, false
	}
	return ref, true
}

func (s *Session) remove(ctx context.Context, ch Channel, ref MessageRef) {
	err := s.deps.Retry.Do(ctx, func() error { return ch.Delete(ctx, ref) })
	if err != nil {
		s.logger.Warn("deleting message",
			zap.String("channel", ch.ID()),
			zap.String("message", ref.MessageID),
			zap.Error(err),
		)
	}
}

func (s *Session) save(ctx context.Context, info Info) {
	if err := s.persist.upsert(ctx, info); err != nil {
		s.logger.Error("persisting session snapshot",
			zap.Uint64("version", info.Version),
			zap.Error(err),
		)
	}
}

func (s *Session) broadcast(ctx context.Context, level Level, key string, args ...any) {
	if err := s.deps.Broadcaster.Broadcast(ctx, s, level, key, args...); err != nil {
		s.logger.Warn("broadcast failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

