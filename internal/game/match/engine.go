package match

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wordrace/internal/game/dictionary"
	"github.com/cory-johannsen/wordrace/internal/game/player"
)

// Limits bounds what a create request may ask for. Zero fields are unbounded.
type Limits struct {
	MinLength    int
	MaxLength    int
	MaxUserLimit int
}

// Deps bundles the collaborators shared by every session of an Engine.
type Deps struct {
	Dictionary Dictionary
	Opener     ChannelOpener
	// Resolver rebinds stored channels on Restore; nil disables restore.
	Resolver  ChannelResolver
	Renderer  Renderer
	Store     Store
	Localizer Localizer
	// Broadcaster defaults to a ChannelBroadcaster over Localizer.
	Broadcaster Broadcaster

	Retry        RetryPolicy
	TransientTTL time.Duration
	DefaultTheme string
	Limits       Limits
	Logger       *zap.Logger
}

// CreateRequest describes a new session and its creator.
type CreateRequest struct {
	GameType  string
	Language  string
	Length    int
	UserLimit int
	Creator   User
	// Caller is the channel the request arrived on; may be nil.
	Caller Channel
}

// Engine owns the table of live sessions. Sessions are independent: the
// engine lock guards only the table, never session state.
// All methods are safe for concurrent use.
type Engine struct {
	deps     Deps
	expirer  *Expirer
	logger   *zap.Logger
	mu       sync.RWMutex
	sessions map[string]*Session
	variants map[string]VariantFactory
	// joining holds users with a create or join in flight.
	joining map[string]struct{}
}

// NewEngine creates an Engine with no registered variants.
//
// Precondition: deps.Dictionary, Opener, Renderer, Store, Localizer and
// Logger must be non-nil.
// Postcondition: Returns a ready Engine; register variants before Create.
func NewEngine(deps Deps) *Engine {
	if deps.Broadcaster == nil {
		deps.Broadcaster = NewChannelBroadcaster(deps.Localizer, deps.Retry)
	}
	return &Engine{
		deps:     deps,
		expirer:  NewExpirer(),
		logger:   deps.Logger,
		sessions: make(map[string]*Session),
		variants: make(map[string]VariantFactory),
		joining:  make(map[string]struct{}),
	}
}

// Register makes a variant available under name.
//
// Precondition: name must be non-empty and factory non-nil.
func (e *Engine) Register(name string, factory VariantFactory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.variants[name] = factory
}

// GameTypes returns the registered variant tags in sorted order.
func (e *Engine) GameTypes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.variants))
	for name := range e.variants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) validate(req CreateRequest) error {
	l := e.deps.Limits
	switch {
	case req.Length < 1:
		return fmt.Errorf("%w: length must be >= 1, got %d", ErrInvalidConfig, req.Length)
	case l.MinLength > 0 && req.Length < l.MinLength:
		return fmt.Errorf("%w: length must be >= %d, got %d", ErrInvalidConfig, l.MinLength, req.Length)
	case l.MaxLength > 0 && req.Length > l.MaxLength:
		return fmt.Errorf("%w: length must be <= %d, got %d", ErrInvalidConfig, l.MaxLength, req.Length)
	case req.UserLimit < 1:
		return fmt.Errorf("%w: user limit must be >= 1, got %d", ErrInvalidConfig, req.UserLimit)
	case l.MaxUserLimit > 0 && req.UserLimit > l.MaxUserLimit:
		return fmt.Errorf("%w: user limit must be <= %d, got %d", ErrInvalidConfig, l.MaxUserLimit, req.UserLimit)
	case req.Language == "":
		return fmt.Errorf("%w: language must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Create registers a new session and joins its creator.
//
// Postcondition: Returns the session holding the creator, or an error; a
// session whose creator join failed is cleaned up before returning.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*Session, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}
	e.mu.RLock()
	factory, ok := e.variants[req.GameType]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, req.GameType)
	}
	release, err := e.reserve(req.Creator.ID)
	if err != nil {
		return nil, err
	}
	defer release()
	if other := e.SessionFor(req.Creator.ID); other != nil {
		return nil, fmt.Errorf("%w: user %s is in session %s", ErrAlreadyJoined, req.Creator.ID, other.ID())
	}

	s := e.newSession(uuid.NewString(), sessionConfig{
		language:  dictionary.Normalize(req.Language),
		length:    req.Length,
		userLimit: req.UserLimit,
	}, factory())

	if err := s.variant.OnCreate(ctx, s); err != nil {
		e.drop(s.id)
		return nil, fmt.Errorf("creating %s session: %w", req.GameType, err)
	}

	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.save(ctx, snap)

	e.logger.Info("session created",
		zap.String("session", s.id),
		zap.String("game_type", req.GameType),
		zap.String("creator", req.Creator.ID),
		zap.Int("limit", req.UserLimit),
	)

	if err := s.Join(ctx, req.Caller, req.Creator); err != nil {
		// A failed auto-start still leaves the creator joined.
		if !s.HasPlayer(req.Creator.ID) {
			_ = s.Cleanup(ctx)
			return nil, err
		}
		return s, err
	}
	return s, nil
}

func (e *Engine) newSession(id string, cfg sessionConfig, v Variant) *Session {
	s := newSession(id, cfg, v, &e.deps, e.expirer, e.drop)
	e.mu.Lock()
	e.sessions[id] = s
	e.mu.Unlock()
	return s
}

func (e *Engine) drop(id string) {
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}

// Get returns the live session with id.
func (e *Engine) Get(id string) (*Session, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Sessions returns the live sessions ordered by id.
func (e *Engine) Sessions() []*Session {
	e.mu.RLock()
	out := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s)
	}
	e.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Count returns the number of live sessions.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// SessionFor returns the live session whose roster holds userID, or nil.
func (e *Engine) SessionFor(userID string) *Session {
	for _, s := range e.Sessions() {
		if s.HasPlayer(userID) {
			return s
		}
	}
	return nil
}

// Join adds user to the session with id.
func (e *Engine) Join(ctx context.Context, id string, caller Channel, user User) error {
	s, err := e.Get(id)
	if err != nil {
		return err
	}
	release, err := e.reserve(user.ID)
	if err != nil {
		return err
	}
	defer release()
	if other := e.SessionFor(user.ID); other != nil && other != s {
		return fmt.Errorf("%w: user %s is in session %s", ErrAlreadyJoined, user.ID, other.ID())
	}
	return s.Join(ctx, caller, user)
}

// reserve marks userID as joining until release is called, so the
// one-session check and the roster insert cannot interleave with another
// create or join by the same user.
func (e *Engine) reserve(userID string) (release func(), err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.joining[userID]; busy {
		return nil, fmt.Errorf("%w: user %s has a join in progress", ErrAlreadyJoined, userID)
	}
	e.joining[userID] = struct{}{}
	return func() {
		e.mu.Lock()
		delete(e.joining, userID)
		e.mu.Unlock()
	}, nil
}

// Input routes a guess to the session holding userID.
func (e *Engine) Input(ctx context.Context, channelID, userID, word string) error {
	s := e.SessionFor(userID)
	if s == nil {
		return ErrNotInSession
	}
	return s.Input(ctx, channelID, userID, word)
}

// Restore rebuilds sessions from stored snapshots. Ended snapshots and
// snapshots of unknown game types are removed from the store.
//
// Postcondition: Returns the number of sessions restored.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	if e.deps.Resolver == nil {
		return 0, nil
	}
	infos, err := e.deps.Store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing stored sessions: %w", err)
	}

	restored := 0
	var errs []error
	for _, info := range infos {
		e.mu.RLock()
		factory, ok := e.variants[info.GameType]
		e.mu.RUnlock()
		if info.Ended || len(info.Players) == 0 || !ok {
			e.logger.Info("discarding stored session",
				zap.String("session", info.ID),
				zap.Bool("ended", info.Ended),
				zap.String("game_type", info.GameType),
			)
			if err := e.deps.Store.Remove(ctx, info.ID); err != nil {
				errs = append(errs, fmt.Errorf("removing stale session %s: %w", info.ID, err))
			}
			continue
		}
		if err := e.restoreOne(ctx, info, factory()); err != nil {
			errs = append(errs, err)
			continue
		}
		restored++
	}
	e.logger.Info("sessions restored", zap.Int("count", restored))
	return restored, errors.Join(errs...)
}

func (e *Engine) restoreOne(ctx context.Context, info Info, v Variant) error {
	members := make(map[string]*member, len(info.Players))
	order := make([]string, 0, len(info.Players))
	for _, pi := range info.Players {
		ch, err := e.deps.Resolver.Resolve(ctx, info.Channels[pi.ID])
		if err != nil {
			return fmt.Errorf("restoring session %s: channel of %s: %w", info.ID, pi.ID, err)
		}
		p := player.New(pi.ID, pi.Name, pi.Locale, pi.Theme)
		p.Restore(pi.Guesses)
		m := &member{player: p, channel: ch}
		if ref, ok := info.ResponseMessages[pi.ID]; ok {
			ref := ref
			m.last = &ref
		}
		members[pi.ID] = m
		order = append(order, pi.ID)
	}

	s := newSession(info.ID, sessionConfig{
		language:  info.Language,
		length:    info.Length,
		userLimit: info.UserLimit,
	}, v, &e.deps, e.expirer, e.drop)
	s.members = members
	s.order = order
	s.playing = info.Playing
	s.answer = info.Answer
	s.winner = info.Winner
	s.version = info.Version
	s.persist.latest = info.Version

	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()
	return nil
}

// Shutdown runs pending transient-notice deletions now.
func (e *Engine) Shutdown(_ context.Context) {
	e.expirer.Flush()
	e.logger.Info("engine stopped", zap.Int("live_sessions", e.Count()))
}
