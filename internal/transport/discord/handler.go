package discord

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wordrace/internal/game/command"
	"github.com/cory-johannsen/wordrace/internal/game/match"
)

// Catalog keys used by command replies.
const (
	keyCreated  = "CommandCreated"
	keyUsage    = "CommandUsage"
	keyNoGames  = "CommandNoGames"
	keyGameLine = "CommandGameLine"
	keyInvalid  = "CommandInvalid"
	keyFailed   = "CommandFailed"
	keyHelpLine = "CommandHelpLine"
)

// Defaults fill in create arguments a user leaves out.
type Defaults struct {
	GameType  string
	Language  string
	Length    int
	UserLimit int
	Locale    string
}

// Incoming is one chat message as the handler sees it.
type Incoming struct {
	ChannelID  string
	AuthorID   string
	AuthorName string
	Locale     string
	Content    string
	Bot        bool
}

// Handler routes prefixed commands to the engine and every other message
// from a playing user to the guess pipeline.
type Handler struct {
	engine   *match.Engine
	commands *command.Registry
	api      API
	texts    match.Localizer
	prefix   string
	defaults Defaults
	logger   *zap.Logger
}

// NewHandler creates a Handler.
//
// Precondition: all arguments must be non-nil; prefix must be non-empty.
func NewHandler(engine *match.Engine, api API, texts match.Localizer, prefix string, defaults Defaults, logger *zap.Logger) *Handler {
	return &Handler{
		engine:   engine,
		commands: command.DefaultRegistry(),
		api:      api,
		texts:    texts,
		prefix:   prefix,
		defaults: defaults,
		logger:   logger,
	}
}

// OnMessageCreate is the discordgo event handler.
func (h *Handler) OnMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	in := Incoming{
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Locale:     m.Author.Locale,
		Content:    m.Content,
		Bot:        m.Author.Bot,
	}
	if err := h.Handle(context.Background(), in); err != nil {
		h.logger.Error("handling message",
			zap.String("channel", in.ChannelID),
			zap.String("user", in.AuthorID),
			zap.Error(err),
		)
	}
}

// Handle processes one message.
//
// Postcondition: Returns nil for handled messages and silent rejections;
// other errors have already been answered in the caller's channel.
func (h *Handler) Handle(ctx context.Context, in Incoming) error {
	if in.Bot {
		return nil
	}
	if in.Locale == "" {
		in.Locale = h.defaults.Locale
	}
	if parsed, ok := command.Parse(h.prefix, in.Content); ok {
		return h.command(ctx, in, parsed)
	}

	if h.engine.SessionFor(in.AuthorID) == nil {
		return nil
	}
	err := h.engine.Input(ctx, in.ChannelID, in.AuthorID, in.Content)
	if err == nil || match.IsSilent(err) {
		return nil
	}
	return err
}

func (h *Handler) command(ctx context.Context, in Incoming, parsed command.ParseResult) error {
	cmd, ok := h.commands.Resolve(parsed.Command)
	if !ok {
		h.reply(ctx, in, match.LevelInfo, keyUsage, h.prefix)
		return nil
	}
	caller := NewChannel(h.api, in.ChannelID)
	user := match.User{ID: in.AuthorID, Name: in.AuthorName, Locale: in.Locale}
	args := parsed.Args

	switch cmd.Handler {
	case command.HandlerCreate:
		return h.create(ctx, in, caller, user, args)
	case command.HandlerJoin:
		if len(args) != 1 {
			h.reply(ctx, in, match.LevelError, keyInvalid, strings.Join(append([]string{cmd.Name}, args...), " "))
			return nil
		}
		if h.engine.SessionFor(user.ID) != nil {
			h.reply(ctx, in, match.LevelError, match.KeyAlreadyJoined)
			return nil
		}
		err := h.engine.Join(ctx, args[0], caller, user)
		if errors.Is(err, match.ErrSessionNotFound) {
			h.reply(ctx, in, match.LevelError, keyInvalid, args[0])
			return nil
		}
		return h.settle(ctx, in, err)
	case command.HandlerLeave, command.HandlerStart, command.HandlerAbort:
		s := h.engine.SessionFor(user.ID)
		if s == nil {
			h.reply(ctx, in, match.LevelError, match.KeyNotInSession)
			return nil
		}
		var err error
		switch cmd.Handler {
		case command.HandlerLeave:
			err = s.Leave(ctx, caller, user.ID)
		case command.HandlerStart:
			err = s.Start(ctx)
		default:
			err = s.Abort(ctx)
		}
		return h.settle(ctx, in, err)
	case command.HandlerList:
		h.list(ctx, in)
		return nil
	default:
		h.help(ctx, in)
		return nil
	}
}

func (h *Handler) create(ctx context.Context, in Incoming, caller match.Channel, user match.User, args []string) error {
	req := match.CreateRequest{
		GameType:  h.defaults.GameType,
		Language:  h.defaults.Language,
		Length:    h.defaults.Length,
		UserLimit: h.defaults.UserLimit,
		Creator:   user,
		Caller:    caller,
	}
	for i, arg := range args {
		switch i {
		case 0, 1:
			n, err := strconv.Atoi(arg)
			if err != nil {
				h.reply(ctx, in, match.LevelError, keyInvalid, arg)
				return nil
			}
			if i == 0 {
				req.UserLimit = n
			} else {
				req.Length = n
			}
		case 2:
			req.Language = arg
		}
	}
	if h.engine.SessionFor(user.ID) != nil {
		h.reply(ctx, in, match.LevelError, match.KeyAlreadyJoined)
		return nil
	}

	s, err := h.engine.Create(ctx, req)
	if errors.Is(err, match.ErrInvalidConfig) || errors.Is(err, match.ErrUnknownGameType) {
		h.reply(ctx, in, match.LevelError, keyInvalid, err.Error())
		return nil
	}
	if s != nil {
		h.reply(ctx, in, match.LevelSuccess, keyCreated, s.ID(), h.prefix, s.ID())
	}
	return h.settle(ctx, in, err)
}

// settle answers unexpected errors. Join and leave rejections were already
// shown by the session.
func (h *Handler) settle(ctx context.Context, in Incoming, err error) error {
	if err == nil || match.IsSilent(err) {
		return nil
	}
	for _, known := range []error{
		match.ErrSessionFull,
		match.ErrAlreadyStarted,
		match.ErrAlreadyJoined,
		match.ErrCannotLeaveWhilePlaying,
	} {
		if errors.Is(err, known) {
			return nil
		}
	}
	h.reply(ctx, in, match.LevelError, keyFailed)
	return err
}

func (h *Handler) list(ctx context.Context, in Incoming) {
	sessions := h.engine.Sessions()
	if len(sessions) == 0 {
		h.reply(ctx, in, match.LevelInfo, keyNoGames)
		return
	}
	lines := make([]string, 0, len(sessions))
	for _, s := range sessions {
		lines = append(lines, h.texts.Text(in.Locale, keyGameLine,
			s.ID(),
			h.texts.Text(in.Locale, match.KeyGameTypePrefix+s.GameType()),
			s.Size(), s.UserLimit(),
			s.State().String(),
		))
	}
	h.send(ctx, in, match.Message{Level: match.LevelInfo, Text: strings.Join(lines, "\n")})
}

func (h *Handler) help(ctx context.Context, in Incoming) {
	cmds := h.commands.Commands()
	lines := make([]string, 0, len(cmds))
	for _, c := range cmds {
		synopsis := strings.TrimSpace(h.prefix + " " + c.Name + " " + c.Args)
		lines = append(lines, h.texts.Text(in.Locale, keyHelpLine, synopsis, h.texts.Text(in.Locale, c.HelpKey())))
	}
	h.send(ctx, in, match.Message{Level: match.LevelInfo, Text: strings.Join(lines, "\n")})
}

func (h *Handler) reply(ctx context.Context, in Incoming, level match.Level, key string, args ...any) {
	h.send(ctx, in, match.Message{Level: level, Text: h.texts.Text(in.Locale, key, args...)})
}

func (h *Handler) send(ctx context.Context, in Incoming, msg match.Message) {
	if _, err := NewChannel(h.api, in.ChannelID).Send(ctx, msg); err != nil {
		h.logger.Warn("sending reply",
			zap.String("channel", in.ChannelID),
			zap.Error(err),
		)
	}
}
